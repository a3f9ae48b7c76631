package conversation

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultHistoryLimit is the number of turns retained per sender.
const DefaultHistoryLimit = 20

// Turn is one message in a sender's rolling history.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is a point-in-time copy of one sender's conversation state.
type Record struct {
	SenderID     string
	DisplayName  string
	History      []Turn
	LastActivity time.Time
	LeadScore    int
}

// Recent returns up to n of the newest turns in chronological order.
func (r Record) Recent(n int) []Turn {
	if n <= 0 || len(r.History) == 0 {
		return nil
	}
	if n > len(r.History) {
		n = len(r.History)
	}
	out := make([]Turn, n)
	copy(out, r.History[len(r.History)-n:])
	return out
}

// Summary is the redacted view of a record exposed on the stats endpoint.
type Summary struct {
	Sender       string    `json:"sender"`
	DisplayName  string    `json:"displayName,omitempty"`
	Messages     int       `json:"messages"`
	LeadScore    int       `json:"leadScore"`
	LastActivity time.Time `json:"lastActivity"`
}

// Stats aggregates counts across all live conversations.
type Stats struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
}

type entry struct {
	mu      sync.Mutex
	seq     uint64
	evicted bool
	rec     Record
}

// Store owns every conversation record. The map lock only guards membership;
// each entry has its own lock so senders never contend with each other.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64

	historyLimit int
	now          func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithHistoryLimit overrides the per-sender history bound.
func WithHistoryLimit(limit int) StoreOption {
	return func(s *Store) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithClock injects the time source, mainly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty in-memory conversation store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[string]*entry),
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the sender's record, creating an empty one on first reference.
func (s *Store) Get(senderID string) Record {
	e := s.acquire(senderID)
	defer e.mu.Unlock()
	return e.rec.clone()
}

// Append records a turn for the sender and returns the updated record. Only
// user turns move the lead score.
func (s *Store) Append(senderID, role, text string) Record {
	e := s.acquire(senderID)
	defer e.mu.Unlock()

	now := s.now()
	e.rec.History = append(e.rec.History, Turn{Role: role, Text: text, Timestamp: now})
	e.rec.LastActivity = now
	if overflow := len(e.rec.History) - s.historyLimit; overflow > 0 {
		trimmed := make([]Turn, s.historyLimit)
		copy(trimmed, e.rec.History[overflow:])
		e.rec.History = trimmed
	}
	if role == ChatRoleUser {
		e.rec.LeadScore += ScoreDelta(text)
	}
	return e.rec.clone()
}

// SetDisplayName stores the name only if none is set yet. The bool reports
// whether this call set it.
func (s *Store) SetDisplayName(senderID, name string) (Record, bool) {
	name = strings.TrimSpace(name)
	e := s.acquire(senderID)
	defer e.mu.Unlock()
	if name == "" || e.rec.DisplayName != "" {
		return e.rec.clone(), false
	}
	e.rec.DisplayName = name
	return e.rec.clone(), true
}

// Sweep removes records idle for strictly longer than maxIdle and returns how
// many were removed. Candidates are re-checked under their own lock at delete
// time, so a record touched after the scan survives.
func (s *Store) Sweep(maxIdle time.Duration) int {
	now := s.now()

	type candidate struct {
		key string
		e   *entry
	}
	var stale []candidate
	for key, e := range s.entrySnapshot() {
		e.mu.Lock()
		if now.Sub(e.rec.LastActivity) > maxIdle {
			stale = append(stale, candidate{key: key, e: e})
		}
		e.mu.Unlock()
	}

	removed := 0
	for _, c := range stale {
		s.mu.Lock()
		if current, ok := s.entries[c.key]; ok && current == c.e {
			c.e.mu.Lock()
			if now.Sub(c.e.rec.LastActivity) > maxIdle {
				delete(s.entries, c.key)
				c.e.evicted = true
				removed++
			}
			c.e.mu.Unlock()
		}
		s.mu.Unlock()
	}
	return removed
}

// Snapshot returns redacted summaries in first-seen order.
func (s *Store) Snapshot() []Summary {
	type ordered struct {
		seq     uint64
		summary Summary
	}
	rows := make([]ordered, 0, s.Len())
	for _, e := range s.entrySnapshot() {
		e.mu.Lock()
		rows = append(rows, ordered{
			seq: e.seq,
			summary: Summary{
				Sender:       MaskSender(e.rec.SenderID),
				DisplayName:  e.rec.DisplayName,
				Messages:     len(e.rec.History),
				LeadScore:    e.rec.LeadScore,
				LastActivity: e.rec.LastActivity,
			},
		})
		e.mu.Unlock()
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]Summary, len(rows))
	for i, row := range rows {
		out[i] = row.summary
	}
	return out
}

// Stats returns aggregate conversation and message counts.
func (s *Store) Stats() Stats {
	var stats Stats
	for _, e := range s.entrySnapshot() {
		e.mu.Lock()
		stats.Conversations++
		stats.Messages += len(e.rec.History)
		e.mu.Unlock()
	}
	return stats
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// acquire returns the live entry for senderID with its lock held.
func (s *Store) acquire(senderID string) *entry {
	for {
		e := s.lookupOrCreate(senderID)
		e.mu.Lock()
		if !e.evicted {
			return e
		}
		// Lost a race with Sweep; the next lookup creates a fresh record.
		e.mu.Unlock()
	}
}

func (s *Store) lookupOrCreate(senderID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[senderID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[senderID]; ok {
		return e
	}
	s.seq++
	e = &entry{
		seq: s.seq,
		rec: Record{
			SenderID:     senderID,
			LastActivity: s.now(),
		},
	}
	s.entries[senderID] = e
	return e
}

func (s *Store) entrySnapshot() map[string]*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entry, len(s.entries))
	for key, e := range s.entries {
		out[key] = e
	}
	return out
}

func (r Record) clone() Record {
	out := r
	if r.History != nil {
		out.History = make([]Turn, len(r.History))
		copy(out.History, r.History)
	}
	return out
}
