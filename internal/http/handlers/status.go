package handlers

import (
	"net/http"
	"time"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
)

type conversationStats interface {
	Stats() conversation.Stats
	Snapshot() []conversation.Summary
}

// StatusConfig wires the status endpoints.
type StatusConfig struct {
	Store       conversationStats
	ServiceName string
	Instance    string
	GatewayURL  string
	StartedAt   time.Time
	Now         func() time.Time
}

// StatusHandler serves the root status page, the health probe and the
// redacted conversation listing.
type StatusHandler struct {
	store      conversationStats
	service    string
	instance   string
	gatewayURL string
	startedAt  time.Time
	now        func() time.Time
}

func NewStatusHandler(cfg StatusConfig) *StatusHandler {
	if cfg.Store == nil {
		panic("handlers: conversation store required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = cfg.Now()
	}
	return &StatusHandler{
		store:      cfg.Store,
		service:    defaultString(cfg.ServiceName, "Aurora WhatsApp Relay"),
		instance:   cfg.Instance,
		gatewayURL: cfg.GatewayURL,
		startedAt:  cfg.StartedAt,
		now:        cfg.Now,
	}
}

type statusResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Uptime    float64           `json:"uptime"`
	Stats     statusCounts      `json:"stats"`
	Config    statusConfigEcho  `json:"config"`
	Endpoints map[string]string `json:"endpoints"`
}

type statusCounts struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
}

type statusConfigEcho struct {
	Instance  string `json:"instance"`
	Evolution string `json:"evolution"`
}

// Root reports liveness plus aggregate counters.
func (h *StatusHandler) Root(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "online",
		Service: h.service,
		Uptime:  h.now().Sub(h.startedAt).Seconds(),
		Stats: statusCounts{
			Conversations: stats.Conversations,
			Messages:      stats.Messages,
		},
		Config: statusConfigEcho{
			Instance:  h.instance,
			Evolution: h.gatewayURL,
		},
		Endpoints: map[string]string{
			"webhook": "POST /webhook",
			"health":  "GET /health",
			"stats":   "GET /stats",
			"metrics": "GET /metrics",
		},
	})
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Stats lists every live conversation with the sender masked and no message
// content.
func (h *StatusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summaries := h.store.Snapshot()
	if summaries == nil {
		summaries = []conversation.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":         len(summaries),
		"conversations": summaries,
	})
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
