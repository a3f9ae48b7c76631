package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
)

func newTestStatusHandler(store *conversation.Store) *StatusHandler {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return NewStatusHandler(StatusConfig{
		Store:      store,
		Instance:   "aurora",
		GatewayURL: "https://evo.example.com",
		StartedAt:  started,
		Now:        func() time.Time { return started.Add(90 * time.Second) },
	})
}

func TestStatusRoot(t *testing.T) {
	store := conversation.NewStore()
	store.Append("a@s.whatsapp.net", conversation.ChatRoleUser, "oi")
	store.Append("a@s.whatsapp.net", conversation.ChatRoleAssistant, "olá")
	store.Append("b@s.whatsapp.net", conversation.ChatRoleUser, "oi")

	rr := httptest.NewRecorder()
	newTestStatusHandler(store).Root(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "online", body.Status)
	assert.Equal(t, "Aurora WhatsApp Relay", body.Service)
	assert.InDelta(t, 90, body.Uptime, 0.001)
	assert.Equal(t, statusCounts{Conversations: 2, Messages: 3}, body.Stats)
	assert.Equal(t, "aurora", body.Config.Instance)
	assert.Equal(t, "https://evo.example.com", body.Config.Evolution)
	assert.Equal(t, "POST /webhook", body.Endpoints["webhook"])
}

func TestStatusHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestStatusHandler(conversation.NewStore()).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.JSONEq(t, `{"status":"healthy","timestamp":"2025-03-10T09:01:30Z"}`, rr.Body.String())
}

func TestStatusStatsRedacted(t *testing.T) {
	store := conversation.NewStore()
	store.Append("5551998050105@s.whatsapp.net", conversation.ChatRoleUser, "quero o plano secreto")
	store.SetDisplayName("5551998050105@s.whatsapp.net", "Bia")

	rr := httptest.NewRecorder()
	newTestStatusHandler(store).Stats(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Total         int                    `json:"total"`
		Conversations []conversation.Summary `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Conversations, 1)
	assert.Equal(t, "Bia", body.Conversations[0].DisplayName)
	assert.Equal(t, 20, body.Conversations[0].LeadScore)
	assert.NotContains(t, rr.Body.String(), "5551998050105")
	assert.NotContains(t, rr.Body.String(), "plano secreto")
}

func TestStatusStatsEmpty(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestStatusHandler(conversation.NewStore()).Stats(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.JSONEq(t, `{"total":0,"conversations":[]}`, rr.Body.String())
}
