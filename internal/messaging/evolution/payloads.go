package evolution

import (
	"errors"
	"strings"
)

// Presence values accepted by the markPresence endpoint.
const (
	PresenceComposing = "composing"
	PresencePaused    = "paused"
	PresenceAvailable = "available"
)

// SendTextRequest describes an outbound WhatsApp text.
type SendTextRequest struct {
	// Number is the recipient JID or bare phone number.
	Number string
	Text   string
}

func (r SendTextRequest) validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return errors.New("evolution: recipient number required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("evolution: text required")
	}
	return nil
}

// MessageKey identifies a message inside WhatsApp.
type MessageKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// SendTextResponse is the subset of the sendText response we care about.
type SendTextResponse struct {
	Key              MessageKey `json:"key"`
	Status           string     `json:"status"`
	MessageTimestamp any        `json:"messageTimestamp,omitempty"`
}
