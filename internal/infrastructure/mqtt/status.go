package mqtt

import (
	"encoding/json"
	"time"
)

// Core status states published on modi/core/status.
const (
	StateOnline  = "online"
	StateOffline = "offline"
)

// Reasons attached to an offline status.
const (
	ReasonShutdown = "graceful_shutdown"
	ReasonLost     = "unexpected_disconnect"
)

// Status is the retained payload on the core status topic. Modules use it
// to tell a restarting core from one that is gone.
type Status struct {
	State     string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func statusPayload(state, clientID, reason string, at time.Time) []byte {
	// Marshal of this struct cannot fail
	b, _ := json.Marshal(Status{
		State:     state,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: at.UTC().Truncate(time.Second),
	})
	return b
}
