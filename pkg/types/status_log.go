package types

import "time"

// StatusLogEntry is one audit record appended on every status change.
type StatusLogEntry struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	At     time.Time `json:"at"`
}

// StatusLog is the ordered audit trail stored on the order as JSON.
type StatusLog []StatusLogEntry
