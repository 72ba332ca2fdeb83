package entity

import "time"

// SessionState is the persisted authentication state of the browser profile.
type SessionState struct {
	Dir             string     `json:"sessionDirectoryPath"`
	LastValidatedAt *time.Time `json:"lastValidatedAt,omitempty"`
}
