package repository

import (
	"context"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
)

// LoginCheck probes the live page and reports whether the session is logged in.
type LoginCheck func(ctx context.Context) (bool, error)

// LoginPrompt blocks until the operator confirms a manual login.
type LoginPrompt func(ctx context.Context) error

// SessionRepository persists and validates the authenticated browser profile.
type SessionRepository interface {
	EnsureAuthenticated(ctx context.Context, check LoginCheck, prompt LoginPrompt) error
	State() (entity.SessionState, error)
	Invalidate() error
}
