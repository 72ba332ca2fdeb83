package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
)

// stateFileName lives inside the browser profile directory.
const stateFileName = "fleetburn-session.json"

// SessionRepositoryImpl persists the last validation time of the browser
// profile and decides when the live login check has to run again.
//
// Only one process may use a given directory at a time; nothing here locks it.
type SessionRepositoryImpl struct {
	dir      string
	validity time.Duration
	now      func() time.Time
}

// Option customises a SessionRepositoryImpl.
type Option func(*SessionRepositoryImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *SessionRepositoryImpl) { r.now = now }
}

// NewSessionRepository cria uma nova implementação do SessionRepository.
// A validity of zero or less trusts no stored validation: every call runs
// the login check.
func NewSessionRepository(dir string, validity time.Duration, opts ...Option) repository.SessionRepository {
	r := &SessionRepositoryImpl{dir: dir, validity: validity, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type stateFile struct {
	LastValidatedAt *time.Time `json:"lastValidatedAt,omitempty"`
}

// EnsureAuthenticated short-circuits while the last validation is inside the
// validity window. Otherwise it runs check and, when logged out, blocks on
// prompt. A failing check leaves the stored state untouched.
func (r *SessionRepositoryImpl) EnsureAuthenticated(ctx context.Context, check repository.LoginCheck, prompt repository.LoginPrompt) error {
	state, err := r.State()
	if err != nil {
		return err
	}

	now := r.now()
	if state.LastValidatedAt != nil {
		age := now.Sub(*state.LastValidatedAt)
		if age >= 0 && age < r.validity {
			return nil
		}
	}

	loggedIn, err := check(ctx)
	if err != nil {
		return fmt.Errorf("checking login state: %w", err)
	}

	if !loggedIn {
		if prompt == nil {
			return errors.New("session is not logged in and no manual login is available")
		}
		if err := prompt(ctx); err != nil {
			return fmt.Errorf("waiting for manual login: %w", err)
		}
	}

	return r.markValidated(r.now())
}

// State reads the persisted session state. A missing file means never validated.
func (r *SessionRepositoryImpl) State() (entity.SessionState, error) {
	state := entity.SessionState{Dir: r.dir}

	data, err := os.ReadFile(r.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("reading session state: %w", err)
	}

	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		// A corrupt file only costs one extra login check.
		return state, nil
	}
	state.LastValidatedAt = sf.LastValidatedAt
	return state, nil
}

// Invalidate forgets the last validation so the next run re-checks the login.
// The browser profile itself is kept.
func (r *SessionRepositoryImpl) Invalidate() error {
	return r.write(stateFile{})
}

func (r *SessionRepositoryImpl) markValidated(at time.Time) error {
	at = at.UTC()
	return r.write(stateFile{LastValidatedAt: &at})
}

func (r *SessionRepositoryImpl) write(sf stateFile) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, stateFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating session state file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing session state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.statePath()); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	return nil
}

func (r *SessionRepositoryImpl) statePath() string {
	return filepath.Join(r.dir, stateFileName)
}
