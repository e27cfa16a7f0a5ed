// Package session owns the single-slot current-user cache and keeps it in
// step with the authentication provider.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	"github.com/zhouzirui/mindfulme/backend/internal/service/auth"
)

// DefaultBootstrapTimeout bounds how long Bootstrap waits for the provider.
const DefaultBootstrapTimeout = 3 * time.Second

// Records is the slice of the record store the session needs.
type Records interface {
	CurrentUser(ctx context.Context) (user.User, bool)
	PutCurrentUser(ctx context.Context, u user.User) error
	RemoveCurrentUser(ctx context.Context) error
	FindAccount(ctx context.Context, id string) (user.Account, bool)
	UpdateAccounts(ctx context.Context, fn func([]user.Account) ([]user.Account, error)) error
}

// Service serialises merge-on-write updates of the current user.
type Service struct {
	mu      sync.Mutex
	records Records
	log     zerolog.Logger
}

// NewService builds a session service over records.
func NewService(records Records, logger zerolog.Logger) *Service {
	return &Service{records: records, log: logger}
}

// CurrentUser returns the cached current user, if any.
func (s *Service) CurrentUser(ctx context.Context) (user.User, bool) {
	return s.records.CurrentUser(ctx)
}

// SetCurrentUser persists u as the current user. An empty photo is filled
// from the cached user or the registered entry with the same id. The
// registered entry, when present, is then merged with u.
func (s *Service) SetCurrentUser(ctx context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ProfilePhoto == "" {
		u.ProfilePhoto = s.existingPhoto(ctx, u.ID)
	}

	if err := s.records.PutCurrentUser(ctx, u); err != nil {
		return u, err
	}

	if u.ID == "" {
		return u, nil
	}
	if _, ok := s.records.FindAccount(ctx, u.ID); !ok {
		return u, nil
	}
	err := s.records.UpdateAccounts(ctx, func(accounts []user.Account) ([]user.Account, error) {
		for i := range accounts {
			if accounts[i].ID == u.ID {
				accounts[i].User = user.Merge(accounts[i].User, u)
				break
			}
		}
		return accounts, nil
	})
	return u, err
}

// existingPhoto looks for a stored photo belonging to id.
func (s *Service) existingPhoto(ctx context.Context, id string) string {
	if cached, ok := s.records.CurrentUser(ctx); ok && cached.ProfilePhoto != "" {
		if id == "" || cached.ID == id {
			return cached.ProfilePhoto
		}
	}
	if id == "" {
		return ""
	}
	if acct, ok := s.records.FindAccount(ctx, id); ok {
		return acct.ProfilePhoto
	}
	return ""
}

// ClearCurrentUser empties the slot. Registered entries are untouched.
func (s *Service) ClearCurrentUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.RemoveCurrentUser(ctx)
}

// FromProvider maps a provider user into the local shape. The display name
// falls back to the e-mail local part, then to "User".
func FromProvider(pu *auth.User) user.User {
	name := strings.TrimSpace(pu.DisplayName)
	if name == "" {
		if i := strings.Index(pu.Email, "@"); i > 0 {
			name = pu.Email[:i]
		}
	}
	if name == "" {
		name = "User"
	}

	var createdAt string
	if !pu.CreatedAt.IsZero() {
		createdAt = pu.CreatedAt.UTC().Format(time.RFC3339)
	}

	return user.User{
		ID:           pu.UID,
		Email:        pu.Email,
		Name:         name,
		ProfilePhoto: pu.PhotoURL,
		CreatedAt:    createdAt,
	}
}

// Apply writes one provider notification through the session. A nil user
// means signed out.
func (s *Service) Apply(ctx context.Context, pu *auth.User) {
	if pu == nil {
		if err := s.ClearCurrentUser(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear current user")
		}
		return
	}
	if _, err := s.SetCurrentUser(ctx, FromProvider(pu)); err != nil {
		s.log.Warn().Err(err).Str("user_id", pu.UID).Msg("failed to store current user")
	}
}

// Bind forwards provider notifications into the session until the returned
// function is called.
func (s *Service) Bind(p auth.Provider) func() {
	return p.Subscribe(func(pu *auth.User) {
		s.Apply(context.Background(), pu)
	})
}

// BootstrapResult describes the session state once bootstrap settled.
type BootstrapResult struct {
	User          user.User
	Authenticated bool
	TimedOut      bool
}

// Bootstrap binds the provider and waits for its first answer, at most
// timeout. Without an answer the session proceeds as unauthenticated. The
// binding stays active until the returned function is called.
func (s *Service) Bootstrap(ctx context.Context, p auth.Provider, timeout time.Duration) (BootstrapResult, func()) {
	if timeout <= 0 {
		timeout = DefaultBootstrapTimeout
	}

	first := make(chan *auth.User, 1)
	unsubscribe := p.Subscribe(func(pu *auth.User) {
		s.Apply(context.Background(), pu)
		select {
		case first <- pu:
		default:
		}
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case pu := <-first:
		if pu == nil {
			return BootstrapResult{}, unsubscribe
		}
		u, ok := s.CurrentUser(ctx)
		if !ok {
			u = FromProvider(pu)
		}
		return BootstrapResult{User: u, Authenticated: true}, unsubscribe
	case <-timer.C:
		s.log.Warn().Dur("timeout", timeout).Msg("auth provider did not answer, continuing unauthenticated")
		return BootstrapResult{TimedOut: true}, unsubscribe
	case <-ctx.Done():
		return BootstrapResult{TimedOut: true}, unsubscribe
	}
}
