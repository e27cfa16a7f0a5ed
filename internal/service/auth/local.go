package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
)

// AccountStore is the slice of the record store the local provider needs.
type AccountStore interface {
	Accounts(ctx context.Context) []user.Account
	UpdateAccounts(ctx context.Context, fn func([]user.Account) ([]user.Account, error)) error
	CurrentUser(ctx context.Context) (user.User, bool)
}

// LocalProvider authenticates against the registered-user list. Passwords
// are stored as bcrypt hashes.
type LocalProvider struct {
	store AccountStore
	log   zerolog.Logger
	now   func() time.Time

	mu        sync.Mutex
	current   *User
	listeners map[int]func(*User)
	nextID    int
}

// NewLocalProvider restores the signed-in user from the current-user slot
// when it still names a registered account.
func NewLocalProvider(ctx context.Context, store AccountStore, logger zerolog.Logger) *LocalProvider {
	p := &LocalProvider{
		store:     store,
		log:       logger,
		now:       time.Now,
		listeners: make(map[int]func(*User)),
	}

	if cached, ok := store.CurrentUser(ctx); ok && cached.ID != "" {
		for _, acct := range store.Accounts(ctx) {
			if acct.ID == cached.ID {
				p.current = toProviderUser(acct.User)
				break
			}
		}
	}
	return p
}

// SignUp registers a new account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = localPart(email)
	}

	acct := user.Account{
		User: user.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			CreatedAt: p.now().UTC().Format(time.RFC3339),
		},
		PasswordHash: string(hash),
	}

	err = p.store.UpdateAccounts(ctx, func(accounts []user.Account) ([]user.Account, error) {
		for _, existing := range accounts {
			if normalizeEmail(existing.Email) == email {
				return nil, ErrEmailTaken
			}
		}
		return append(accounts, acct), nil
	})
	if err != nil {
		return nil, err
	}

	p.log.Info().Str("user_id", acct.ID).Msg("account registered")
	u := toProviderUser(acct.User)
	p.setCurrent(u)
	return u, nil
}

// SignIn verifies the credentials and signs the account in.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	for _, acct := range p.store.Accounts(ctx) {
		if normalizeEmail(acct.Email) != email {
			continue
		}
		if acct.PasswordHash == "" {
			break
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
			break
		}
		u := toProviderUser(acct.User)
		p.setCurrent(u)
		return u, nil
	}

	p.log.Warn().Str("email", email).Msg("sign-in rejected")
	return nil, ErrInvalidCredentials
}

// SignOut forgets the signed-in user and notifies listeners with nil.
func (p *LocalProvider) SignOut(context.Context) error {
	p.setCurrent(nil)
	return nil
}

// Current returns the signed-in user, or nil.
func (p *LocalProvider) Current() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Subscribe registers fn and delivers the current state synchronously.
func (p *LocalProvider) Subscribe(fn func(*User)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// setCurrent swaps the signed-in user and notifies listeners outside the
// lock, in registration order.
func (p *LocalProvider) setCurrent(u *User) {
	p.mu.Lock()
	p.current = u
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(*User), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func toProviderUser(u user.User) *User {
	created, _ := time.Parse(time.RFC3339, u.CreatedAt)
	return &User{
		UID:         u.ID,
		Email:       u.Email,
		DisplayName: u.Name,
		PhotoURL:    u.ProfilePhoto,
		CreatedAt:   created,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
