// Package records persists mood entries, chat messages and user records as
// flat JSON lists under fixed keys of a kv.Store.
//
// Reads never fail: a missing, unreadable or corrupt value is treated as an
// empty collection. Writes log failures and hand the error back so callers
// can decide whether to care.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	"github.com/zhouzirui/mindfulme/backend/internal/storage/kv"
)

// Storage keys.
const (
	KeyCurrentUser = "mindfulme_current_user"
	KeyUsers       = "mindfulme_users"
	KeyMoodEntries = "mindfulme_mood_entries"
	KeyChatHistory = "mindfulme_chat_history"
)

// MaxChatMessages bounds the chat history; older messages are evicted first.
const MaxChatMessages = 100

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for ids and entry dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service is the record store. It serialises read-modify-write cycles so
// concurrent requests cannot drop each other's writes.
type Service struct {
	mu  sync.Mutex
	kv  kv.Store
	log zerolog.Logger
	now func() time.Time
}

// NewService wraps store.
func NewService(store kv.Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		kv:  store,
		log: logger,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// NewID returns a time-ordered identifier: unix milliseconds plus a random
// suffix so ids minted within the same millisecond stay unique.
func NewID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", t.UnixMilli(), suffix)
}

// ListMoodEntries returns every entry, most recently added first.
func (s *Service) ListMoodEntries(ctx context.Context) []mood.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[mood.Entry](ctx, s, KeyMoodEntries)
}

// AddMoodEntry assigns an id, fills in the timestamp and calendar day when
// the draft omits them, and prepends the entry.
func (s *Service) AddMoodEntry(ctx context.Context, draft mood.Draft) (mood.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ts := draft.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}
	date := draft.Date
	if date == "" {
		date = mood.DateOf(time.UnixMilli(ts).In(now.Location()))
	}

	entry := mood.Entry{
		ID:        NewID(now),
		Mood:      draft.Mood,
		Note:      draft.Note,
		Timestamp: ts,
		Date:      date,
	}

	entries := readList[mood.Entry](ctx, s, KeyMoodEntries)
	entries = append([]mood.Entry{entry}, entries...)
	return entry, s.write(ctx, KeyMoodEntries, entries)
}

// DeleteMoodEntry removes the entry with id. Unknown ids are ignored.
func (s *Service) DeleteMoodEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := readList[mood.Entry](ctx, s, KeyMoodEntries)
	filtered := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == len(entries) {
		return nil
	}
	return s.write(ctx, KeyMoodEntries, filtered)
}

// ClearMoodEntries drops the whole mood collection.
func (s *Service) ClearMoodEntries(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, KeyMoodEntries)
}

// ListChatMessages returns the chat history, oldest first.
func (s *Service) ListChatMessages(ctx context.Context) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[chat.Message](ctx, s, KeyChatHistory)
}

// AddChatMessage appends msg and keeps only the most recent MaxChatMessages.
func (s *Service) AddChatMessage(ctx context.Context, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := readList[chat.Message](ctx, s, KeyChatHistory)
	history = append(history, msg)
	if len(history) > MaxChatMessages {
		history = history[len(history)-MaxChatMessages:]
	}
	return s.write(ctx, KeyChatHistory, history)
}

// ClearChatHistory drops the whole chat collection.
func (s *Service) ClearChatHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, KeyChatHistory)
}

// CurrentUser reads the single-slot current user.
func (s *Service) CurrentUser(ctx context.Context) (user.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u *user.User
	if !s.read(ctx, KeyCurrentUser, &u) || u == nil {
		return user.User{}, false
	}
	return *u, true
}

// PutCurrentUser overwrites the single-slot current user.
func (s *Service) PutCurrentUser(ctx context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, KeyCurrentUser, u)
}

// RemoveCurrentUser empties the single slot.
func (s *Service) RemoveCurrentUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, KeyCurrentUser)
}

// Accounts returns the registered-user list including password hashes.
func (s *Service) Accounts(ctx context.Context) []user.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[user.Account](ctx, s, KeyUsers)
}

// ListUsers returns the registered users without credentials.
func (s *Service) ListUsers(ctx context.Context) []user.User {
	accounts := s.Accounts(ctx)
	users := make([]user.User, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, a.User)
	}
	return users
}

// FindAccount looks up a registered account by id.
func (s *Service) FindAccount(ctx context.Context, id string) (user.Account, bool) {
	for _, a := range s.Accounts(ctx) {
		if a.ID == id {
			return a, true
		}
	}
	return user.Account{}, false
}

// UpdateAccounts applies fn to the registered-user list atomically. When fn
// returns an error nothing is written.
func (s *Service) UpdateAccounts(ctx context.Context, fn func([]user.Account) ([]user.Account, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := readList[user.Account](ctx, s, KeyUsers)
	updated, err := fn(accounts)
	if err != nil {
		return err
	}
	return s.write(ctx, KeyUsers, updated)
}

// RemoveAccount deletes the registered account with id, if any.
func (s *Service) RemoveAccount(ctx context.Context, id string) error {
	return s.UpdateAccounts(ctx, func(accounts []user.Account) ([]user.Account, error) {
		kept := accounts[:0:0]
		for _, a := range accounts {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		return kept, nil
	})
}

// readList decodes a JSON list stored under key. Any failure yields an empty
// non-nil slice.
func readList[T any](ctx context.Context, s *Service, key string) []T {
	var items []T
	if !s.read(ctx, key, &items) || items == nil {
		return []T{}
	}
	return items
}

// read decodes key into dst and reports whether a usable value was found.
func (s *Service) read(ctx context.Context, key string, dst any) bool {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to read records, using empty default")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("corrupt records payload, using empty default")
		return false
	}
	return true
}

func (s *Service) write(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to encode records")
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to persist records")
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (s *Service) remove(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to remove records")
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
