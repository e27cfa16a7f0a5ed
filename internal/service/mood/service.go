// Package mood records mood submissions locally and, when a remote mirror is
// connected, remotely too.
package mood

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/analysis/history"
	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror"
)

// DefaultRecentLimit is how many entries Recent returns by default.
const DefaultRecentLimit = 5

var (
	ErrInvalidMood = errors.New("unknown mood")
	ErrSaveFailed  = errors.New("failed to save mood entry")
)

// Mode tells where an operation was served from.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Records is the local side of mood storage.
type Records interface {
	AddMoodEntry(ctx context.Context, draft mood.Draft) (mood.Entry, error)
	ListMoodEntries(ctx context.Context) []mood.Entry
	DeleteMoodEntry(ctx context.Context, id string) error
}

// Mirror is the remote side of mood storage.
type Mirror interface {
	SaveMoodEntry(ctx context.Context, ownerID string, e mood.Entry) mirror.Result
	RecentMoodEntries(ctx context.Context, ownerID string, limit int) ([]mood.Entry, mirror.Result)
	DeleteMoodEntry(ctx context.Context, ownerID, id string) mirror.Result
}

// Tracked is the outcome of a submission.
type Tracked struct {
	Entry mood.Entry `json:"entry"`
	Mode  Mode       `json:"mode"`
}

// Option customises a Service.
type Option func(*Service)

// WithClock sets the clock used for analytics.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service coordinates local records and the optional mirror.
type Service struct {
	records Records
	mirror  Mirror
	log     zerolog.Logger
	now     func() time.Time
}

// NewService builds the tracker. mirror may be nil.
func NewService(records Records, m Mirror, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		records: records,
		mirror:  m,
		log:     logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track validates and stores a submission. The entry always goes to local
// storage so analytics sees it, and to the mirror when ownerID is known.
// Only when both writes fail is an error returned.
func (s *Service) Track(ctx context.Context, ownerID, label, note string) (Tracked, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if !mood.Valid(label) {
		return Tracked{}, fmt.Errorf("%w: %q", ErrInvalidMood, label)
	}

	entry, localErr := s.records.AddMoodEntry(ctx, mood.Draft{
		Mood: label,
		Note: strings.TrimSpace(note),
	})

	mode := ModeLocal
	if s.mirror != nil && ownerID != "" {
		res := s.mirror.SaveMoodEntry(ctx, ownerID, entry)
		if res.Available {
			mode = ModeRemote
		} else {
			s.log.Debug().Err(res.Reason).Msg("mood entry kept local only")
		}
	}

	if localErr != nil && mode != ModeRemote {
		s.log.Error().Err(localErr).Msg("mood entry was not stored anywhere")
		return Tracked{}, fmt.Errorf("%w: %w", ErrSaveFailed, localErr)
	}
	return Tracked{Entry: entry, Mode: mode}, nil
}

// Recent returns the latest entries, remote first with a local fallback.
func (s *Service) Recent(ctx context.Context, ownerID string, limit int) ([]mood.Entry, Mode) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	if s.mirror != nil && ownerID != "" {
		entries, res := s.mirror.RecentMoodEntries(ctx, ownerID, limit)
		if res.Available {
			return entries, ModeRemote
		}
	}

	entries := s.records.ListMoodEntries(ctx)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, ModeLocal
}

// List returns every locally stored entry, newest first.
func (s *Service) List(ctx context.Context) []mood.Entry {
	return s.records.ListMoodEntries(ctx)
}

// Delete removes an entry locally and, best effort, from the mirror.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.records.DeleteMoodEntry(ctx, id); err != nil {
		return err
	}
	if s.mirror != nil && ownerID != "" {
		s.mirror.DeleteMoodEntry(ctx, ownerID, id)
	}
	return nil
}

// Analytics summarises the local history as of now.
func (s *Service) Analytics(ctx context.Context) history.Summary {
	return history.Summarize(s.records.ListMoodEntries(ctx), s.now())
}
