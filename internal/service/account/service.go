// Package account implements profile maintenance, data export, statistics
// and account deletion for the current user.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/analysis/history"
	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror"
)

// DeleteConfirmation must be echoed back to delete an account.
const DeleteConfirmation = "DELETE"

var (
	ErrNoCurrentUser        = errors.New("no user is signed in")
	ErrConfirmationRequired = errors.New(`type "DELETE" to confirm account deletion`)
)

// Records is the slice of the record store used here.
type Records interface {
	ListMoodEntries(ctx context.Context) []mood.Entry
	ListChatMessages(ctx context.Context) []chat.Message
	ClearMoodEntries(ctx context.Context) error
	ClearChatHistory(ctx context.Context) error
	RemoveAccount(ctx context.Context, id string) error
	Now() time.Time
}

// Session is the current-user cache.
type Session interface {
	CurrentUser(ctx context.Context) (user.User, bool)
	SetCurrentUser(ctx context.Context, u user.User) (user.User, error)
	ClearCurrentUser(ctx context.Context) error
}

// MirrorCleaner removes an owner's remote entries.
type MirrorCleaner interface {
	DeleteOwnerEntries(ctx context.Context, ownerID string) mirror.Result
}

// SignOuter ends the provider session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// ProfileUpdate carries editable profile fields. An empty photo keeps the
// stored one.
type ProfileUpdate struct {
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// ExportUser identifies whose data an export holds.
type ExportUser struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ExportDate string `json:"exportDate"`
}

// Export is the downloadable copy of a user's data.
type Export struct {
	User        ExportUser     `json:"user"`
	MoodEntries []mood.Entry   `json:"moodEntries"`
	ChatHistory []chat.Message `json:"chatHistory"`
}

// Stats are the numbers shown on the account page.
type Stats struct {
	MoodEntries  int    `json:"moodEntries"`
	DaysTracked  int    `json:"daysTracked"`
	ChatMessages int    `json:"chatMessages"`
	MemberSince  string `json:"memberSince,omitempty"`
}

// Service groups account operations.
type Service struct {
	records  Records
	session  Session
	mirror   MirrorCleaner
	provider SignOuter
	log      zerolog.Logger
}

// NewService wires the account service. mirror and provider may be nil.
func NewService(records Records, session Session, m MirrorCleaner, provider SignOuter, logger zerolog.Logger) *Service {
	return &Service{
		records:  records,
		session:  session,
		mirror:   m,
		provider: provider,
		log:      logger,
	}
}

// UpdateProfile renames the current user ("User" when blank) and replaces
// the photo when one is given.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (user.User, error) {
	current, ok := s.session.CurrentUser(ctx)
	if !ok {
		return user.User{}, ErrNoCurrentUser
	}

	current.Name = strings.TrimSpace(update.Name)
	if current.Name == "" {
		current.Name = "User"
	}
	if update.ProfilePhoto != "" {
		current.ProfilePhoto = update.ProfilePhoto
	}
	return s.session.SetCurrentUser(ctx, current)
}

// Export snapshots the current user's data.
func (s *Service) Export(ctx context.Context) Export {
	current, _ := s.session.CurrentUser(ctx)
	return Export{
		User: ExportUser{
			Name:       current.Name,
			Email:      current.Email,
			ExportDate: s.records.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		},
		MoodEntries: s.records.ListMoodEntries(ctx),
		ChatHistory: s.records.ListChatMessages(ctx),
	}
}

// Now is the record store's clock.
func (s *Service) Now() time.Time {
	return s.records.Now()
}

// ExportFileName names the download for an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("mindfulme-data-%s.json", t.UTC().Format(mood.DateLayout))
}

// Stats counts entries, tracked days and messages the user wrote.
func (s *Service) Stats(ctx context.Context) Stats {
	entries := s.records.ListMoodEntries(ctx)

	var sent int
	for _, msg := range s.records.ListChatMessages(ctx) {
		if msg.Sender == chat.SenderUser {
			sent++
		}
	}

	current, _ := s.session.CurrentUser(ctx)
	return Stats{
		MoodEntries:  len(entries),
		DaysTracked:  history.DaysTracked(entries),
		ChatMessages: sent,
		MemberSince:  current.CreatedAt,
	}
}

// Delete erases the current user's data and registration, then signs out.
// Remote cleanup is best effort.
func (s *Service) Delete(ctx context.Context, confirmation string) error {
	if confirmation != DeleteConfirmation {
		return ErrConfirmationRequired
	}
	current, ok := s.session.CurrentUser(ctx)
	if !ok {
		return ErrNoCurrentUser
	}

	if s.mirror != nil {
		if res := s.mirror.DeleteOwnerEntries(ctx, current.ID); !res.Available {
			s.log.Warn().Err(res.Reason).Str("user_id", current.ID).Msg("remote entries not deleted")
		}
	}

	err := errors.Join(
		s.records.ClearMoodEntries(ctx),
		s.records.ClearChatHistory(ctx),
		s.records.RemoveAccount(ctx, current.ID),
		s.session.ClearCurrentUser(ctx),
	)

	if s.provider != nil {
		if signOutErr := s.provider.SignOut(ctx); signOutErr != nil {
			s.log.Warn().Err(signOutErr).Msg("provider sign-out failed")
		}
	}

	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.log.Info().Str("user_id", current.ID).Msg("account deleted")
	return nil
}
