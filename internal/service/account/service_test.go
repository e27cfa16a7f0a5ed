package account

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror"
	"github.com/zhouzirui/mindfulme/backend/internal/service/records"
	"github.com/zhouzirui/mindfulme/backend/internal/service/session"
	"github.com/zhouzirui/mindfulme/backend/internal/storage/kv"
)

type fakeCleaner struct{ owners []string }

func (f *fakeCleaner) DeleteOwnerEntries(_ context.Context, ownerID string) mirror.Result {
	f.owners = append(f.owners, ownerID)
	return mirror.Result{Available: true}
}

type fakeSignOut struct{ calls int }

func (f *fakeSignOut) SignOut(context.Context) error {
	f.calls++
	return nil
}

var now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	records *records.Service
	session *session.Service
	cleaner *fakeCleaner
	signer  *fakeSignOut
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	rec := records.NewService(kv.NewMemoryStore(), zerolog.Nop(), records.WithClock(func() time.Time { return now }))
	sess := session.NewService(rec, zerolog.Nop())
	cleaner := &fakeCleaner{}
	signer := &fakeSignOut{}
	return fixture{
		svc:     NewService(rec, sess, cleaner, signer, zerolog.Nop()),
		records: rec,
		session: sess,
		cleaner: cleaner,
		signer:  signer,
	}
}

func (f fixture) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.records.UpdateAccounts(ctx, func(a []user.Account) ([]user.Account, error) {
		return append(a,
			user.Account{User: user.User{ID: "u1", Email: "a@x.com", Name: "Ana", CreatedAt: "2024-01-02T00:00:00Z"}},
			user.Account{User: user.User{ID: "u2", Email: "b@x.com"}},
		), nil
	}))
	_, err := f.session.SetCurrentUser(ctx, user.User{ID: "u1", Email: "a@x.com", Name: "Ana", ProfilePhoto: "data:image/png;base64,AA==", CreatedAt: "2024-01-02T00:00:00Z"})
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateProfile(ctx, ProfileUpdate{Name: "x"})
	assert.ErrorIs(t, err, ErrNoCurrentUser)

	f.signIn(t)
	u, err := f.svc.UpdateProfile(ctx, ProfileUpdate{Name: "   "})
	require.NoError(t, err)
	assert.Equal(t, "User", u.Name)
	assert.Equal(t, "data:image/png;base64,AA==", u.ProfilePhoto)

	u, err = f.svc.UpdateProfile(ctx, ProfileUpdate{Name: " Ana B ", ProfilePhoto: "data:new"})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", u.Name)
	assert.Equal(t, "data:new", u.ProfilePhoto)

	acct, ok := f.records.FindAccount(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, "Ana B", acct.Name)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t)

	_, err := f.records.AddMoodEntry(ctx, mood.Draft{Mood: "happy"})
	require.NoError(t, err)
	require.NoError(t, f.records.AddChatMessage(ctx, chat.Message{ID: "m1", Text: "hi", Sender: chat.SenderUser}))

	export := f.svc.Export(ctx)
	assert.Equal(t, "Ana", export.User.Name)
	assert.Equal(t, "2024-03-15T09:30:00.000Z", export.User.ExportDate)
	assert.Len(t, export.MoodEntries, 1)
	assert.Len(t, export.ChatHistory, 1)

	raw, err := json.Marshal(export)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"moodEntries"`)
	assert.Contains(t, string(raw), `"exportDate"`)
	assert.NotContains(t, string(raw), "passwordHash")

	assert.Equal(t, "mindfulme-data-2024-03-15.json", ExportFileName(now))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t)

	for _, d := range []string{"2024-03-14", "2024-03-15", "2024-03-15"} {
		_, err := f.records.AddMoodEntry(ctx, mood.Draft{Mood: "calm", Date: d})
		require.NoError(t, err)
	}
	for i, sender := range []chat.Sender{chat.SenderBot, chat.SenderUser, chat.SenderBot, chat.SenderUser} {
		require.NoError(t, f.records.AddChatMessage(ctx, chat.Message{ID: string(rune('a' + i)), Sender: sender}))
	}

	assert.Equal(t, Stats{MoodEntries: 3, DaysTracked: 2, ChatMessages: 2, MemberSince: "2024-01-02T00:00:00Z"}, f.svc.Stats(ctx))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t)

	_, err := f.records.AddMoodEntry(ctx, mood.Draft{Mood: "sad"})
	require.NoError(t, err)
	require.NoError(t, f.records.AddChatMessage(ctx, chat.Message{ID: "m1", Sender: chat.SenderUser}))

	assert.ErrorIs(t, f.svc.Delete(ctx, "delete"), ErrConfirmationRequired)
	assert.Len(t, f.records.ListMoodEntries(ctx), 1)

	require.NoError(t, f.svc.Delete(ctx, DeleteConfirmation))

	_, ok := f.session.CurrentUser(ctx)
	assert.False(t, ok)
	assert.Empty(t, f.records.ListMoodEntries(ctx))
	assert.Empty(t, f.records.ListChatMessages(ctx))
	users := f.records.ListUsers(ctx)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
	assert.Equal(t, []string{"u1"}, f.cleaner.owners)
	assert.Equal(t, 1, f.signer.calls)

	assert.ErrorIs(t, f.svc.Delete(ctx, DeleteConfirmation), ErrNoCurrentUser)
}
