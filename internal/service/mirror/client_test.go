package mirror

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror/migrations"
)

func newClientWithMock(t *testing.T) (*Client, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return newClient(db, time.Second, zerolog.Nop()), mock, db
}

func TestConnectWithoutDSNIsUnavailable(t *testing.T) {
	c := Connect(context.Background(), Config{}, zerolog.Nop())

	assert.False(t, c.Connected())
	res := c.SaveMoodEntry(context.Background(), "u1", mood.Entry{ID: "1"})
	assert.False(t, res.Available)
	assert.ErrorIs(t, res.Reason, ErrNotConfigured)

	entries, res := c.RecentMoodEntries(context.Background(), "u1", 5)
	assert.Nil(t, entries)
	assert.False(t, res.Available)
	assert.NoError(t, c.Close())
}

func TestNilClientIsUnavailable(t *testing.T) {
	var c *Client
	assert.False(t, c.Probe(context.Background(), "u1").Available)
	assert.NoError(t, c.Close())
}

func TestSaveMoodEntry(t *testing.T) {
	c, mock, db := newClientWithMock(t)
	defer db.Close()

	e := mood.Entry{ID: "1-abc", Mood: "happy", Note: "walk", Timestamp: 1700000000000, Date: "2023-11-14"}
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+mood_entries.*ON CONFLICT \(id\) DO NOTHING$`).
		WithArgs(e.ID, "u1", e.Mood, e.Note, e.Timestamp, e.Date).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res := c.SaveMoodEntry(context.Background(), "u1", e)
	assert.True(t, res.Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMoodEntryFailureIsUnavailable(t *testing.T) {
	c, mock, db := newClientWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+mood_entries`).WillReturnError(errors.New("permission denied"))

	res := c.SaveMoodEntry(context.Background(), "u1", mood.Entry{ID: "1"})
	assert.False(t, res.Available)
	assert.ErrorContains(t, res.Reason, "permission denied")
}

func TestRecentMoodEntries(t *testing.T) {
	c, mock, db := newClientWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "mood", "note", "timestamp", "date"}).
		AddRow("2", "sad", "", int64(200), "2024-03-02").
		AddRow("1", "happy", "yay", int64(100), "2024-03-01")
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*mood,\s*note,\s*timestamp,\s*date\s+FROM\s+mood_entries\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER BY timestamp DESC\s+LIMIT \$2$`).
		WithArgs("u1", 5).
		WillReturnRows(rows)

	entries, res := c.RecentMoodEntries(context.Background(), "u1", 5)
	require.True(t, res.Available)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].ID)
	assert.Equal(t, "yay", entries[1].Note)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMoodEntriesQueryError(t *testing.T) {
	c, mock, db := newClientWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("index missing"))

	entries, res := c.RecentMoodEntries(context.Background(), "u1", 5)
	assert.Nil(t, entries)
	assert.False(t, res.Available)
}

func TestProbe(t *testing.T) {
	c, mock, db := newClientWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM mood_entries WHERE owner_id = \$1 LIMIT 1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	assert.True(t, c.Probe(context.Background(), "u1").Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletes(t *testing.T) {
	c, mock, db := newClientWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM mood_entries WHERE owner_id = \$1 AND id = \$2`).
		WithArgs("u1", "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM mood_entries WHERE owner_id = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.True(t, c.DeleteMoodEntry(context.Background(), "u1", "e1").Available)
	assert.True(t, c.DeleteOwnerEntries(context.Background(), "u1").Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsEmbedded(t *testing.T) {
	raw, err := fs.ReadFile(migrations.FS, "00001_mood_entries.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS mood_entries")
}
