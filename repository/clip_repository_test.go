package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"clipstream/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClip = model.Clip{
	Title:       "Night Drive",
	Description: "Late night synth",
	Genre:       "electronic",
	Duration:    "50s",
	AudioURL:    "https://example.com/night.wav",
}

const (
	incrementQuery = `UPDATE clips SET play_count = play_count + 1, updated_at = ? WHERE id = ?`
	readCountQuery = `SELECT play_count FROM clips WHERE id = ?`
	selectColumns  = `SELECT id, title, description, genre, duration, audio_url, play_count, created_at, updated_at FROM clips`
)

func newMockRepo(t *testing.T) (ClipRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewMySQLClipRepository(database), mock, func() { database.Close() }
}

func clipRows(mock sqlmock.Sqlmock) *sqlmock.Rows {
	return mock.NewRows([]string{
		"id", "title", "description", "genre", "duration",
		"audio_url", "play_count", "created_at", "updated_at",
	})
}

func expectIncrement(mock sqlmock.Sqlmock, id int64, newCount int64) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(incrementQuery)).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(readCountQuery)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"play_count"}).AddRow(newCount))
	mock.ExpectCommit()
}

func TestIncrementPlayCountIsSingleStatement(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	expectIncrement(mock, 1, 6)

	newCount, err := repo.IncrementPlayCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), newCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPlayCountSequential(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	const n = 5
	for i := int64(1); i <= n; i++ {
		expectIncrement(mock, 3, i)
	}

	for i := int64(1); i <= n; i++ {
		newCount, err := repo.IncrementPlayCount(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, i, newCount)
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPlayCountNotFound(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(incrementQuery)).
		WithArgs(sqlmock.AnyArg(), int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.IncrementPlayCount(context.Background(), 999)
	assert.ErrorIs(t, err, ErrClipNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPlayCountRollsBackOnReadFailure(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(incrementQuery)).
		WithArgs(sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(readCountQuery)).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.IncrementPlayCount(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrClipNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClipByID(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+` WHERE id = ?`)).
		WithArgs(int64(2)).
		WillReturnRows(clipRows(mock).
			AddRow(2, "Urban Beat", "Modern electronic beat", "electronic", "45s",
				"https://example.com/urban.wav", 3, now, now))

	clip, err := repo.GetClipByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), clip.ID)
	assert.Equal(t, "Urban Beat", clip.Title)
	assert.Equal(t, int64(3), clip.PlayCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClipByIDNotFound(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+` WHERE id = ?`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetClipByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrClipNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllClipsCreationOrder(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + ` ORDER BY id ASC`)).
		WillReturnRows(clipRows(mock).
			AddRow(1, "Ocean Waves", "", "ambient", "30s", "https://example.com/a.wav", 0, now, now).
			AddRow(2, "Urban Beat", "", "electronic", "45s", "https://example.com/b.wav", 0, now, now).
			AddRow(3, "Jazz Piano", "", "jazz", "35s", "https://example.com/c.wav", 0, now, now))

	clips, err := repo.GetAllClips(context.Background())
	require.NoError(t, err)
	require.Len(t, clips, 3)
	for i, clip := range clips {
		assert.Equal(t, int64(i+1), clip.ID)
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPopularClipsOrderedByPlayCount(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+` ORDER BY play_count DESC, id ASC LIMIT ?`)).
		WithArgs(2).
		WillReturnRows(clipRows(mock).
			AddRow(3, "Jazz Piano", "", "jazz", "35s", "https://example.com/c.wav", 9, now, now).
			AddRow(1, "Ocean Waves", "", "ambient", "30s", "https://example.com/a.wav", 4, now, now))

	clips, err := repo.GetPopularClips(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, clips, 2)
	assert.Equal(t, int64(9), clips[0].PlayCount)
	assert.Equal(t, int64(4), clips[1].PlayCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClip(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO clips (title, description, genre, duration, audio_url, play_count, created_at, updated_at)`)).
		WithArgs("Night Drive", "Late night synth", "electronic", "50s",
			"https://example.com/night.wav", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.CreateClip(context.Background(), &testClip)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregates(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM clips`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(play_count), 0) FROM clips`)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(42))

	count, err := repo.CountClips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	total, err := repo.TotalPlayCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)

	require.NoError(t, mock.ExpectationsWereMet())
}
