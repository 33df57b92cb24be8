package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clipstream/logger"
	"clipstream/model"
)

// ErrClipNotFound is returned when the referenced clip id does not exist.
var ErrClipNotFound = errors.New("clip not found")

// ClipRepository defines the interface for clip data operations.
type ClipRepository interface {
	CreateClip(ctx context.Context, clip *model.Clip) (int64, error)
	GetClipByID(ctx context.Context, id int64) (*model.Clip, error)
	GetAllClips(ctx context.Context) ([]*model.Clip, error)
	GetPopularClips(ctx context.Context, limit int) ([]*model.Clip, error)
	// IncrementPlayCount atomically adds 1 to the clip's play count and
	// returns the new value. The increment is a single conditional UPDATE
	// against the store, so concurrent calls for the same id never lose
	// updates and calls for different ids only contend at the row level.
	IncrementPlayCount(ctx context.Context, id int64) (int64, error)
	CountClips(ctx context.Context) (int64, error)
	TotalPlayCount(ctx context.Context) (int64, error)
}

// mysqlClipRepository implements ClipRepository for MySQL.
type mysqlClipRepository struct {
	DB *sql.DB
}

// NewMySQLClipRepository creates a new instance of mysqlClipRepository.
func NewMySQLClipRepository(database *sql.DB) ClipRepository {
	return &mysqlClipRepository{DB: database}
}

const clipColumns = `id, title, description, genre, duration, audio_url, play_count, created_at, updated_at`

func scanClip(row interface{ Scan(...interface{}) error }) (*model.Clip, error) {
	clip := &model.Clip{}
	err := row.Scan(&clip.ID, &clip.Title, &clip.Description, &clip.Genre, &clip.Duration,
		&clip.AudioURL, &clip.PlayCount, &clip.CreatedAt, &clip.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return clip, nil
}

// CreateClip adds a new clip to the database.
func (r *mysqlClipRepository) CreateClip(ctx context.Context, clip *model.Clip) (int64, error) {
	query := `INSERT INTO clips (title, description, genre, duration, audio_url, play_count, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, 0, ?, ?)`

	now := time.Now()
	res, err := r.DB.ExecContext(ctx, query,
		clip.Title, clip.Description, clip.Genre, clip.Duration, clip.AudioURL, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateClip: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateClip: %w", err)
	}
	logger.Info("Clip created", logger.Int64("clipId", id), logger.String("title", clip.Title))
	return id, nil
}

// GetClipByID retrieves a clip by its ID.
func (r *mysqlClipRepository) GetClipByID(ctx context.Context, id int64) (*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE id = ?`
	clip, err := scanClip(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClipNotFound
		}
		return nil, fmt.Errorf("failed to scan clip by ID %d: %w", id, err)
	}
	return clip, nil
}

// GetAllClips retrieves all clips in creation order. Auto-increment ids
// are assigned in insertion order, so the ordering is stable across calls.
func (r *mysqlClipRepository) GetAllClips(ctx context.Context) ([]*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	return collectClips(rows)
}

// GetPopularClips retrieves up to limit clips ordered by descending play
// count, ties broken by creation order.
func (r *mysqlClipRepository) GetPopularClips(ctx context.Context, limit int) ([]*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips ORDER BY play_count DESC, id ASC LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular clips: %w", err)
	}
	defer rows.Close()

	return collectClips(rows)
}

func collectClips(rows *sql.Rows) ([]*model.Clip, error) {
	clips := make([]*model.Clip, 0)
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip row: %w", err)
		}
		clips = append(clips, clip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during clip rows iteration: %w", err)
	}

	return clips, nil
}

// IncrementPlayCount performs the increment as one declarative UPDATE.
// There is no read-modify-write round trip: the arithmetic happens inside
// the store, and the new value is read back under the row lock the UPDATE
// acquired, inside the same transaction. A nonexistent id affects zero
// rows and mutates nothing.
func (r *mysqlClipRepository) IncrementPlayCount(ctx context.Context, id int64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for IncrementPlayCount: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE clips SET play_count = play_count + 1, updated_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return 0, fmt.Errorf("failed to execute IncrementPlayCount for clip ID %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for IncrementPlayCount: %w", err)
	}
	if affected == 0 {
		return 0, ErrClipNotFound
	}

	var newCount int64
	if err := tx.QueryRowContext(ctx,
		`SELECT play_count FROM clips WHERE id = ?`, id).Scan(&newCount); err != nil {
		return 0, fmt.Errorf("failed to read play count for clip ID %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit IncrementPlayCount for clip ID %d: %w", id, err)
	}

	return newCount, nil
}

// CountClips returns the total number of clips.
func (r *mysqlClipRepository) CountClips(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM clips`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clips: %w", err)
	}
	return count, nil
}

// TotalPlayCount returns the sum of play counts across all clips.
func (r *mysqlClipRepository) TotalPlayCount(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(play_count), 0) FROM clips`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum play counts: %w", err)
	}
	return total, nil
}
