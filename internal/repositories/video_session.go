package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// VideoSessionRepository implements models.Repository[*models.VideoSession].
//
// Rows are keyed by the server's session id so a later run can clean up sessions
// an interrupted run left behind.
type VideoSessionRepository struct {
	db *sql.DB
}

// NewVideoSessionRepository creates a new VideoSessionRepository with the given database connection
func NewVideoSessionRepository(db *sql.DB) *VideoSessionRepository {
	return &VideoSessionRepository{db: db}
}

// Create records an uploaded session
func (r *VideoSessionRepository) Create(session *models.VideoSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "video_sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	session.SetSequence(sequence)

	info := session.Info()
	query := `
		INSERT INTO video_sessions (id, sequence, source_name, duration, width, height, fps, file_size_mb, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		session.ID(),
		sequence,
		session.SourceName(),
		info.Duration,
		info.Width,
		info.Height,
		info.FPS,
		info.FileSizeMB,
		string(session.Status()),
		session.CreatedAt(),
		session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert video session: %w", err)
	}

	return nil
}

// Get retrieves a session by its server id
func (r *VideoSessionRepository) Get(id string) (*models.VideoSession, error) {
	query := `
		SELECT id, sequence, source_name, duration, width, height, fps, file_size_mb, status, created_at, updated_at
		FROM video_sessions
		WHERE id = ?
	`

	session, err := scanVideoSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return session, err
}

// MarkCleaned flags a session whose server resources were released
func (r *VideoSessionRepository) MarkCleaned(id string) error {
	result, err := r.db.Exec(`UPDATE video_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(models.SessionCleaned), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update video session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	return nil
}

// Delete removes a session record
func (r *VideoSessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM video_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	return nil
}

// List returns sessions oldest first. Supported criteria: "status" (models.SessionStatus).
func (r *VideoSessionRepository) List(criteria map[string]any) ([]*models.VideoSession, error) {
	query := `
		SELECT id, sequence, source_name, duration, width, height, fps, file_size_mb, status, created_at, updated_at
		FROM video_sessions
	`

	args := []any{}
	if status, ok := criteria["status"].(models.SessionStatus); ok && status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query video sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.VideoSession
	for rows.Next() {
		session, err := scanVideoSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Active returns sessions that have not been cleaned up
func (r *VideoSessionRepository) Active() ([]*models.VideoSession, error) {
	return r.List(map[string]any{"status": models.SessionActive})
}

func scanVideoSession(row scanner) (*models.VideoSession, error) {
	var (
		info       models.VideoUploadResult
		sequence   int
		sourceName string
		status     string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&info.SessionID, &sequence, &sourceName, &info.Duration, &info.Width, &info.Height,
		&info.FPS, &info.FileSizeMB, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan video session: %w", err)
	}

	session := models.NewVideoSession(sourceName, info)
	session.SetSequence(sequence)
	session.SetStatus(models.SessionStatus(status))
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)

	return session, nil
}
