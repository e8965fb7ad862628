package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// ArtifactRepository implements models.Repository[*models.Artifact] for the output history.
type ArtifactRepository struct {
	db *sql.DB
}

// NewArtifactRepository creates a new ArtifactRepository with the given database connection
func NewArtifactRepository(db *sql.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create inserts an artifact with a generated ID and sequence
func (r *ArtifactRepository) Create(artifact *models.Artifact) error {
	if err := artifact.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "artifacts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	artifact.SetID(shared.GenerateID())
	artifact.SetSequence(sequence)

	query := `
		INSERT INTO artifacts (id, sequence, feature, source_name, location, backend, content_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		artifact.ID(),
		sequence,
		string(artifact.Feature()),
		artifact.SourceName(),
		artifact.Location(),
		artifact.Backend(),
		artifact.ContentType(),
		artifact.Size(),
		artifact.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}

	return nil
}

// Get retrieves an artifact by ID, excluding deleted ones
func (r *ArtifactRepository) Get(id string) (*models.Artifact, error) {
	query := `
		SELECT id, sequence, feature, source_name, location, backend, content_type, size_bytes, created_at
		FROM artifacts
		WHERE id = ? AND deleted_at IS NULL
	`

	artifact, err := scanArtifact(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtifactNotFound, id)
	}
	return artifact, err
}

// Delete soft-deletes an artifact by ID
func (r *ArtifactRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE artifacts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrArtifactNotFound, id)
	}

	return nil
}

// List returns artifacts newest first.
//
// Supported criteria: "feature" (models.Feature or string) and "limit" (int).
func (r *ArtifactRepository) List(criteria map[string]any) ([]*models.Artifact, error) {
	query := `
		SELECT id, sequence, feature, source_name, location, backend, content_type, size_bytes, created_at
		FROM artifacts
		WHERE deleted_at IS NULL
	`

	args := []any{}

	switch feature := criteria["feature"].(type) {
	case models.Feature:
		if feature != "" {
			query += " AND feature = ?"
			args = append(args, string(feature))
		}
	case string:
		if feature != "" {
			query += " AND feature = ?"
			args = append(args, feature)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*models.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artifacts, nil
}

func scanArtifact(row scanner) (*models.Artifact, error) {
	var (
		id          string
		sequence    int
		feature     string
		sourceName  sql.NullString
		location    string
		backend     string
		contentType sql.NullString
		size        int64
		createdAt   time.Time
	)

	err := row.Scan(&id, &sequence, &feature, &sourceName, &location, &backend, &contentType, &size, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artifact: %w", err)
	}

	artifact := models.NewArtifact(models.Feature(feature), sourceName.String, location, backend, contentType.String, size)
	artifact.SetID(id)
	artifact.SetSequence(sequence)
	artifact.SetCreatedAt(createdAt)

	return artifact, nil
}
