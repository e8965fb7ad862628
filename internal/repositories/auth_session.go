package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
)

// AuthSessionRepository persists sign-in sessions and pending PKCE verifiers.
//
// It satisfies auth.SessionStore.
type AuthSessionRepository struct {
	db *sql.DB
}

// NewAuthSessionRepository creates a new AuthSessionRepository with the given database connection
func NewAuthSessionRepository(db *sql.DB) *AuthSessionRepository {
	return &AuthSessionRepository{db: db}
}

// LoadSession returns nil, nil when host has no session.
func (r *AuthSessionRepository) LoadSession(host string) (*models.AuthSession, error) {
	query := `
		SELECT user_id, email, role, access_token, refresh_token, token_type, expires_at
		FROM auth_sessions
		WHERE host = ?
	`

	var (
		s            models.AuthSession
		email        sql.NullString
		refreshToken sql.NullString
		expiresAt    sql.NullTime
	)

	err := r.db.QueryRow(query, host).Scan(&s.User.ID, &email, &s.User.Role, &s.AccessToken, &refreshToken, &s.TokenType, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s.User.Email = email.String
	s.User.Aud = "authenticated"
	s.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		s.ExpiresAt = expiresAt.Time
	}

	return &s, nil
}

// SaveSession inserts or replaces the session for host.
func (r *AuthSessionRepository) SaveSession(host string, s *models.AuthSession) error {
	if s == nil {
		return fmt.Errorf("session is required")
	}

	var expiresAt sql.NullTime
	if !s.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: s.ExpiresAt, Valid: true}
	}

	role := s.User.Role
	if role == "" {
		role = "authenticated"
	}
	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}

	now := time.Now()
	query := `
		INSERT INTO auth_sessions (host, user_id, email, role, access_token, refresh_token, token_type, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			role = excluded.role,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, host, s.User.ID, s.User.Email, role, s.AccessToken, s.RefreshToken, tokenType, expiresAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession forgets host's session. Missing rows are not an error.
func (r *AuthSessionRepository) DeleteSession(host string) error {
	if _, err := r.db.Exec(`DELETE FROM auth_sessions WHERE host = ?`, host); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveVerifier replaces any pending verifier for host.
func (r *AuthSessionRepository) SaveVerifier(host, verifier string) error {
	_, err := r.db.Exec(`INSERT OR REPLACE INTO auth_flows (host, code_verifier, created_at) VALUES (?, ?, ?)`,
		host, verifier, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save verifier: %w", err)
	}
	return nil
}

// TakeVerifier returns and removes the pending verifier for host, or "" when there is none.
func (r *AuthSessionRepository) TakeVerifier(host string) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var verifier string
	err = tx.QueryRow(`SELECT code_verifier FROM auth_flows WHERE host = ?`, host).Scan(&verifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load verifier: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM auth_flows WHERE host = ?`, host); err != nil {
		return "", fmt.Errorf("failed to delete verifier: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit verifier transaction: %w", err)
	}
	return verifier, nil
}
