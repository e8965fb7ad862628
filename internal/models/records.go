package models

import (
	"fmt"
	"time"
)

// Artifact records an output written by the client (a rendered video, notes, a polished SRT).
type Artifact struct {
	id          string
	sequence    int
	feature     Feature
	sourceName  string
	location    string
	backend     string
	contentType string
	size        int64
	createdAt   time.Time
}

// NewArtifact creates an [Artifact] stamped with the current time.
func NewArtifact(feature Feature, sourceName, location, backend, contentType string, size int64) *Artifact {
	return &Artifact{
		feature:     feature,
		sourceName:  sourceName,
		location:    location,
		backend:     backend,
		contentType: contentType,
		size:        size,
		createdAt:   time.Now(),
	}
}

func (a *Artifact) ID() string               { return a.id }
func (a *Artifact) Sequence() int            { return a.sequence }
func (a *Artifact) Feature() Feature         { return a.feature }
func (a *Artifact) SourceName() string       { return a.sourceName }
func (a *Artifact) Location() string         { return a.location }
func (a *Artifact) Backend() string          { return a.backend }
func (a *Artifact) ContentType() string      { return a.contentType }
func (a *Artifact) Size() int64              { return a.size }
func (a *Artifact) CreatedAt() time.Time     { return a.createdAt }
func (a *Artifact) SetID(id string)          { a.id = id }
func (a *Artifact) SetSequence(seq int)      { a.sequence = seq }
func (a *Artifact) SetCreatedAt(t time.Time) { a.createdAt = t }

// Validate checks required fields.
func (a *Artifact) Validate() error {
	if a.feature == "" {
		return fmt.Errorf("artifact feature is required")
	}
	if a.location == "" {
		return fmt.Errorf("artifact location is required")
	}
	if a.backend == "" {
		return fmt.Errorf("artifact backend is required")
	}
	return nil
}

// SessionStatus tracks whether a server video session still holds resources.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionCleaned SessionStatus = "cleaned"
)

// VideoSession is the local record of a server-side upload session.
type VideoSession struct {
	id         string
	sequence   int
	sourceName string
	info       VideoUploadResult
	status     SessionStatus
	createdAt  time.Time
	updatedAt  time.Time
}

// NewVideoSession records a freshly uploaded video.
func NewVideoSession(sourceName string, info VideoUploadResult) *VideoSession {
	now := time.Now()
	return &VideoSession{
		id:         info.SessionID,
		sourceName: sourceName,
		info:       info,
		status:     SessionActive,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (s *VideoSession) ID() string                 { return s.id }
func (s *VideoSession) Sequence() int              { return s.sequence }
func (s *VideoSession) SourceName() string         { return s.sourceName }
func (s *VideoSession) Info() VideoUploadResult    { return s.info }
func (s *VideoSession) Status() SessionStatus      { return s.status }
func (s *VideoSession) CreatedAt() time.Time       { return s.createdAt }
func (s *VideoSession) UpdatedAt() time.Time       { return s.updatedAt }
func (s *VideoSession) SetSequence(seq int)        { s.sequence = seq }
func (s *VideoSession) SetStatus(st SessionStatus) { s.status = st }
func (s *VideoSession) SetCreatedAt(t time.Time)   { s.createdAt = t }
func (s *VideoSession) SetUpdatedAt(t time.Time)   { s.updatedAt = t }

// Validate checks required fields.
func (s *VideoSession) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session id is required")
	}
	if s.sourceName == "" {
		return fmt.Errorf("session source name is required")
	}
	return nil
}

// AuthSession is a signed-in session issued by the hosted auth provider.
type AuthSession struct {
	User         AuthUser
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past its expiry, with leeway to spare.
func (s *AuthSession) Expired(now time.Time, leeway time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}
