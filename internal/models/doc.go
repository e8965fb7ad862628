// Package models defines wire types and local records for the vmarker client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring backend request and response bodies
//   - [Chapter], [ChapterList], [ChapterValidationResult] : chapter workflow
//   - [Theme], [ProgressBarColor] : color presets
//   - [VideoUploadResult], [ASRResult], [ComposeRequest] : video sessions
//   - [ShowNotesResult], [PolishResult], [YouTubeChaptersResult] : text features
//   - [AuthUser], [AuthCheckResponse] : session introspection
//   - [Blob] : opaque binary results
//
// 2. Persistent Entities: records kept in the local SQLite store
//   - [Artifact] : saved outputs, listed by the history command
//   - [VideoSession] : server upload sessions awaiting cleanup
//
// [File] abstracts upload sources so the same multipart code path serves files on disk
// and in-memory transcripts.
package models
