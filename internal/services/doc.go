// Package services implements typed clients for the vmarker backend HTTP API.
//
// # Transport
//
// [APIService] owns the [http.Client] and performs every request. It prefixes paths with /api/v1,
// tags each request with an X-Request-Id, applies optional extra headers imported from a cURL
// command, and paces requests with a [rate.Limiter] when configured.
//
// File uploads are streamed as multipart forms through an [io.Pipe] so large videos never sit
// in memory. Structured configs are sent as JSON. Rendered videos come back as [models.Blob].
//
// # Resource Clients
//
// Each backend resource has an interface in services.go and a client implementing it:
//   - [ChapterBarClient] : themes, parse, auto/AI extraction, validation, generation
//   - [ProgressBarClient] : color presets, generation
//   - [ShowNotesClient], [SubtitleClient], [YouTubeClient] : text features
//   - [VideoClient] : upload, ASR, transcript, compose, cleanup
//   - [AuthClient] : session introspection
//
// [NewBackend] bundles them for callers that want everything.
//
// # Authentication
//
// Only [AuthClient] calls attach a bearer token, drawn from the configured [oauth2.TokenSource].
// Without a session the header is omitted and the backend decides.
//
// # Error Handling
//
// Non-2xx responses become [*shared.APIError] carrying the status and server message; it matches
// [shared.ErrAPIRequest] with errors.Is. There is no retry policy.
package services
