// Package tasks orchestrates the video processing flow with real-time progress reporting.
//
// # Core Operations
//
// [VideoEngine] runs in two phases:
//
//  1. [VideoEngine.Upload] : create a server-side session
//     - Checks extension and size locally, and duration when a [Prober] is set
//     - Uploads the file; sessions longer than five minutes are cleaned up and rejected
//     - Records the session through an optional [SessionRecorder]
//
//  2. [VideoEngine.Process] : produce the selected features
//     - Runs speech recognition once when any transcript-based feature is selected
//     - Runs chapter bar, progress bar, show notes, and subtitle polish in that order
//     - Aborts on the first failure and discards partial results
//
// [VideoEngine.Reset] cleans up the server session.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on a caller-supplied channel. Sends never
// block; an update is dropped when the channel is full. Percentages never decrease
// within a run and a successful run ends at 100.
package tasks
