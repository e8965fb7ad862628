// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The main menu leads to one screen per feature:
//  1. [ChapterBarView] : the five step chapter bar wizard, with quick mode
//  2. [VideoView] : upload a video, pick features, watch processing progress
//  3. [ShowNotesView] : generate, copy, and save show notes
//  4. [YouTubeView] : chapters from a YouTube link, copied to the clipboard
//
// Each screen wraps a state type from the wizard or tasks package and talks to the backend
// through tea.Cmd functions, so no network call runs on the UI goroutine. Updates from
// background work (editor validation, processing progress) arrive through channels read
// by a waiting command, the same way for every screen.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
