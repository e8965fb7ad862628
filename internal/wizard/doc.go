// Package wizard holds the multi-step flows behind each feature: the chapter bar
// wizard and its steps, plus the single-screen progress bar, show notes,
// subtitle polish, and YouTube flows.
//
// Each flow owns its state behind a mutex and calls the backend through the
// services interfaces. Nothing here renders; the TUI and CLI drive these types.
package wizard
