package tasks

import "fmt"

// ProgressUpdate represents a progress event during video processing.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase   // Operation phase
	Percent float64 // Overall completion, 0 to 100, never decreasing within a run
	Message string  // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	PhaseUpload Phase = iota
	PhaseASR
	PhaseChapterBar
	PhaseProgressBar
	PhaseShowNotes
	PhaseSubtitle
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseUpload:
		return "upload"
	case PhaseASR:
		return "asr"
	case PhaseChapterBar:
		return "chapter_bar"
	case PhaseProgressBar:
		return "progress_bar"
	case PhaseShowNotes:
		return "show_notes"
	case PhaseSubtitle:
		return "subtitle"
	case PhaseDone:
		return "done"
	default:
		return ""
	}
}

func uploadUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseUpload,
		Message: fmt.Sprintf("Uploading %s...", name),
	}
}

func asrStartUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseASR,
		Percent: asrStart,
		Message: "Transcribing speech...",
	}
}

func asrDoneUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseASR,
		Percent: asrDone,
		Message: fmt.Sprintf("Transcribed %d subtitles", count),
	}
}

func featureStartUpdate(phase Phase, percent float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Percent: percent,
		Message: startMessages[phase],
	}
}

func featureDoneUpdate(phase Phase, percent float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Percent: percent,
		Message: fmt.Sprintf("Finished %s", phase),
	}
}

func doneUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDone,
		Percent: 100,
		Message: "Processing complete",
	}
}

var startMessages = map[Phase]string{
	PhaseChapterBar:  "Extracting chapters and composing chapter bar...",
	PhaseProgressBar: "Composing progress bar...",
	PhaseShowNotes:   "Generating show notes...",
	PhaseSubtitle:    "Polishing subtitles...",
}
