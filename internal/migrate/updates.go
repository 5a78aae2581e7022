package migrate

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchTracks
	ResolveTracks
	Decide
	CreatePlaylist
	InsertTracks
	CopyCover
	Reconcile
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case ResolveTracks:
		return "resolve_tracks"
	case Decide:
		return "decide"
	case CreatePlaylist:
		return "create_playlist"
	case InsertTracks:
		return "insert_tracks"
	case CopyCover:
		return "copy_cover"
	case Reconcile:
		return "reconcile"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func fetchPlaylistsUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlists from %s...", name),
	}
}

func fetchTracksUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d tracks from %s", count, name),
	}
}

func resolveTrackUpdate(step, total int, track, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, track),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist: %s", name),
	}
}

func insertUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Inserted %d tracks into %s", count, name),
	}
}

func skipPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Skipping existing playlist: %s", name),
	}
}

func copyCoverUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CopyCover,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Copying cover image for %s...", name),
	}
}

func reconcileUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reconciling: %s", step, total, name),
	}
}

func reconcileDoneUpdate(step, total int, name string, addedA, addedB int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: +%d / +%d", step, total, name, addedA, addedB),
	}
}
