package player

import (
	"skylt/internal/domain/media"
)

// Presentation renders one selected content set through an external viewer.
// Run blocks until the viewer exits; when the exit was not requested through
// Stop it publishes CmdPlayerExited on the queue. Stop is idempotent, may
// arrive before Run has spawned the viewer (the spawn is then forestalled),
// and returns only once no viewer of this presentation can be running.
type Presentation interface {
	Run(queue *Queue)
	Stop() error
	IsRunning() bool
	Describe() string
}

// Builder turns a scan snapshot into a runnable presentation.
type Builder interface {
	Build(set *media.Set) Presentation
	Empty() Presentation
}

// Library is one watched media directory.
type Library interface {
	// Scan rebuilds the directory's buckets and returns the winning
	// non-empty snapshot, or nil when there is nothing to show.
	Scan() (*media.Set, error)
	// MoveAssetsTo relocates every scanned file into dest, backing up
	// dest's prior content when dest is configured to do so.
	MoveAssetsTo(dest Library) error
	Path() string
}

// Notifier pushes a live-reload notice to connected admin clients.
type Notifier interface {
	TriggerReload()
}

// ReplicaSyncer mirrors the active content set to one replica host.
type ReplicaSyncer interface {
	// Rescan starts or restarts a transfer of the directory's current
	// file set.
	Rescan()
	// Cancel aborts any in-flight transfer and returns only once it has
	// wound down.
	Cancel()
}
