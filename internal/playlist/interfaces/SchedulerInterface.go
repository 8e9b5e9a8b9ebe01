package interfaces

// SchedulerInterface drives the playlist lifecycle: restore from disk at
// startup, periodic refresh from the backend and periodic snapshots.
type SchedulerInterface interface {
	// Init starts the refresh and save jobs.
	Init()
	Stop()
	Restore() error
	Refresh() error
	Persist() error
}
