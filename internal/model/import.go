package model

import "time"

// ImportStatus is the lifecycle state of an import job.
type ImportStatus string

const (
	ImportQueued  ImportStatus = "QUEUED"
	ImportRunning ImportStatus = "RUNNING"
	ImportSuccess ImportStatus = "SUCCESS"
	ImportFailed  ImportStatus = "FAILED"
)

// Import is one row of the imports job table. Created externally in QUEUED
// state; the worker transitions it to RUNNING and then to a terminal
// SUCCESS/FAILED. Terminal imports are never revisited by the worker.
type Import struct {
	ID          string
	TenantID    string
	StoragePath string
	Division    Division
	Status      ImportStatus
	RowsIn      *int
	RowsOut     *int
	ErrorLog    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
