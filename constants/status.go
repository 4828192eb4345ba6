package constants

// RunStatus is the canonical status for rows in extraction_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning     RunStatus = "RUNNING"     // in progress
	RunStatusOK          RunStatus = "OK"          // rows appended (or dry run finished)
	RunStatusNoViews     RunStatus = "NO_VIEWS"    // nothing to persist
	RunStatusFailed      RunStatus = "FAILED"      // terminal failure, nothing pending
	RunStatusPending     RunStatus = "PENDING"     // rows extracted but not persisted; resubmit
	RunStatusResubmitted RunStatus = "RESUBMITTED" // pending rows appended later
)

// DateLayout is the layout used for extraction_date values.
const DateLayout = "2006-01-02"
