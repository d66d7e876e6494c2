package constants

// RecordStatus classifies an extracted certificate record.
type RecordStatus string

// Stable values (written to reports and the run store as-is).
const (
	StatusComplete   RecordStatus = "complete"   // name and course both found
	StatusIncomplete RecordStatus = "incomplete" // at least one of them missing
)

// RunStatus is the lifecycle of one batch run in the run store.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
	RunStatusEmpty    RunStatus = "NO_INPUT" // folder had no PDFs
	RunStatusFailed   RunStatus = "FAILED"
)

// Placeholders used when a record is incomplete.
const (
	UnknownStudent     = "Unknown student"
	UnidentifiedCourse = "Unidentified course"
)

// Failure reasons recorded by the orchestrator.
const (
	ReasonInsufficientText = "empty or too-short extraction"
	ReasonTimeout          = "processing timed out"
)
