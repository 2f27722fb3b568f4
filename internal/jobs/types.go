// Package jobs defines the Kafka event schemas of the asynchronous
// comparison pipeline: CompareJob flows from the API to the worker pool,
// CompareCompleted flows from the worker to the stats aggregator.
package jobs

import "time"

// Job statuses as persisted in PostgreSQL.
const (
	StatusPending = "PENDING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

// CompareJob is the Kafka message payload for one queued comparison.
type CompareJob struct {
	JobID       string    `json:"job_id"`
	TupleSize   int       `json:"tuple_size"`
	Synonyms    string    `json:"synonyms"`
	Reference   string    `json:"reference"`
	Candidate   string    `json:"candidate"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CompareCompleted is published to the results topic after a job finishes,
// successfully or not.
type CompareCompleted struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	Percent     string    `json:"percent,omitempty"`
	Ratio       float64   `json:"ratio"`
	Matched     int       `json:"matched"`
	Total       int       `json:"total"`
	Degenerate  bool      `json:"degenerate"`
	LatencyMs   int64     `json:"latency_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// SubmitResponse is returned to the caller after a job is accepted.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
