package model

import "time"

// ImportRun records one batch import for the audit trail.
type ImportRun struct {
	StartedAt         time.Time
	CompletedAt       time.Time
	ID                string
	Source            string
	TotalInput        int
	DuplicatesRemoved int
	TransfersFound    int
	Posted            int
	Skipped           int
}
