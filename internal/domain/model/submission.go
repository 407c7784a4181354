package model

import "time"

type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "Pending"
	StatusAccepted            SubmissionStatus = "Accepted"
	StatusWrongAnswer         SubmissionStatus = "WrongAnswer"
	StatusTimeLimitExceeded   SubmissionStatus = "TimeLimitExceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "MemoryLimitExceeded"
	StatusCompilationError    SubmissionStatus = "CompilationError"
	StatusRuntimeError        SubmissionStatus = "RuntimeError"
)

// Submission rows are written once and never updated.
type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	ProblemID       string           `json:"problemId"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Status          SubmissionStatus `json:"status"`
	ExecutionTimeMs int              `json:"executionTime"`
	MemoryKb        int              `json:"memoryUsed"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	ProblemTitle    string           `json:"problemTitle,omitempty"`
}
