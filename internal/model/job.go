package model

import "time"

// JobStatus represents the current state of an analysis job.
type JobStatus string

const (
	JobStatusStarted    JobStatus = "started"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// Job tracks one asynchronous analysis request from submission to its
// terminal state. The record is mutated in place by the job's own
// continuation; partial updates merge into the existing record.
type Job struct {
	ID         string          `json:"id"`
	ProfileURL string          `json:"profile_url"`
	Status     JobStatus       `json:"status"`
	Progress   int             `json:"progress"`
	Stage      string          `json:"stage"`
	StartedAt  time.Time       `json:"started_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Result     *AnalysisResult `json:"result,omitempty"`
	Error      *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo captures the failure that terminated a job.
type ErrorInfo struct {
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisResult is the assembled output of a completed job.
type AnalysisResult struct {
	Profile          Profile           `json:"profile"`
	Organization     Organization      `json:"organization"`
	Signals          IntentSignals     `json:"signals"`
	Summary          string            `json:"summary"`
	OutreachMessages []OutreachMessage `json:"outreach_messages"`
	Metrics          Metrics           `json:"metrics"`
	Metadata         ResultMetadata    `json:"metadata"`
}

// OutreachMessage is one persona-tagged message produced for a prospect.
type OutreachMessage struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Focus   string `json:"focus"`
}

// ResultMetadata describes how and when a result was produced.
type ResultMetadata struct {
	JobID          string    `json:"job_id"`
	AnalyzedURL    string    `json:"analyzed_url"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
	ProcessingTime int64     `json:"processing_time_ms"`
}

// Metrics holds the four prospect sub-scores and their aggregate.
// All values are in [0,100]; OverallScore is the rounded arithmetic mean.
type Metrics struct {
	DecisionAuthority int `json:"decision_authority"`
	BudgetInfluence   int `json:"budget_influence"`
	BuyingIntent      int `json:"buying_intent"`
	EngagementScore   int `json:"engagement_score"`
	OverallScore      int `json:"overall_score"`
}
