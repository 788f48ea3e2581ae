package models

import "time"

// Status is the verdict of a step or scenario.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Worse returns the more severe of two statuses (FAIL > WARN > PASS).
func (s Status) Worse(other Status) Status {
	if s.rank() >= other.rank() {
		return s
	}
	return other
}

func (s Status) rank() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarn:
		return 1
	default:
		return 0
	}
}

// StepOutcome records one assertion or capture inside a scenario.
type StepOutcome struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	Screenshot string `json:"screenshot,omitempty"` // Path relative to the output directory
}

// ScenarioResult is the outcome of one scenario run against a fresh browser.
type ScenarioResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	DurationMs  int64         `json:"duration_ms"`
	Steps       []StepOutcome `json:"steps"`
	Screenshots []string      `json:"screenshots,omitempty"`
	Console     []string      `json:"console,omitempty"` // Browser console and page errors
	Error       string        `json:"error,omitempty"`
}

// RunReport aggregates every scenario of one invocation. Overwritten on each run.
type RunReport struct {
	ID         string           `json:"id"`
	Version    string           `json:"version"`
	BaseURL    string           `json:"base_url"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Scenarios  []ScenarioResult `json:"scenarios"`
}

// Status returns the worst scenario status of the run.
func (r *RunReport) Status() Status {
	status := StatusPass
	for _, s := range r.Scenarios {
		status = status.Worse(s.Status)
	}
	return status
}

// Counts returns the number of passed, warned and failed scenarios.
func (r *RunReport) Counts() (pass, warn, fail int) {
	for _, s := range r.Scenarios {
		switch s.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}
	return pass, warn, fail
}
