package verify

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/models"
)

// Policy decides what a failed step does to the rest of the scenario.
type Policy int

const (
	// Require records FAIL and aborts the scenario.
	Require Policy = iota
	// Check records FAIL and lets the scenario continue.
	Check
	// Warn records WARN and lets the scenario continue.
	Warn
)

func (p Policy) String() string {
	switch p {
	case Require:
		return "require"
	case Check:
		return "check"
	default:
		return "warn"
	}
}

// StepError is returned by Recorder.Step for a failed Require step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// IsStepError reports whether err aborted a scenario at a recorded step.
func IsStepError(err error) bool {
	var stepErr *StepError
	return errors.As(err, &stepErr)
}

var (
	successLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	warningLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	failureLabel = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Recorder collects step outcomes for one scenario and prints a verdict line for each.
type Recorder struct {
	scenario string
	logger   arbor.ILogger
	out      io.Writer

	mu    sync.Mutex
	steps []models.StepOutcome
}

func NewRecorder(scenario string, logger arbor.ILogger, out io.Writer) *Recorder {
	return &Recorder{scenario: scenario, logger: logger, out: out}
}

// Step records err under name according to policy.
// Only a failed Require step returns an error; the caller should return it.
func (r *Recorder) Step(name string, policy Policy, err error) error {
	if err == nil {
		r.Pass(name, "")
		return nil
	}
	switch policy {
	case Warn:
		r.Warn(name, err.Error())
		return nil
	case Check:
		r.Fail(name, err.Error())
		return nil
	default:
		r.Fail(name, err.Error())
		return &StepError{Step: name, Err: err}
	}
}

func (r *Recorder) Pass(name, message string) {
	r.add(models.StepOutcome{Name: name, Status: models.StatusPass, Message: message})
}

func (r *Recorder) Warn(name, message string) {
	r.add(models.StepOutcome{Name: name, Status: models.StatusWarn, Message: message})
}

func (r *Recorder) Fail(name, message string) {
	r.add(models.StepOutcome{Name: name, Status: models.StatusFail, Message: message})
}

// Screenshot records a successful capture.
func (r *Recorder) Screenshot(name, path string) {
	r.add(models.StepOutcome{Name: name, Status: models.StatusPass, Message: "screenshot saved", Screenshot: path})
}

func (r *Recorder) add(step models.StepOutcome) {
	r.mu.Lock()
	r.steps = append(r.steps, step)
	r.mu.Unlock()

	line := step.Name
	if step.Message != "" {
		line += " - " + step.Message
	}

	switch step.Status {
	case models.StatusPass:
		fmt.Fprintln(r.out, successLabel("SUCCESS:"), line)
		r.logger.Debug().Str("scenario", r.scenario).Str("step", step.Name).Msg("Step passed")
	case models.StatusWarn:
		fmt.Fprintln(r.out, warningLabel("WARNING:"), line)
		r.logger.Warn().Str("scenario", r.scenario).Str("step", step.Name).Msg(step.Message)
	default:
		fmt.Fprintln(r.out, failureLabel("FAILURE:"), line)
		r.logger.Error().Str("scenario", r.scenario).Str("step", step.Name).Msg(step.Message)
	}
}

// Steps returns the recorded outcomes in order.
func (r *Recorder) Steps() []models.StepOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.StepOutcome(nil), r.steps...)
}

// Status returns the worst recorded status.
func (r *Recorder) Status() models.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := models.StatusPass
	for _, s := range r.steps {
		status = status.Worse(s.Status)
	}
	return status
}
