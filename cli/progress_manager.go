package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

type progressSpinner interface {
	Stop() error
	Success(...any)
	Fail(...any)
	UpdateText(string)
}

type progressSpinnerFactory func(out io.Writer, text string) (progressSpinner, error)

var defaultSpinnerFactory progressSpinnerFactory = func(out io.Writer, text string) (progressSpinner, error) {
	spinner, err := pterm.DefaultSpinner.
		WithWriter(out).
		WithRemoveWhenDone(false).
		WithText(text).
		Start()
	if err != nil {
		return nil, err
	}
	return spinner, nil
}

// StepStatus represents the state of a progress step.
type StepStatus int

const (
	// StepPending indicates a step has not yet started.
	StepPending StepStatus = iota
	// StepRunning indicates a step is currently in progress.
	StepRunning
	// StepCompleted indicates a step finished successfully.
	StepCompleted
	// StepFailed indicates a step encountered an error.
	StepFailed
)

// Step represents a single progress step.
type Step struct {
	ID          string
	Message     string
	Status      StepStatus
	IndentLevel int // 0 = root, 1 = child (→), 2 = nested child, etc.
	startTime   time.Time
}

// ProgressManager shows a sequence of steps, one spinner at a time.
type ProgressManager struct {
	out            io.Writer
	steps          []*Step
	stepMap        map[string]*Step
	currentSpinner progressSpinner
	spinnerFactory progressSpinnerFactory
	mu             sync.Mutex
	disabled       bool
}

// ProgressManagerOption allows customizing ProgressManager behavior at creation time.
type ProgressManagerOption func(*ProgressManager)

// WithProgressOutput enables or disables terminal output for a ProgressManager.
func WithProgressOutput(enabled bool) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.disabled = !enabled
	}
}

func withProgressSpinnerFactory(factory progressSpinnerFactory) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.spinnerFactory = factory
	}
}

// NewProgressManager creates a new ProgressManager writing to out with all steps registered upfront.
func NewProgressManager(out io.Writer, steps []*Step, opts ...ProgressManagerOption) *ProgressManager {
	stepMap := make(map[string]*Step, len(steps))
	for _, step := range steps {
		stepMap[step.ID] = step
	}

	pm := &ProgressManager{
		out:            out,
		steps:          steps,
		stepMap:        stepMap,
		spinnerFactory: defaultSpinnerFactory,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// getPrefix returns the formatted prefix for a step based on its indent level.
func getPrefix(step *Step) string {
	if step.IndentLevel == 0 {
		return ""
	}
	return strings.Repeat("  ", step.IndentLevel) + "→ "
}

func (pm *ProgressManager) step(stepID string) (*Step, error) {
	step, exists := pm.stepMap[stepID]
	if !exists {
		return nil, errors.Errorf("step %q not found", stepID)
	}
	return step, nil
}

// Start begins animating the spinner for the given step ID.
func (pm *ProgressManager) Start(stepID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepRunning
	step.startTime = time.Now()

	if pm.disabled {
		return nil
	}

	if step.IndentLevel == 0 {
		printf(pm.out, " …  %s", step.Message)
		return nil
	}

	if pm.currentSpinner != nil {
		_ = pm.currentSpinner.Stop() //nolint:errcheck
	}
	spinner, err := pm.spinnerFactory(pm.out, " "+getPrefix(step)+step.Message)
	if err != nil {
		return errors.Wrap(err, "failed to start child spinner")
	}
	pm.currentSpinner = spinner
	return nil
}

// Complete marks a step as completed. A non-empty detail is shown after the step's message.
func (pm *ProgressManager) Complete(stepID, detail string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepCompleted

	if pm.disabled {
		return nil
	}

	msg := step.Message
	if detail != "" {
		msg += ": " + detail
	}
	if !step.startTime.IsZero() {
		msg += fmt.Sprintf(" (%s)", time.Since(step.startTime).Round(time.Millisecond))
	}

	if pm.currentSpinner != nil {
		pm.currentSpinner.Success(" " + getPrefix(step) + msg)
		pm.currentSpinner = nil
		return nil
	}
	pterm.Success.WithWriter(pm.out).Println(getPrefix(step) + msg)
	return nil
}

// Fail marks a step as failed with an error message.
func (pm *ProgressManager) Fail(stepID string, cause error) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepFailed

	if pm.disabled {
		return nil
	}

	msg := fmt.Sprintf("%s: %v", step.Message, cause)
	if pm.currentSpinner != nil {
		pm.currentSpinner.Fail(" " + getPrefix(step) + msg)
		pm.currentSpinner = nil
		return nil
	}
	pterm.Error.WithWriter(pm.out).Println(getPrefix(step) + msg)
	return nil
}

// Stop stops any active spinner.
func (pm *ProgressManager) Stop() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.currentSpinner != nil {
		_ = pm.currentSpinner.Stop() //nolint:errcheck
		pm.currentSpinner = nil
	}
}
