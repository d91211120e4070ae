// Package engine drives one form session: step navigation gated by per-step
// validation, field mutation, and the save/submit lifecycle. An Engine is
// meant for a single caller goroutine; the only suspension points are the
// collaborator callbacks, and a second transition attempted while one is in
// flight is rejected rather than queued.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/formflowhq/formflow/internal/forms"
)

// Mode selects how the session treats validation and mutation.
type Mode int

const (
	// ModeEdit is the normal edit-and-submit session.
	ModeEdit Mode = iota
	// ModePreview disables validation gating and completion tracking, for
	// non-destructive inspection of a form definition.
	ModePreview
	// ModeReadOnly permits free navigation but rejects every mutation.
	ModeReadOnly
)

// Direction is passed to the step-change collaborator.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

var (
	ErrFirstStep          = errors.New("already on the first step")
	ErrSubmitted          = errors.New("form already submitted")
	ErrReadOnly           = errors.New("form is read-only")
	ErrTransitionInFlight = errors.New("a step transition is already in flight")
)

// Callbacks are the collaborator contracts the host supplies. All are
// optional. An error returned from OnStepChange aborts the transition with
// the engine state untouched; an error from OnSubmit returns the engine to
// editing.
type Callbacks struct {
	OnStepChange func(ctx context.Context, dir Direction, fromStep int, values map[string]any) error
	OnSubmit     func(ctx context.Context, values map[string]any) error
	OnSave       func(ctx context.Context, values map[string]any) error
}

type Options struct {
	Mode          Mode
	InitialValues map[string]any // draft or record data layered over schema defaults
	OptionSets    forms.OptionSets
	Callbacks     Callbacks
}

type Engine struct {
	schema     *forms.FormSchema
	mode       Mode
	cb         Callbacks
	optionSets forms.OptionSets

	values     map[string]any
	errors     map[string]string
	current    int
	submitting bool
	submitted  bool
	inFlight   bool
}

// New builds a session seeded with the schema defaults merged with any prior
// draft or record values.
func New(schema *forms.FormSchema, opts Options) *Engine {
	values := forms.InitialData(schema)
	for k, v := range opts.InitialValues {
		values[k] = v
	}
	return &Engine{
		schema:     schema,
		mode:       opts.Mode,
		cb:         opts.Callbacks,
		optionSets: opts.OptionSets,
		values:     values,
		errors:     map[string]string{},
	}
}

func (e *Engine) CurrentStep() int { return e.current }

func (e *Engine) StepCount() int { return len(e.schema.Steps) }

func (e *Engine) Submitting() bool { return e.submitting }

func (e *Engine) Submitted() bool { return e.submitted }

// Values returns a copy of the current values map.
func (e *Engine) Values() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the current per-field error messages.
func (e *Engine) Errors() map[string]string {
	out := make(map[string]string, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// Options returns the effective choice list for a field, resolving its
// option-set slug against the pre-resolved sets the host supplied.
func (e *Engine) Options(f forms.FormField) []forms.Option {
	return forms.ResolveOptions(f, e.optionSets)
}

// SetValue updates one field and optimistically clears its error. Other
// fields are not re-validated.
func (e *Engine) SetValue(name string, v any) error {
	if e.mode == ModeReadOnly {
		return ErrReadOnly
	}
	if e.submitted {
		return ErrSubmitted
	}
	e.values[name] = v
	delete(e.errors, name)
	return nil
}

// Advance validates the current step and moves forward, or submits on the
// last step. A validation failure populates Errors for the current step's
// fields and returns nil: validation outcomes are state, not errors.
// Collaborator failures are returned after the pre-transition state has been
// restored.
func (e *Engine) Advance(ctx context.Context) error {
	if e.submitted {
		return ErrSubmitted
	}
	if e.inFlight || e.submitting {
		return ErrTransitionInFlight
	}

	if e.mode == ModeEdit {
		names := e.schema.StepFieldNames(e.current)
		res := forms.ValidateData(e.schema, e.values, names)
		if !res.OK {
			for name, msg := range res.Errors {
				e.errors[name] = msg
			}
			return nil
		}
	}

	last := e.current == len(e.schema.Steps)-1
	if last {
		if e.mode == ModeReadOnly {
			return ErrReadOnly
		}
		return e.submit(ctx)
	}

	e.inFlight = true
	defer func() { e.inFlight = false }()
	if e.cb.OnStepChange != nil {
		if err := e.cb.OnStepChange(ctx, DirectionNext, e.current, e.values); err != nil {
			return fmt.Errorf("step change: %w", err)
		}
	}
	e.current++
	return nil
}

func (e *Engine) submit(ctx context.Context) error {
	e.inFlight = true
	e.submitting = true
	defer func() { e.inFlight = false }()

	if e.cb.OnStepChange != nil {
		if err := e.cb.OnStepChange(ctx, DirectionNext, e.current, e.values); err != nil {
			e.submitting = false
			return fmt.Errorf("step change: %w", err)
		}
	}
	if e.cb.OnSubmit != nil {
		if err := e.cb.OnSubmit(ctx, e.values); err != nil {
			e.submitting = false
			return fmt.Errorf("submit: %w", err)
		}
	}
	e.submitting = false
	e.submitted = true
	return nil
}

// Retreat moves one step back. Never validates.
func (e *Engine) Retreat(ctx context.Context) error {
	if e.submitted {
		return ErrSubmitted
	}
	if e.inFlight || e.submitting {
		return ErrTransitionInFlight
	}
	if e.current == 0 {
		return ErrFirstStep
	}

	e.inFlight = true
	defer func() { e.inFlight = false }()
	if e.cb.OnStepChange != nil {
		if err := e.cb.OnStepChange(ctx, DirectionPrev, e.current, e.values); err != nil {
			return fmt.Errorf("step change: %w", err)
		}
	}
	e.current--
	return nil
}

// GoToStep handles direct navigation from a stepper or sidebar. Preview and
// read-only sessions may jump anywhere; an edit session may only revisit the
// current step or ones already passed. A forward jump to an unvisited step
// is a silent no-op.
func (e *Engine) GoToStep(index int) error {
	if index < 0 || index >= len(e.schema.Steps) {
		return fmt.Errorf("step index %d out of range", index)
	}
	if e.inFlight || e.submitting {
		return ErrTransitionInFlight
	}
	if e.mode == ModeEdit && index > e.current {
		return nil
	}
	e.current = index
	return nil
}

// Save invokes the save collaborator with the full current values. It never
// validates and never moves the step cursor.
func (e *Engine) Save(ctx context.Context) error {
	if e.mode == ModeReadOnly {
		return ErrReadOnly
	}
	if e.submitted {
		return ErrSubmitted
	}
	if e.cb.OnSave == nil {
		return nil
	}
	if err := e.cb.OnSave(ctx, e.values); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// StepComplete reports whether a step counts as reviewed: already passed and
// with every required field answered. The current and future steps always
// report incomplete, and preview sessions report nothing complete, so
// prefilled data never masquerades as user-reviewed content.
func (e *Engine) StepComplete(index int) bool {
	if e.mode == ModePreview {
		return false
	}
	if index < 0 || index >= e.current {
		return false
	}
	for _, f := range e.schema.Steps[index].Fields {
		if forms.IsLayoutType(f.Type) || !f.Required {
			continue
		}
		if forms.EmptyValue(e.values[f.Name]) {
			return false
		}
	}
	return true
}

// CompletionPercent derives the overall completion from the per-step flags.
func (e *Engine) CompletionPercent() int {
	if e.mode == ModePreview || len(e.schema.Steps) == 0 {
		return 0
	}
	complete := 0
	for i := range e.schema.Steps {
		if e.StepComplete(i) {
			complete++
		}
	}
	return int(math.Round(100 * float64(complete) / float64(len(e.schema.Steps))))
}
