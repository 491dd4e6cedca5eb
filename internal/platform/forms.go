package platform

import (
	"fmt"
	"regexp"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/models"
)

// FormStepKind classifies one iteration of the multi-step submission loop.
type FormStepKind string

const (
	StepContinue     FormStepKind = "continue"
	StepReview       FormStepKind = "review"
	StepSubmit       FormStepKind = "submit"
	StepUnrecognized FormStepKind = "unrecognized"
)

// FieldRole is what a free-text input is for, inferred from its label and
// placeholder. Kept as a pure mapping so it can be unit-tested without a
// browser.
type FieldRole string

const (
	RoleCoverLetter FieldRole = "cover_letter"
	RolePhone       FieldRole = "phone"
	RoleUnknown     FieldRole = "unknown"
)

var (
	coverRegex    = regexp.MustCompile(`(?i)\b(cover\s*letter|why\s+(do\s+you|are\s+you|this)|message|motivation|tell\s+us)\b`)
	phoneRegex    = regexp.MustCompile(`(?i)\b(phone|mobile|tel)\b`)
	submitRegex   = regexp.MustCompile(`(?i)\b(submit|send\s+application|apply\s+now)\b`)
	reviewRegex   = regexp.MustCompile(`(?i)\breview\b`)
	continueRegex = regexp.MustCompile(`(?i)\b(continue|next|save\s+and\s+continue)\b`)
	consentRegex  = regexp.MustCompile(`(?i)\b(yes|agree|accept|authorized|willing|can\b)`)
)

// ClassifyField maps a label/placeholder pair to the kind of answer it wants.
func ClassifyField(label, placeholder string) FieldRole {
	text := label + " " + placeholder
	switch {
	case coverRegex.MatchString(text):
		return RoleCoverLetter
	case phoneRegex.MatchString(text):
		return RolePhone
	}
	return RoleUnknown
}

// ClassifyControl maps a button label to a step kind.
func ClassifyControl(text string) FormStepKind {
	switch {
	case submitRegex.MatchString(text):
		return StepSubmit
	case reviewRegex.MatchString(text):
		return StepReview
	case continueRegex.MatchString(text):
		return StepContinue
	}
	return StepUnrecognized
}

// ClassifyStep picks the single control to act on for a step: submit beats
// review beats continue.
func ClassifyStep(controlLabels []string) FormStepKind {
	best := StepUnrecognized
	for _, label := range controlLabels {
		switch ClassifyControl(label) {
		case StepSubmit:
			return StepSubmit
		case StepReview:
			best = StepReview
		case StepContinue:
			if best != StepReview {
				best = StepContinue
			}
		}
	}
	return best
}

// PickRadioOption prefers an option whose label suggests affirmative consent,
// else the first option. Returns -1 for an empty group.
func PickRadioOption(labels []string) int {
	if len(labels) == 0 {
		return -1
	}
	for i, label := range labels {
		if consentRegex.MatchString(label) {
			return i
		}
	}
	return 0
}

// StepDriver abstracts one form step so the submission loop can run against
// a scripted fixture in tests.
type StepDriver interface {
	// FillFields fills recognized inputs on the current step.
	FillFields(payload models.ApplicationPayload) error
	// CurrentStep inspects the visible controls and classifies the step.
	CurrentStep() (FormStepKind, error)
	// Act clicks exactly one control of the given kind.
	Act(kind FormStepKind) error
	// SubmissionOutcome reports, after a submit click, whether the platform
	// confirmed the application.
	SubmissionOutcome() (bool, error)
}

// RunFormLoop drives the multi-step submission state machine. Exactly one
// control is acted on per iteration; the loop ends on submit, on an
// unrecognized form state, or at the iteration bound.
func RunFormLoop(driver StepDriver, payload models.ApplicationPayload, maxSteps int) error {
	if maxSteps <= 0 {
		maxSteps = 12
	}

	for step := 0; step < maxSteps; step++ {
		if err := driver.FillFields(payload); err != nil {
			return fmt.Errorf("fill step %d: %w", step+1, err)
		}

		kind, err := driver.CurrentStep()
		if err != nil {
			return fmt.Errorf("inspect step %d: %w", step+1, err)
		}

		if kind == StepUnrecognized {
			return fmt.Errorf("step %d: %w", step+1, autoerr.ErrUnrecognizedFormStep)
		}

		if err := driver.Act(kind); err != nil {
			return fmt.Errorf("act on %s at step %d: %w", kind, step+1, err)
		}

		if kind == StepSubmit {
			confirmed, err := driver.SubmissionOutcome()
			if err != nil {
				return fmt.Errorf("submission outcome: %w", err)
			}
			if !confirmed {
				return fmt.Errorf("platform rejected the submission")
			}
			return nil
		}
	}

	return fmt.Errorf("form did not complete within %d steps: %w", maxSteps, autoerr.ErrUnrecognizedFormStep)
}
