package platform

import (
	"errors"
	"testing"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/stretchr/testify/assert"
)

// scriptedDriver replays a fixed sequence of form steps.
type scriptedDriver struct {
	steps     []FormStepKind
	pos       int
	confirmed bool
	acted     []FormStepKind
	filled    int
}

func (s *scriptedDriver) FillFields(payload models.ApplicationPayload) error {
	s.filled++
	return nil
}

func (s *scriptedDriver) CurrentStep() (FormStepKind, error) {
	if s.pos >= len(s.steps) {
		return StepUnrecognized, nil
	}
	return s.steps[s.pos], nil
}

func (s *scriptedDriver) Act(kind FormStepKind) error {
	s.acted = append(s.acted, kind)
	s.pos++
	return nil
}

func (s *scriptedDriver) SubmissionOutcome() (bool, error) {
	return s.confirmed, nil
}

func TestRunFormLoop_MultiStepCompletes(t *testing.T) {
	driver := &scriptedDriver{
		steps:     []FormStepKind{StepContinue, StepContinue, StepReview, StepSubmit},
		confirmed: true,
	}

	err := RunFormLoop(driver, models.ApplicationPayload{}, 12)

	assert.NoError(t, err)
	assert.Equal(t, []FormStepKind{StepContinue, StepContinue, StepReview, StepSubmit}, driver.acted)
	//fields are filled on every step before acting
	assert.Equal(t, 4, driver.filled)
}

func TestRunFormLoop_UnrecognizedStateIsTyped(t *testing.T) {
	driver := &scriptedDriver{steps: []FormStepKind{StepContinue, StepUnrecognized}}

	err := RunFormLoop(driver, models.ApplicationPayload{}, 12)

	assert.ErrorIs(t, err, autoerr.ErrUnrecognizedFormStep)
}

func TestRunFormLoop_BoundedIterations(t *testing.T) {
	//a form that offers "continue" forever must not loop forever
	driver := &scriptedDriver{
		steps: make([]FormStepKind, 100),
	}
	for i := range driver.steps {
		driver.steps[i] = StepContinue
	}

	err := RunFormLoop(driver, models.ApplicationPayload{}, 5)

	assert.ErrorIs(t, err, autoerr.ErrUnrecognizedFormStep)
	assert.Len(t, driver.acted, 5)
}

func TestRunFormLoop_RejectedSubmission(t *testing.T) {
	driver := &scriptedDriver{
		steps:     []FormStepKind{StepSubmit},
		confirmed: false,
	}

	err := RunFormLoop(driver, models.ApplicationPayload{}, 12)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, autoerr.ErrUnrecognizedFormStep)
}

func TestRunFormLoop_FillErrorPropagates(t *testing.T) {
	err := RunFormLoop(&failingFillDriver{}, models.ApplicationPayload{}, 12)
	assert.Error(t, err)
}

type failingFillDriver struct{ scriptedDriver }

func (f *failingFillDriver) FillFields(models.ApplicationPayload) error {
	return errors.New("detached element")
}

func TestClassifyField(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		placeholder string
		expected    FieldRole
	}{
		{"cover letter label", "Cover Letter", "", RoleCoverLetter},
		{"why question", "Why do you want to work here?", "", RoleCoverLetter},
		{"message placeholder", "", "Your message to the hiring team", RoleCoverLetter},
		{"phone", "Phone number", "", RolePhone},
		{"mobile", "", "Mobile", RolePhone},
		{"unknown", "Years of experience", "", RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyField(tt.label, tt.placeholder))
		})
	}
}

func TestClassifyStep_Priority(t *testing.T) {
	//submit wins over review wins over continue
	assert.Equal(t, StepSubmit, ClassifyStep([]string{"Continue", "Review", "Submit application"}))
	assert.Equal(t, StepReview, ClassifyStep([]string{"Continue", "Review"}))
	assert.Equal(t, StepContinue, ClassifyStep([]string{"Next"}))
	assert.Equal(t, StepUnrecognized, ClassifyStep([]string{"Close", "Cancel"}))
	assert.Equal(t, StepUnrecognized, ClassifyStep(nil))
}

func TestPickRadioOption(t *testing.T) {
	//affirmative consent preferred
	assert.Equal(t, 1, PickRadioOption([]string{"No", "Yes"}))
	assert.Equal(t, 0, PickRadioOption([]string{"I agree", "I decline"}))
	//no consent wording: first option
	assert.Equal(t, 0, PickRadioOption([]string{"Option A", "Option B"}))
	assert.Equal(t, -1, PickRadioOption(nil))
}
