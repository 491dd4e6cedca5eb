package platform

import (
	"strings"

	"github.com/Eli-the-creator/api/internal/models"
	"github.com/playwright-community/playwright-go"
)

// FormSelectors locates the pieces of a platform's application form. These
// are externally supplied and brittle; each adapter owns its own set.
type FormSelectors struct {
	Container     string
	Controls      string
	TextInputs    string
	Selects       string
	Checkboxes    string
	RadioGroups   string
	SuccessMarker string
	FailureMarker string
}

// PageStepDriver is the playwright-backed StepDriver used by real adapters.
type PageStepDriver struct {
	page playwright.Page
	dom  DOM
	sel  FormSelectors
}

func NewPageStepDriver(page playwright.Page, dom DOM, sel FormSelectors) *PageStepDriver {
	return &PageStepDriver{page: page, dom: dom, sel: sel}
}

// FillFields fills every recognized input on the current step. Per-field
// failures are skipped; one odd widget must not abort the application.
func (d *PageStepDriver) FillFields(payload models.ApplicationPayload) error {
	d.fillTextInputs(payload)
	d.fillSelects()
	d.checkRequiredBoxes()
	d.answerRadioGroups()
	return nil
}

func (d *PageStepDriver) fillTextInputs(payload models.ApplicationPayload) {
	inputs, err := d.page.Locator(d.sel.TextInputs).All()
	if err != nil {
		return
	}

	for _, input := range inputs {
		current, err := input.InputValue()
		if err != nil || current != "" {
			continue
		}

		label := d.labelFor(input)
		placeholder, _ := input.GetAttribute("placeholder")

		var value string
		switch ClassifyField(label, placeholder) {
		case RoleCoverLetter:
			value = payload.CoverLetter
		case RolePhone:
			value = payload.Phone
		default:
			value = d.answerByKeyword(label, payload)
		}

		if value == "" {
			continue
		}
		_ = input.Fill(value)
	}
}

// labelFor resolves the visible label for an input: aria-label first, then
// an explicit label[for] association.
func (d *PageStepDriver) labelFor(input playwright.Locator) string {
	if aria, err := input.GetAttribute("aria-label"); err == nil && aria != "" {
		return aria
	}
	id, err := input.GetAttribute("id")
	if err != nil || id == "" {
		return ""
	}
	return d.dom.Text(d.page, `label[for="`+id+`"]`)
}

// answerByKeyword matches a label against the user-supplied custom answers.
func (d *PageStepDriver) answerByKeyword(label string, payload models.ApplicationPayload) string {
	lower := strings.ToLower(label)
	for keyword, answer := range payload.Answers {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return answer
		}
	}
	return ""
}

// fillSelects defaults unset single-select dropdowns to the first non-empty
// option.
func (d *PageStepDriver) fillSelects() {
	selects, err := d.page.Locator(d.sel.Selects).All()
	if err != nil {
		return
	}

	for _, sel := range selects {
		current, err := sel.InputValue()
		if err != nil || current != "" {
			continue
		}

		options, err := sel.Locator("option").All()
		if err != nil {
			continue
		}
		for _, opt := range options {
			value, err := opt.GetAttribute("value")
			if err != nil || value == "" {
				continue
			}
			_, _ = sel.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
			break
		}
	}
}

func (d *PageStepDriver) checkRequiredBoxes() {
	boxes, err := d.page.Locator(d.sel.Checkboxes).All()
	if err != nil {
		return
	}
	for _, box := range boxes {
		checked, err := box.IsChecked()
		if err != nil || checked {
			continue
		}
		_ = box.Check()
	}
}

func (d *PageStepDriver) answerRadioGroups() {
	groups, err := d.page.Locator(d.sel.RadioGroups).All()
	if err != nil {
		return
	}

	for _, group := range groups {
		radios, err := group.Locator(`input[type="radio"]`).All()
		if err != nil || len(radios) == 0 {
			continue
		}

		//skip groups that already have an answer
		answered := false
		for _, radio := range radios {
			if checked, _ := radio.IsChecked(); checked {
				answered = true
				break
			}
		}
		if answered {
			continue
		}

		labels, err := group.Locator("label").AllInnerTexts()
		if err != nil {
			labels = nil
		}
		pick := PickRadioOption(labels)
		if pick < 0 || pick >= len(radios) {
			pick = 0
		}
		_ = radios[pick].Check()
	}
}

// CurrentStep classifies the visible controls of the current step.
func (d *PageStepDriver) CurrentStep() (FormStepKind, error) {
	labels, err := d.page.Locator(d.sel.Controls).AllInnerTexts()
	if err != nil {
		return StepUnrecognized, nil
	}
	return ClassifyStep(labels), nil
}

// Act clicks the first control matching the chosen kind.
func (d *PageStepDriver) Act(kind FormStepKind) error {
	controls, err := d.page.Locator(d.sel.Controls).All()
	if err != nil {
		return err
	}
	for _, control := range controls {
		text, err := control.InnerText()
		if err != nil {
			continue
		}
		if ClassifyControl(text) != kind {
			continue
		}
		return control.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(d.dom.SelectorTimeoutMs),
		})
	}
	return nil
}

// SubmissionOutcome waits for the platform's confirmation or rejection
// marker after the submit click.
func (d *PageStepDriver) SubmissionOutcome() (bool, error) {
	if err := d.dom.WaitFor(d.page, d.sel.SuccessMarker); err == nil {
		return true, nil
	}
	if d.sel.FailureMarker != "" && d.dom.Exists(d.page, d.sel.FailureMarker) {
		return false, nil
	}
	// No explicit confirmation; treat a vanished form as success.
	return !d.dom.Exists(d.page, d.sel.Container), nil
}
