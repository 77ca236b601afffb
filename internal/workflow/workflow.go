// Package workflow holds the three-step booking flow as pure value transitions.
// Every function takes a form by value and returns the updated copy.
package workflow

import (
	"fmt"

	"salonbook/internal/models"
	"salonbook/internal/validation"
)

// Transition describes the result of a navigation attempt.
type Transition struct {
	Form   models.BookingFormData `json:"form"`
	From   models.Step            `json:"from"`
	To     models.Step            `json:"to"`
	Moved  bool                   `json:"moved"`
	Errors validation.Errors      `json:"errors,omitempty"`
}

type Workflow struct {
	validator *validation.FormValidator
}

func New(v *validation.FormValidator) *Workflow {
	return &Workflow{validator: v}
}

func (w *Workflow) Validator() *validation.FormValidator { return w.validator }

// NewForm returns the initial form at phone verification.
func NewForm() models.BookingFormData {
	return models.BookingFormData{CurrentStep: models.StepPhoneVerification}
}

// Reset discards everything entered so far.
func Reset() models.BookingFormData {
	return NewForm()
}

// WithContact sets phone and name. Changing the phone number after
// verification drops the verification.
func WithContact(form models.BookingFormData, phone, name string) models.BookingFormData {
	phone = validation.NormalizePhone(phone)
	if phone != form.PhoneNumber {
		form.IsPhoneVerified = false
		form.IsOtpSent = false
		form.OtpCode = ""
	}
	form.PhoneNumber = phone
	form.CustomerName = validation.NormalizeName(name)
	return form
}

func WithOtpCode(form models.BookingFormData, code string) models.BookingFormData {
	form.OtpCode = code
	return form
}

func WithOtpSent(form models.BookingFormData, sent bool) models.BookingFormData {
	form.IsOtpSent = sent
	return form
}

// MarkPhoneVerified records a successful verification. It does not move the step.
func MarkPhoneVerified(form models.BookingFormData) models.BookingFormData {
	form.IsPhoneVerified = true
	form.IsOtpSent = false
	form.OtpCode = ""
	return form
}

func WithServices(form models.BookingFormData, ids []string) models.BookingFormData {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	form.SelectedServices = out
	return form
}

// WithDate selects a day. A different day clears the chosen time.
func WithDate(form models.BookingFormData, date string) models.BookingFormData {
	if date != form.SelectedDate {
		form.SelectedTime = ""
	}
	form.SelectedDate = date
	return form
}

func WithTime(form models.BookingFormData, t string) models.BookingFormData {
	form.SelectedTime = t
	return form
}

func WithNotes(form models.BookingFormData, notes string) models.BookingFormData {
	form.Notes = notes
	return form
}

func WithSubmitting(form models.BookingFormData, submitting bool) models.BookingFormData {
	form.IsSubmitting = submitting
	return form
}

// Clone returns a copy that shares no slices with form.
func Clone(form models.BookingFormData) models.BookingFormData {
	form.SelectedServices = append([]string(nil), form.SelectedServices...)
	return form
}

// CanAdvance reports whether the form may leave its current step forward.
// The result depends only on form, so repeated calls agree.
func (w *Workflow) CanAdvance(form models.BookingFormData) (bool, validation.Errors) {
	switch form.CurrentStep {
	case models.StepPhoneVerification:
		if !form.IsPhoneVerified {
			return false, validation.Errors{"isPhoneVerified": validation.CodeNotVerified}
		}
		errs := w.validator.Step(form, models.StepPhoneVerification)
		return len(errs) == 0, errs
	case models.StepSelection:
		if form.SelectedDate == "" || form.SelectedTime == "" || len(form.SelectedServices) == 0 {
			return false, requiredSelection(form)
		}
		errs := w.validator.Full(form)
		return len(errs) == 0, errs
	default:
		return false, nil
	}
}

// Next moves one step forward when the current step is satisfied.
func (w *Workflow) Next(form models.BookingFormData) (Transition, error) {
	tr := Transition{Form: form, From: form.CurrentStep, To: form.CurrentStep}
	if !form.CurrentStep.Valid() {
		return tr, ErrInvalidStep
	}
	if form.CurrentStep == models.StepConfirmation {
		return tr, ErrLastStep
	}
	ok, errs := w.CanAdvance(form)
	if !ok {
		tr.Errors = errs
		return tr, fmt.Errorf("%w: %s", ErrStepGated, form.CurrentStep)
	}
	tr.Form.CurrentStep++
	tr.To = tr.Form.CurrentStep
	tr.Moved = true
	return tr, nil
}

// Back moves one step backward without validating. At the first step it is a no-op.
func Back(form models.BookingFormData) Transition {
	tr := Transition{Form: form, From: form.CurrentStep, To: form.CurrentStep}
	if form.CurrentStep > models.StepPhoneVerification {
		tr.Form.CurrentStep--
		tr.To = tr.Form.CurrentStep
		tr.Moved = true
	}
	return tr
}

// JumpTo goes back to any earlier step without validating. Forward it
// behaves like repeated Next calls and stops at the first gated step, in
// which case the form is returned unchanged.
func (w *Workflow) JumpTo(form models.BookingFormData, step models.Step) (Transition, error) {
	tr := Transition{Form: form, From: form.CurrentStep, To: form.CurrentStep}
	switch {
	case !step.Valid():
		return tr, ErrInvalidStep
	case step == form.CurrentStep:
		return tr, nil
	case step < form.CurrentStep:
		tr.Form.CurrentStep = step
		tr.To = step
		tr.Moved = true
		return tr, nil
	}

	cur := form
	for cur.CurrentStep < step {
		next, err := w.Next(cur)
		if err != nil {
			tr.Errors = next.Errors
			return tr, err
		}
		cur = next.Form
	}
	tr.Form = cur
	tr.To = cur.CurrentStep
	tr.Moved = true
	return tr, nil
}

// Reachable lists the steps JumpTo would accept from the current form.
func (w *Workflow) Reachable(form models.BookingFormData) []models.Step {
	out := make([]models.Step, 0, 3)
	for s := models.StepPhoneVerification; s <= form.CurrentStep && s.Valid(); s++ {
		out = append(out, s)
	}
	for cur := form; cur.CurrentStep < models.StepConfirmation; {
		tr, err := w.Next(cur)
		if err != nil {
			break
		}
		cur = tr.Form
		out = append(out, cur.CurrentStep)
	}
	return out
}

func requiredSelection(form models.BookingFormData) validation.Errors {
	errs := validation.Errors{}
	if len(form.SelectedServices) == 0 {
		errs["selectedServices"] = validation.CodeRequired
	}
	if form.SelectedDate == "" {
		errs["selectedDate"] = validation.CodeRequired
	}
	if form.SelectedTime == "" {
		errs["selectedTime"] = validation.CodeRequired
	}
	return errs
}
