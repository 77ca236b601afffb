package validation

import (
	"time"

	"salonbook/internal/models"
)

type selectionInput struct {
	SelectedServices []string `json:"selectedServices" validate:"required,min=1,dive,required"`
	SelectedDate     string   `json:"selectedDate" validate:"required,datetime=2006-01-02"`
	SelectedTime     string   `json:"selectedTime" validate:"required,datetime=15:04"`
	Notes            string   `json:"notes" validate:"max=500"`
}

// FormValidator runs the step-local and full checks over a booking form.
// Temporal rules use the configured location and clock.
type FormValidator struct {
	loc *time.Location
	now func() time.Time
}

func NewFormValidator(loc *time.Location, now func() time.Time) *FormValidator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &FormValidator{loc: loc, now: now}
}

// Step validates only the fields owned by step.
func (v *FormValidator) Step(form models.BookingFormData, step models.Step) Errors {
	switch step {
	case models.StepPhoneVerification:
		errs := Contact(form.PhoneNumber, form.CustomerName)
		if !form.IsPhoneVerified {
			errs = errs.Merge(Errors{"isPhoneVerified": CodeNotVerified})
		}
		return nilIfEmpty(errs)
	case models.StepSelection:
		return v.selection(form)
	case models.StepConfirmation:
		return v.Full(form)
	}
	return Errors{"currentStep": CodeInvalid}
}

// Full runs every rule; submission is allowed only when it returns nil.
func (v *FormValidator) Full(form models.BookingFormData) Errors {
	errs := v.Step(form, models.StepPhoneVerification)
	errs = errs.Merge(v.selection(form))
	return nilIfEmpty(errs)
}

func (v *FormValidator) selection(form models.BookingFormData) Errors {
	errs := Struct(selectionInput{
		SelectedServices: form.SelectedServices,
		SelectedDate:     form.SelectedDate,
		SelectedTime:     form.SelectedTime,
		Notes:            form.Notes,
	})
	if _, bad := errs["selectedDate"]; bad {
		return errs
	}

	now := v.now().In(v.loc)
	today := now.Format(models.DateFormat)
	switch {
	case form.SelectedDate < today:
		errs = errs.Merge(Errors{"selectedDate": CodeDatePast})
	case form.SelectedDate == today:
		if _, bad := errs["selectedTime"]; !bad && form.SelectedTime <= now.Format(models.TimeFormat) {
			errs = errs.Merge(Errors{"selectedTime": CodeSlotPast})
		}
	}
	return nilIfEmpty(errs)
}

func nilIfEmpty(e Errors) Errors {
	if len(e) == 0 {
		return nil
	}
	return e
}
