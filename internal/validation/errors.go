package validation

import (
	"sort"
	"strings"
)

// Errors maps a field's JSON name to a failure code.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Merge copies other into e without overwriting existing fields.
func (e Errors) Merge(other Errors) Errors {
	if len(other) == 0 {
		return e
	}
	if e == nil {
		e = make(Errors, len(other))
	}
	for f, c := range other {
		if _, ok := e[f]; !ok {
			e[f] = c
		}
	}
	return e
}

// OrNil returns a nil error for an empty set.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Messages renders user-facing text for every field.
func (e Errors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for f, c := range e {
		out[f] = Message(c)
	}
	return out
}

var messages = map[string]string{
	CodeRequired:        "This field is required",
	CodeInvalid:         "Invalid value",
	CodePhoneFormat:     "Enter a valid mobile number (5XX XXX XX XX)",
	CodePhoneNotReal:    "This does not look like a real phone number",
	CodeNameLength:      "Name must be between 2 and 50 characters",
	CodeNameChars:       "Name may contain only letters and spaces",
	CodeNameRepeat:      "Name contains too many repeated characters",
	CodeNamePlaceholder: "Please enter your real name",
	CodeOTPFormat:       "Enter the verification code from the SMS",
	CodeDateFormat:      "Invalid date",
	CodeDatePast:        "The selected date is in the past",
	CodeTimeFormat:      "Invalid time",
	CodeSlotPast:        "The selected time has already passed",
	CodeNotesLength:     "Notes are too long",
	CodeNotVerified:     "Please verify your phone number first",
}

// Message returns the user-facing text for code.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[CodeInvalid]
}
