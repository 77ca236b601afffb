// Package validation checks customer input for the booking flow.
//
// Field rules are expressed as go-playground/validator tags; errors are reported
// as a field → code map so handlers can render per-field messages.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var mobilePattern = regexp.MustCompile(`^5\d{9}$`)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Turkish mobile number in normalized 5XXXXXXXXX form
	validate.RegisterValidation("tr_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})

	validate.RegisterValidation("real_phone", func(fl validator.FieldLevel) bool {
		return !isFakePhone(fl.Field().String())
	})

	validate.RegisterValidation("name_chars", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) && r != ' ' {
				return false
			}
		}
		return true
	})

	validate.RegisterValidation("name_repeat", func(fl validator.FieldLevel) bool {
		return !hasRepeatedRun(fl.Field().String(), 4)
	})

	validate.RegisterValidation("name_placeholder", func(fl validator.FieldLevel) bool {
		return !placeholderNames[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	})

	validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
}

// Codes reported in Errors.
const (
	CodeRequired        = "required"
	CodeInvalid         = "invalid"
	CodePhoneFormat     = "phone_format"
	CodePhoneNotReal    = "phone_not_real"
	CodeNameLength      = "name_length"
	CodeNameChars       = "name_chars"
	CodeNameRepeat      = "name_repeat"
	CodeNamePlaceholder = "name_placeholder"
	CodeOTPFormat       = "otp_format"
	CodeDateFormat      = "date_format"
	CodeDatePast        = "date_past"
	CodeTimeFormat      = "time_format"
	CodeSlotPast        = "slot_past"
	CodeNotesLength     = "notes_length"
	CodeNotVerified     = "phone_not_verified"
)

var tagCodes = map[string]map[string]string{
	"phoneNumber": {
		"required":   CodeRequired,
		"tr_mobile":  CodePhoneFormat,
		"real_phone": CodePhoneNotReal,
	},
	"customerName": {
		"required":         CodeRequired,
		"min":              CodeNameLength,
		"max":              CodeNameLength,
		"name_chars":       CodeNameChars,
		"name_repeat":      CodeNameRepeat,
		"name_placeholder": CodeNamePlaceholder,
	},
	"otpCode": {
		"required": CodeRequired,
		"digits":   CodeOTPFormat,
		"len":      CodeOTPFormat,
	},
	"selectedServices": {
		"required": CodeRequired,
		"min":      CodeRequired,
	},
	"selectedDate": {
		"required": CodeRequired,
		"datetime": CodeDateFormat,
	},
	"selectedTime": {
		"required": CodeRequired,
		"datetime": CodeTimeFormat,
	},
	"notes": {
		"max": CodeNotesLength,
	},
}

// Struct validates s and returns field codes, or nil when s is valid.
func Struct(s interface{}) Errors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"_": CodeInvalid}
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		field := rootField(fe)
		if _, seen := out[field]; seen {
			continue
		}
		code := CodeInvalid
		if c, ok := tagCodes[field][fe.Tag()]; ok {
			code = c
		}
		out[field] = code
	}
	return out
}

// rootField strips slice indexes so dive errors attach to the slice field.
func rootField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}
