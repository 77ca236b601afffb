package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Denylisted numbers that pass the format check but are never real subscribers.
var fakePhones = map[string]bool{
	"5012345678": true,
	"5123456789": true,
	"5987654321": true,
	"5432109876": true,
}

var placeholderNames = map[string]bool{
	"test": true, "deneme": true, "asdf": true, "qwerty": true, "admin": true,
	"user": true, "name": true, "isim": true, "ad soyad": true, "adsoyad": true,
	"abc": true, "xxx": true, "aaa": true, "müşteri": true, "musteri": true,
	"customer": true, "test test": true, "deneme deneme": true,
}

// NormalizePhone strips formatting and the country or trunk prefix, yielding
// the 10-digit national form (5XXXXXXXXX) when the input is a Turkish mobile.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "90"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	return digits
}

// NormalizeName trims and collapses inner whitespace.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func isFakePhone(phone string) bool {
	if fakePhones[phone] {
		return true
	}
	if len(phone) != 10 {
		return false
	}
	// 5 followed by nine identical digits: 5000000000, 5555555555, ...
	return strings.Count(phone[1:], phone[1:2]) == 9
}

func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		r = unicode.ToLower(r)
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

type contactInput struct {
	PhoneNumber  string `json:"phoneNumber" validate:"required,tr_mobile,real_phone"`
	CustomerName string `json:"customerName" validate:"required,min=2,max=50,name_chars,name_repeat,name_placeholder"`
}

// Contact validates the phone and name pair required before an OTP is sent.
func Contact(phone, name string) Errors {
	return Struct(contactInput{
		PhoneNumber:  NormalizePhone(phone),
		CustomerName: NormalizeName(name),
	})
}

// Phone validates a single phone number.
func Phone(phone string) Errors {
	return field("phoneNumber", NormalizePhone(phone), "required,tr_mobile,real_phone")
}

// OTP validates that code is exactly length digits.
func OTP(code string, length int) Errors {
	return field("otpCode", code, fmt.Sprintf("required,digits,len=%d", length))
}

func field(name, value, tags string) Errors {
	err := validate.Var(value, tags)
	if err == nil {
		return nil
	}
	code := CodeInvalid
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		if c, ok := tagCodes[name][verrs[0].Tag()]; ok {
			code = c
		}
	}
	return Errors{name: code}
}
