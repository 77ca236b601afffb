package submission

import (
	"fmt"
	"net/url"
	"strings"

	"salonbook/internal/models"
)

// ContactConfig configures the manual fallback channel.
type ContactConfig struct {
	WhatsAppNumber  string
	MessageTemplate string
}

const defaultContactTemplate = "Hello, I could not complete my online booking.\nName: %s\nPhone: %s\nDate: %s\nTime: %s\nServices: %s"

// ContactLink builds a wa.me link pre-filled with the booking details. It
// returns "" when no number is configured.
func ContactLink(cfg ContactConfig, form models.BookingFormData, services []models.Service) string {
	number := strings.TrimLeft(digitsOnly(cfg.WhatsAppNumber), "0")
	if number == "" {
		return ""
	}

	byID := make(map[string]models.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}
	names := make([]string, 0, len(form.SelectedServices))
	for _, id := range form.SelectedServices {
		if s, ok := byID[id]; ok {
			names = append(names, s.DisplayName())
		} else {
			names = append(names, id)
		}
	}

	tmpl := cfg.MessageTemplate
	if tmpl == "" {
		tmpl = defaultContactTemplate
	}
	text := fmt.Sprintf(tmpl, form.CustomerName, form.PhoneNumber, form.SelectedDate, form.SelectedTime, strings.Join(names, ", "))
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(text)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
