package slots

import "errors"

var (
	// ErrInvalidWorkingHours возвращается при некорректных часах работы
	ErrInvalidWorkingHours = errors.New("invalid working hours")

	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = errors.New("invalid date")
)
