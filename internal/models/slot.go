package models

// TimeSlot is a single fixed-duration slot on a date.
type TimeSlot struct {
	Time        string `json:"time"`
	IsAvailable bool   `json:"isAvailable"`
	IsBooked    bool   `json:"isBooked"`
	IsBlocked   bool   `json:"isBlocked"`
	IsPast      bool   `json:"isPast"`
}

// WorkingHours describes the daily slot grid. Start and End are HH:MM and both are slots.
type WorkingHours struct {
	Start       string `yaml:"start" json:"start"`
	End         string `yaml:"end" json:"end"`
	SlotMinutes int    `yaml:"slot_minutes" json:"slotDurationMinutes"`
}

// AvailableTimes is the occupancy snapshot for one date as reported by the salon API.
type AvailableTimes struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
	BookedSlots    []string `json:"bookedSlots"`
	BlockedSlots   []string `json:"blockedSlots"`
}
