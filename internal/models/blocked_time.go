package models

import "time"

// BlockedTime is an admin-imposed unavailability record.
// StartTime and EndTime both nil means the whole day is blocked.
type BlockedTime struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	StartTime     *string   `json:"startTime"`
	EndTime       *string   `json:"endTime"`
	IsRecurring   bool      `json:"isRecurring"`
	RecurringType *string   `json:"recurringType"`
	Reason        *string   `json:"reason"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WholeDay reports whether the record blocks the entire date.
func (b BlockedTime) WholeDay() bool {
	return b.StartTime == nil && b.EndTime == nil
}
