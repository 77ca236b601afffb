package models

const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Actor identifies who is driving a booking flow. The upstream API calls it userType.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
)

// ViewMode is the admin dashboard granularity.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

const (
	// DefaultSessionTTL время жизни сессии бронирования в секундах
	DefaultSessionTTL = 2 * 60 * 60

	// DefaultMonthsCount количество месяцев в календаре
	DefaultMonthsCount = 3

	// DefaultSlotMinutes длительность слота
	DefaultSlotMinutes = 30

	DefaultWorkStart = "11:30"
	DefaultWorkEnd   = "18:30"

	DefaultOTPLength = 4

	// AlertQueueBatch размер пачки задач уведомлений
	AlertQueueBatch = 20
)
