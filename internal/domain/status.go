package domain

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	StatusOpen      EventStatus = "open"
	StatusFull      EventStatus = "full"
	StatusCancelled EventStatus = "cancelled"
	StatusCompleted EventStatus = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusFull, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Sticky reports whether capacity changes must leave s untouched.
func (s EventStatus) Sticky() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Label is the human readable status shown on event pages.
func (s EventStatus) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusFull:
		return "Full"
	case StatusCancelled:
		return "Cancelled"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// DeriveStatus computes the status an event must have after its capacity or
// participant count changed. Cancelled and completed are kept as they are;
// otherwise the status follows the capacity comparison only. Elapsed time is
// never taken into account: completing an event is an administrator action.
func DeriveStatus(current EventStatus, maxCapacity, participants int) EventStatus {
	if current.Sticky() {
		return current
	}
	if participants >= maxCapacity {
		return StatusFull
	}
	return StatusOpen
}
