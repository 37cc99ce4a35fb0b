package enums

import "fmt"

// RaffleStatus tracks a raffle through its lifecycle.
type RaffleStatus string

const (
	RaffleStatusUpcoming  RaffleStatus = "upcoming"
	RaffleStatusActive    RaffleStatus = "active"
	RaffleStatusDrawing   RaffleStatus = "drawing"
	RaffleStatusCompleted RaffleStatus = "completed"
	RaffleStatusCancelled RaffleStatus = "cancelled"
)

var validRaffleStatuses = []RaffleStatus{
	RaffleStatusUpcoming,
	RaffleStatusActive,
	RaffleStatusDrawing,
	RaffleStatusCompleted,
	RaffleStatusCancelled,
}

// String implements fmt.Stringer.
func (s RaffleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RaffleStatus.
func (s RaffleStatus) IsValid() bool {
	for _, candidate := range validRaffleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status allows no further transitions.
func (s RaffleStatus) IsTerminal() bool {
	return s == RaffleStatusCompleted || s == RaffleStatusCancelled
}

// AcceptsEntries reports whether tickets may still be added in this status.
func (s RaffleStatus) AcceptsEntries() bool {
	return s == RaffleStatusUpcoming || s == RaffleStatusActive
}

// ParseRaffleStatus converts raw input into a RaffleStatus.
func ParseRaffleStatus(value string) (RaffleStatus, error) {
	for _, candidate := range validRaffleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid raffle status %q", value)
}
