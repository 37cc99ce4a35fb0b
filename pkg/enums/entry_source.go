package enums

import "fmt"

// EntrySource records how a raffle entry came to exist.
type EntrySource string

const (
	EntrySourcePurchased EntrySource = "purchased"
	EntrySourceGranted   EntrySource = "granted"
)

var validEntrySources = []EntrySource{
	EntrySourcePurchased,
	EntrySourceGranted,
}

// String implements fmt.Stringer.
func (e EntrySource) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntrySource.
func (e EntrySource) IsValid() bool {
	for _, candidate := range validEntrySources {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntrySource converts raw input into an EntrySource.
func ParseEntrySource(value string) (EntrySource, error) {
	for _, candidate := range validEntrySources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry source %q", value)
}
