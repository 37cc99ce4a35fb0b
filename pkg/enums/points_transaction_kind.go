package enums

import "fmt"

// PointsTransactionKind labels an audit row in the points ledger.
type PointsTransactionKind string

const (
	PointsTransactionTicketPurchase PointsTransactionKind = "ticket_purchase"
	PointsTransactionRefund         PointsTransactionKind = "points_refund"
)

var validPointsTransactionKinds = []PointsTransactionKind{
	PointsTransactionTicketPurchase,
	PointsTransactionRefund,
}

// String implements fmt.Stringer.
func (k PointsTransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PointsTransactionKind.
func (k PointsTransactionKind) IsValid() bool {
	for _, candidate := range validPointsTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePointsTransactionKind converts raw input into a PointsTransactionKind.
func ParsePointsTransactionKind(value string) (PointsTransactionKind, error) {
	for _, candidate := range validPointsTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points transaction kind %q", value)
}
