package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventDisbursement EventType = "Giải ngân"
	EventSettlement   EventType = "Tất toán"
)

// DisbursementSettlementEvent is a settlement or disbursement normalised to a
// common shape so both can be grouped by customer and day.
type DisbursementSettlementEvent struct {
	Customer     CustomerID
	CustomerName string
	ContractRef  string
	Amount       decimal.Decimal
	DisbursedOn  *time.Time
	MaturesOn    *time.Time
	SettledOn    *time.Time
	Currency     string
	Type         EventType
	Date         time.Time
}

// SameDayCount aggregates events per customer and calendar day.
type SameDayCount struct {
	Customer      CustomerID
	Date          time.Time
	Disbursements int
	Settlements   int
}

func (c SameDayCount) Both() bool { return c.Disbursements > 0 && c.Settlements > 0 }

// LateTier buckets a late installment by days overdue.
type LateTier string

const (
	TierNone     LateTier = ""
	TierSevere   LateTier = ">=10"
	TierModerate LateTier = "4-9"
	TierMinor    LateTier = "<4"
)

// Severity orders tiers from most to least severe (0 is most severe).
func (t LateTier) Severity() int {
	switch t {
	case TierSevere:
		return 0
	case TierModerate:
		return 1
	case TierMinor:
		return 2
	}
	return 3
}

// TierFor classifies a lateness in days.
func TierFor(days int) LateTier {
	switch {
	case days >= 10:
		return TierSevere
	case days >= 4:
		return TierModerate
	case days > 0:
		return TierMinor
	}
	return TierNone
}

// PaymentDelayRecord is one due installment of a performing customer.
type PaymentDelayRecord struct {
	Customer      CustomerID
	DueDate       time.Time
	PaidOn        *time.Time
	EffectivePaid time.Time
	DaysLate      int
	Tier          LateTier
	DebtGroup     string
	TotalExposure decimal.Decimal
	// Kept marks the record retained for its (customer, due date) pair.
	Kept bool
}
