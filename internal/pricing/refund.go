package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tailtown/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateRefundPolicy checks a refund policy's type and tiers.
func ValidateRefundPolicy(p models.RefundPolicy) error {
	switch strings.ToUpper(p.Type) {
	case models.RefundTypeFull, models.RefundTypeNone:
		return nil
	case models.RefundTypeTiered:
		if len(p.Tiers) == 0 {
			return fmt.Errorf("tiered refund policy needs at least one tier")
		}
		seen := make(map[int]bool, len(p.Tiers))
		for _, t := range p.Tiers {
			if t.DaysBeforeStart < 0 {
				return fmt.Errorf("refund tier days_before_start cannot be negative")
			}
			if t.RefundPercent.IsNegative() || t.RefundPercent.GreaterThan(hundred) {
				return fmt.Errorf("refund tier percent must be between 0 and 100")
			}
			if seen[t.DaysBeforeStart] {
				return fmt.Errorf("duplicate refund tier for %d days", t.DaysBeforeStart)
			}
			seen[t.DaysBeforeStart] = true
		}
		return nil
	case "":
		return fmt.Errorf("refund policy type is required")
	}
	return fmt.Errorf("unknown refund policy type %q", p.Type)
}

// RefundPercent returns the share of the deposit refunded when cancelling at cancelledAt.
//
// For tiered policies the applicable tier is the one with the largest threshold that the
// actual notice still meets. Cancelling with less notice than every tier refunds nothing.
func RefundPercent(p models.RefundPolicy, start, cancelledAt time.Time) decimal.Decimal {
	switch strings.ToUpper(p.Type) {
	case models.RefundTypeFull:
		return hundred
	case models.RefundTypeTiered:
		days := DaysBetween(cancelledAt, start)
		tiers := make([]models.RefundTier, len(p.Tiers))
		copy(tiers, p.Tiers)
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].DaysBeforeStart > tiers[j].DaysBeforeStart })
		for _, t := range tiers {
			if t.DaysBeforeStart <= days {
				return t.RefundPercent
			}
		}
	}
	return decimal.Zero
}

// RefundAmount applies RefundPercent to a paid deposit.
func RefundAmount(p models.RefundPolicy, deposit decimal.Decimal, start, cancelledAt time.Time) decimal.Decimal {
	return deposit.Mul(RefundPercent(p, start, cancelledAt)).Div(hundred).Round(2)
}

func timeDate(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
