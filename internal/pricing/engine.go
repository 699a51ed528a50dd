package pricing

import (
	"fmt"
	"sort"
	"strings"

	"tailtown/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RuleConfigError describes a stored rule that could not be evaluated.
type RuleConfigError struct {
	RuleID   uuid.UUID `json:"rule_id"`
	RuleName string    `json:"rule_name"`
	Message  string    `json:"message"`
}

func (e RuleConfigError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.RuleName, e.Message)
}

// DepositQuote is the outcome of deposit rule evaluation.
type DepositQuote struct {
	DepositRequired bool                `json:"deposit_required"`
	Amount          decimal.Decimal     `json:"amount"`
	DepositType     string              `json:"deposit_type"`
	Value           decimal.Decimal     `json:"value"`
	RefundPolicy    models.RefundPolicy `json:"refund_policy"`
	MatchedRuleID   *uuid.UUID          `json:"matched_rule_id,omitempty"`
	MatchedRuleName string              `json:"matched_rule_name,omitempty"`
	UsedDefault     bool                `json:"used_default"`
	ConfigErrors    []RuleConfigError   `json:"config_errors,omitempty"`
}

// EvaluateDeposit picks the deposit for d. Active rules are tried in ascending priority and
// the first match wins; without a match the tenant default applies. Rules with bad
// configuration are skipped and reported on the quote.
func EvaluateDeposit(rules []models.DepositRule, settings *models.TenantSettings, d Draft) DepositQuote {
	ordered := make([]models.DepositRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ruleLess(ordered[i].Priority, ordered[j].Priority, ordered[i].Name, ordered[j].Name, ordered[i].ID, ordered[j].ID)
	})

	var configErrs []RuleConfigError
	for _, rule := range ordered {
		if !rule.IsActive {
			continue
		}
		cond, err := Decode(rule.Condition)
		if err != nil {
			configErrs = append(configErrs, RuleConfigError{RuleID: rule.ID, RuleName: rule.Name, Message: err.Error()})
			continue
		}
		if err := ValidateDepositEffect(rule.DepositType, rule.DepositValue, rule.RefundPolicy); err != nil {
			configErrs = append(configErrs, RuleConfigError{RuleID: rule.ID, RuleName: rule.Name, Message: err.Error()})
			continue
		}
		if !cond.Matches(d) {
			continue
		}

		id := rule.ID
		q := depositFor(rule.DepositType, rule.DepositValue, rule.RefundPolicy, d.TotalCost)
		q.MatchedRuleID = &id
		q.MatchedRuleName = rule.Name
		q.ConfigErrors = configErrs
		return q
	}

	if settings == nil {
		settings = models.DefaultTenantSettings(uuid.Nil)
	}
	depositType := settings.DefaultDepositType
	value := settings.DefaultDepositValue
	policy := settings.DefaultRefundPolicy
	if err := ValidateDepositEffect(depositType, value, policy); err != nil {
		configErrs = append(configErrs, RuleConfigError{RuleName: "tenant default", Message: err.Error()})
		depositType, value, policy = models.DepositTypeNone, decimal.Zero, models.RefundPolicy{Type: models.RefundTypeFull}
	}

	q := depositFor(depositType, value, policy, d.TotalCost)
	q.UsedDefault = true
	q.ConfigErrors = configErrs
	return q
}

func depositFor(depositType string, value decimal.Decimal, policy models.RefundPolicy, total decimal.Decimal) DepositQuote {
	depositType = strings.ToUpper(depositType)
	amount := decimal.Zero
	switch depositType {
	case models.DepositTypePercentage:
		amount = total.Mul(value).Div(hundred)
	case models.DepositTypeFixed:
		amount = decimal.Min(value, total)
	case models.DepositTypeFull:
		amount = total
	}
	amount = amount.Round(2)
	return DepositQuote{
		DepositRequired: amount.IsPositive(),
		Amount:          amount,
		DepositType:     depositType,
		Value:           value,
		RefundPolicy:    policy,
	}
}

// ValidateDepositEffect checks a deposit type, value and refund policy.
func ValidateDepositEffect(depositType string, value decimal.Decimal, policy models.RefundPolicy) error {
	switch strings.ToUpper(depositType) {
	case models.DepositTypePercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return fmt.Errorf("percentage deposit must be between 0 and 100")
		}
	case models.DepositTypeFixed:
		if value.IsNegative() {
			return fmt.Errorf("fixed deposit cannot be negative")
		}
	case models.DepositTypeFull, models.DepositTypeNone:
	default:
		return fmt.Errorf("unknown deposit type %q", depositType)
	}
	return ValidateRefundPolicy(policy)
}

// PriceAdjustment is one applied pricing rule.
type PriceAdjustment struct {
	RuleID   uuid.UUID       `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	Type     string          `json:"type"`
	Value    decimal.Decimal `json:"value"`
	Amount   decimal.Decimal `json:"amount"`
}

// PriceQuote is the priced reservation.
type PriceQuote struct {
	Units        decimal.Decimal   `json:"units"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	BaseAmount   decimal.Decimal   `json:"base_amount"`
	Adjustments  []PriceAdjustment `json:"adjustments"`
	Total        decimal.Decimal   `json:"total"`
	MatchMode    string            `json:"match_mode"`
	ConfigErrors []RuleConfigError `json:"config_errors,omitempty"`
}

// QuotePrice prices d for the given service. In FIRST_MATCH mode only the highest
// priority matching rule applies; in CUMULATIVE mode every matching rule applies, each
// computed against the base amount. Cost thresholds compare against the base amount.
func QuotePrice(rules []models.PricingRule, mode string, service *models.Service, d Draft) PriceQuote {
	units := BillableUnits(service.PriceUnit, d)
	base := service.BasePrice.Mul(units).Round(2)
	d.TotalCost = base

	if mode != models.PricingMatchCumulative {
		mode = models.PricingMatchFirst
	}

	ordered := make([]models.PricingRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ruleLess(ordered[i].Priority, ordered[j].Priority, ordered[i].Name, ordered[j].Name, ordered[i].ID, ordered[j].ID)
	})

	q := PriceQuote{
		Units:       units,
		UnitPrice:   service.BasePrice,
		BaseAmount:  base,
		Adjustments: []PriceAdjustment{},
		MatchMode:   mode,
	}

	total := base
	for _, rule := range ordered {
		if !rule.IsActive {
			continue
		}
		cond, err := Decode(rule.Condition)
		if err != nil {
			q.ConfigErrors = append(q.ConfigErrors, RuleConfigError{RuleID: rule.ID, RuleName: rule.Name, Message: err.Error()})
			continue
		}
		if err := ValidateAdjustment(rule.AdjustmentType, rule.AdjustmentValue); err != nil {
			q.ConfigErrors = append(q.ConfigErrors, RuleConfigError{RuleID: rule.ID, RuleName: rule.Name, Message: err.Error()})
			continue
		}
		if !cond.Matches(d) {
			continue
		}

		amount := adjustmentAmount(rule.AdjustmentType, rule.AdjustmentValue, base)
		q.Adjustments = append(q.Adjustments, PriceAdjustment{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Type:     strings.ToUpper(rule.AdjustmentType),
			Value:    rule.AdjustmentValue,
			Amount:   amount,
		})
		total = total.Add(amount)

		if mode == models.PricingMatchFirst {
			break
		}
	}

	if total.IsNegative() {
		total = decimal.Zero
	}
	q.Total = total.Round(2)
	return q
}

func adjustmentAmount(adjType string, value, base decimal.Decimal) decimal.Decimal {
	switch strings.ToUpper(adjType) {
	case models.AdjustPercentDiscount:
		return base.Mul(value).Div(hundred).Round(2).Neg()
	case models.AdjustPercentSurcharge:
		return base.Mul(value).Div(hundred).Round(2)
	case models.AdjustFixedDiscount:
		return value.Round(2).Neg()
	case models.AdjustFixedSurcharge:
		return value.Round(2)
	}
	return decimal.Zero
}

// ValidateAdjustment checks a pricing rule adjustment.
func ValidateAdjustment(adjType string, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("adjustment value cannot be negative")
	}
	switch strings.ToUpper(adjType) {
	case models.AdjustPercentDiscount:
		if value.GreaterThan(hundred) {
			return fmt.Errorf("percent discount cannot exceed 100")
		}
	case models.AdjustPercentSurcharge, models.AdjustFixedDiscount, models.AdjustFixedSurcharge:
	default:
		return fmt.Errorf("unknown adjustment type %q", adjType)
	}
	return nil
}

// BillableUnits converts a stay into the quantity the service price is charged for.
func BillableUnits(priceUnit string, d Draft) decimal.Decimal {
	switch priceUnit {
	case models.PriceUnitPerNight:
		return decimal.NewFromInt(int64(d.Nights()))
	case models.PriceUnitPerDay:
		last := d.EndDate
		if last.After(d.StartDate) {
			last = last.Add(-1)
		}
		days := 1
		ys, ms, ds := d.StartDate.Date()
		ye, me, de := last.Date()
		startDay := timeDate(ys, int(ms), ds)
		endDay := timeDate(ye, int(me), de)
		if n := DaysBetween(startDay, endDay) + 1; n > days {
			days = n
		}
		return decimal.NewFromInt(int64(days))
	}
	return decimal.NewFromInt(1)
}

func ruleLess(pa, pb int, na, nb string, ia, ib uuid.UUID) bool {
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return ia.String() < ib.String()
}
