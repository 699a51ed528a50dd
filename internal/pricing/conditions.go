// Package pricing evaluates tenant pricing and deposit rules against a reservation draft.
//
// Rule conditions are stored as a kind plus a JSON config. Decode turns them into one
// concrete Condition per kind; anything it cannot decode is a configuration error for
// the tenant, never a panic.
package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"tailtown/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	KindAlways            = "ALWAYS"
	KindCostThreshold     = "COST_THRESHOLD"
	KindDateRange         = "DATE_RANGE"
	KindDayOfWeek         = "DAY_OF_WEEK"
	KindAdvanceBooking    = "ADVANCE_BOOKING"
	KindFirstTimeCustomer = "FIRST_TIME_CUSTOMER"
	KindServiceCategory   = "SERVICE_CATEGORY"
	KindLengthOfStay      = "LENGTH_OF_STAY"
)

// Draft is the reservation being priced. BookedAt is an input so evaluation is repeatable.
type Draft struct {
	CustomerID        uuid.UUID
	ServiceCategory   string
	ResourceType      string
	StartDate         time.Time
	EndDate           time.Time
	BookedAt          time.Time
	TotalCost         decimal.Decimal
	FirstTimeCustomer bool
}

// Nights is the number of overnight stays, at least one.
func (d Draft) Nights() int {
	n := int(math.Ceil(d.EndDate.Sub(d.StartDate).Hours() / 24))
	if n < 1 {
		return 1
	}
	return n
}

// Condition is a decoded rule predicate.
type Condition interface {
	Kind() string
	Matches(d Draft) bool
}

type alwaysCondition struct{}

func (alwaysCondition) Kind() string       { return KindAlways }
func (alwaysCondition) Matches(Draft) bool { return true }

type costThreshold struct {
	Min *decimal.Decimal `json:"min_amount"`
	Max *decimal.Decimal `json:"max_amount"`
}

func (costThreshold) Kind() string { return KindCostThreshold }

func (c costThreshold) Matches(d Draft) bool {
	if c.Min != nil && d.TotalCost.LessThan(*c.Min) {
		return false
	}
	if c.Max != nil && d.TotalCost.GreaterThan(*c.Max) {
		return false
	}
	return true
}

type dateRange struct {
	From string `json:"from"`
	To   string `json:"to"`

	from time.Time
	to   time.Time
}

func (dateRange) Kind() string { return KindDateRange }

// Matches when the stay starts on a date within [From, To], both days inclusive.
func (c dateRange) Matches(d Draft) bool {
	return !d.StartDate.Before(c.from) && d.StartDate.Before(c.to.AddDate(0, 0, 1))
}

type dayOfWeek struct {
	Days []string `json:"days"`

	set map[time.Weekday]bool
}

func (dayOfWeek) Kind() string { return KindDayOfWeek }

// Matches when the stay touches one of the listed weekdays. The checkout day is not counted.
func (c dayOfWeek) Matches(d Draft) bool {
	cur := d.StartDate
	for i := 0; i < 366; i++ {
		if c.set[cur.Weekday()] {
			return true
		}
		cur = cur.AddDate(0, 0, 1)
		if !cur.Before(d.EndDate) {
			break
		}
	}
	return false
}

type advanceBooking struct {
	MinDays *int `json:"min_days"`
	MaxDays *int `json:"max_days"`
}

func (advanceBooking) Kind() string { return KindAdvanceBooking }

func (c advanceBooking) Matches(d Draft) bool {
	days := DaysBetween(d.BookedAt, d.StartDate)
	if c.MinDays != nil && days < *c.MinDays {
		return false
	}
	if c.MaxDays != nil && days > *c.MaxDays {
		return false
	}
	return true
}

type firstTimeCustomer struct{}

func (firstTimeCustomer) Kind() string         { return KindFirstTimeCustomer }
func (firstTimeCustomer) Matches(d Draft) bool { return d.FirstTimeCustomer }

type serviceCategory struct {
	Categories []string `json:"categories"`
}

func (serviceCategory) Kind() string { return KindServiceCategory }

func (c serviceCategory) Matches(d Draft) bool {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat, d.ServiceCategory) {
			return true
		}
	}
	return false
}

type lengthOfStay struct {
	MinNights *int `json:"min_nights"`
	MaxNights *int `json:"max_nights"`
}

func (lengthOfStay) Kind() string { return KindLengthOfStay }

func (c lengthOfStay) Matches(d Draft) bool {
	n := d.Nights()
	if c.MinNights != nil && n < *c.MinNights {
		return false
	}
	if c.MaxNights != nil && n > *c.MaxNights {
		return false
	}
	return true
}

// DaysBetween counts whole days from -> to, rounding down. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// Decode validates a stored condition and returns its predicate.
func Decode(rc models.RuleCondition) (Condition, error) {
	kind := strings.ToUpper(strings.TrimSpace(rc.Kind))
	switch kind {
	case KindAlways:
		return alwaysCondition{}, nil

	case KindFirstTimeCustomer:
		return firstTimeCustomer{}, nil

	case KindCostThreshold:
		var c costThreshold
		if err := decodeConfig(rc, &c); err != nil {
			return nil, err
		}
		if c.Min == nil && c.Max == nil {
			return nil, fmt.Errorf("%s needs min_amount or max_amount", kind)
		}
		if c.Min != nil && c.Max != nil && c.Min.GreaterThan(*c.Max) {
			return nil, fmt.Errorf("%s min_amount exceeds max_amount", kind)
		}
		return c, nil

	case KindDateRange:
		var c dateRange
		if err := decodeConfig(rc, &c); err != nil {
			return nil, err
		}
		from, err := time.Parse("2006-01-02", c.From)
		if err != nil {
			return nil, fmt.Errorf("%s from must be YYYY-MM-DD", kind)
		}
		to, err := time.Parse("2006-01-02", c.To)
		if err != nil {
			return nil, fmt.Errorf("%s to must be YYYY-MM-DD", kind)
		}
		if to.Before(from) {
			return nil, fmt.Errorf("%s to precedes from", kind)
		}
		c.from, c.to = from, to
		return c, nil

	case KindDayOfWeek:
		var c dayOfWeek
		if err := decodeConfig(rc, &c); err != nil {
			return nil, err
		}
		if len(c.Days) == 0 {
			return nil, fmt.Errorf("%s needs at least one day", kind)
		}
		c.set = make(map[time.Weekday]bool, len(c.Days))
		for _, name := range c.Days {
			wd, ok := weekdays[strings.ToUpper(name)]
			if !ok {
				return nil, fmt.Errorf("%s has unknown day %q", kind, name)
			}
			c.set[wd] = true
		}
		return c, nil

	case KindAdvanceBooking:
		var c advanceBooking
		if err := decodeConfig(rc, &c); err != nil {
			return nil, err
		}
		if c.MinDays == nil && c.MaxDays == nil {
			return nil, fmt.Errorf("%s needs min_days or max_days", kind)
		}
		return c, nil

	case KindServiceCategory:
		var c serviceCategory
		if err := decodeConfig(rc, &c); err != nil {
			return nil, err
		}
		if len(c.Categories) == 0 {
			return nil, fmt.Errorf("%s needs at least one category", kind)
		}
		return c, nil

	case KindLengthOfStay:
		var c lengthOfStay
		if err := decodeConfig(rc, &c); err != nil {
			return nil, err
		}
		if c.MinNights == nil && c.MaxNights == nil {
			return nil, fmt.Errorf("%s needs min_nights or max_nights", kind)
		}
		return c, nil

	case "":
		return nil, fmt.Errorf("condition kind is required")
	}
	return nil, fmt.Errorf("unknown condition kind %q", rc.Kind)
}

func decodeConfig(rc models.RuleCondition, dst any) error {
	if len(rc.Config) == 0 {
		return fmt.Errorf("%s needs a config object", strings.ToUpper(rc.Kind))
	}
	if err := json.Unmarshal(rc.Config, dst); err != nil {
		return fmt.Errorf("%s config is malformed: %v", strings.ToUpper(rc.Kind), err)
	}
	return nil
}
