package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is a resource that could host a shifted stay, with its current active bookings.
type Candidate struct {
	ResourceID uuid.UUID
	Capacity   int
	Bookings   []Booking
}

// Suggestion is an alternative window with free capacity.
type Suggestion struct {
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	OffsetDays     int             `json:"offset_days"`
	AvailableCount int             `json:"available_count"`
	ResourceIDs    []uuid.UUID     `json:"resource_ids"`
	Price          decimal.Decimal `json:"price"`
}

// SuggestOptions bounds the alternative search.
type SuggestOptions struct {
	SearchDays int
	MaxResults int
	Buffer     time.Duration
	// Now excludes windows starting before the current day.
	Now time.Time
	// Price quotes a window; nil prices every window at zero.
	Price func(start, end time.Time) decimal.Decimal
}

// SuggestAlternatives shifts [start,end) by whole days in both directions and collects the
// windows where at least one candidate has room. Results are ordered by distance from the
// requested dates, then by available count (more first), then by price (cheaper first).
func SuggestAlternatives(start, end time.Time, candidates []Candidate, opts SuggestOptions) []Suggestion {
	if opts.MaxResults <= 0 || len(candidates) == 0 {
		return nil
	}

	var today time.Time
	if !opts.Now.IsZero() {
		y, m, d := opts.Now.In(start.Location()).Date()
		today = time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	}

	var out []Suggestion
	for offset := -opts.SearchDays; offset <= opts.SearchDays; offset++ {
		s := start.AddDate(0, 0, offset)
		e := end.AddDate(0, 0, offset)
		if !today.IsZero() && s.Before(today) {
			continue
		}

		free := 0
		var ids []uuid.UUID
		for _, c := range candidates {
			capacity := c.Capacity
			if capacity < 1 {
				capacity = 1
			}
			room := capacity - PeakLoad(s, e, opts.Buffer, c.Bookings)
			if room > 0 {
				free += room
				ids = append(ids, c.ResourceID)
			}
		}
		if free == 0 {
			continue
		}

		price := decimal.Zero
		if opts.Price != nil {
			price = opts.Price(s, e)
		}
		out = append(out, Suggestion{
			StartDate:      s,
			EndDate:        e,
			OffsetDays:     offset,
			AvailableCount: free,
			ResourceIDs:    ids,
			Price:          price,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if da, db := abs(a.OffsetDays), abs(b.OffsetDays); da != db {
			return da < db
		}
		if a.AvailableCount != b.AvailableCount {
			return a.AvailableCount > b.AvailableCount
		}
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price)
		}
		return a.StartDate.Before(b.StartDate)
	})

	if len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
