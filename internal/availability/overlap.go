// Package availability decides whether a resource can take another stay.
//
// Intervals are half-open: a stay ending at the instant another begins does not
// overlap it. A turnover buffer extends every stay's end before comparison.
package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Booking is an active stay already holding one unit of a resource.
type Booking struct {
	ID    uuid.UUID
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) collide once both ends are
// extended by buffer.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time, buffer time.Duration) bool {
	return aStart.Before(bEnd.Add(buffer)) && bStart.Before(aEnd.Add(buffer))
}

// Conflicts returns the bookings that leave no room for one more unit on a resource of
// the given capacity during [start,end). An empty result means the stay fits.
//
// For capacity 1 this is every overlapping booking. For larger capacities only the
// bookings present at instants where the load is already at capacity are reported.
func Conflicts(start, end time.Time, capacity int, buffer time.Duration, existing []Booking) []Booking {
	if capacity < 1 {
		capacity = 1
	}

	overlapping := make([]Booking, 0, len(existing))
	for _, b := range existing {
		if Overlaps(start, end, b.Start, b.End, buffer) {
			overlapping = append(overlapping, b)
		}
	}
	if len(overlapping) < capacity {
		return nil
	}

	hit := make(map[uuid.UUID]bool)
	forEachSegment(start, end.Add(buffer), buffer, overlapping, func(covering []Booking) {
		if len(covering)+1 > capacity {
			for _, b := range covering {
				hit[b.ID] = true
			}
		}
	})

	var out []Booking
	for _, b := range overlapping {
		if hit[b.ID] {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

// IsAvailable reports whether one more unit fits on the resource during [start,end).
func IsAvailable(start, end time.Time, capacity int, buffer time.Duration, existing []Booking) bool {
	return len(Conflicts(start, end, capacity, buffer, existing)) == 0
}

// PeakLoad returns the maximum number of bookings simultaneously present in [start,end).
func PeakLoad(start, end time.Time, buffer time.Duration, existing []Booking) int {
	var relevant []Booking
	for _, b := range existing {
		if Overlaps(start, end, b.Start, b.End, buffer) {
			relevant = append(relevant, b)
		}
	}
	peak := 0
	forEachSegment(start, end.Add(buffer), buffer, relevant, func(covering []Booking) {
		if len(covering) > peak {
			peak = len(covering)
		}
	})
	return peak
}

// forEachSegment splits [from,to) at every booking boundary and calls fn with the bookings
// covering each piece. Booking ends are extended by buffer.
func forEachSegment(from, to time.Time, buffer time.Duration, bookings []Booking, fn func([]Booking)) {
	points := []time.Time{from, to}
	for _, b := range bookings {
		s, e := b.Start, b.End.Add(buffer)
		if s.After(from) && s.Before(to) {
			points = append(points, s)
		}
		if e.After(from) && e.Before(to) {
			points = append(points, e)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		if !lo.Before(hi) {
			continue
		}
		var covering []Booking
		for _, b := range bookings {
			if !b.Start.After(lo) && !b.End.Add(buffer).Before(hi) {
				covering = append(covering, b)
			}
		}
		fn(covering)
	}
}

func sortBookings(bs []Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].Start.Equal(bs[j].Start) {
			return bs[i].Start.Before(bs[j].Start)
		}
		return bs[i].ID.String() < bs[j].ID.String()
	})
}

// IDs returns the booking ids in order.
func IDs(bs []Booking) []uuid.UUID {
	ids := make([]uuid.UUID, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	return ids
}
