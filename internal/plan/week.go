package plan

import (
	"sort"
	"time"
)

// WeekStarts returns the distinct Mondays covering every date key, in order.
// Keys that fail to parse are ignored. With no usable dates the week
// containing ref is returned on its own.
func WeekStarts(dates []string, ref time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	var weeks []time.Time
	for _, ds := range dates {
		d, err := time.Parse(DateLayout, ds)
		if err != nil {
			continue
		}
		m := MondayOf(d)
		if !seen[m] {
			seen[m] = true
			weeks = append(weeks, m)
		}
	}
	if len(weeks) == 0 {
		return []time.Time{MondayOf(ref)}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks
}

// WeekNumber numbers the week starting on monday relative to the plan's
// first week. Weeks before the plan start count as week 1.
func WeekNumber(monday, planStart time.Time) int {
	n := DaysBetween(MondayOf(planStart), MondayOf(monday))/7 + 1
	if n < 1 {
		return 1
	}
	return n
}

// Navigator pages through the weeks of a schedule.
type Navigator struct {
	weeks []time.Time
	pos   int
}

// NewNavigator positions a navigator on the week nearest ref.
func NewNavigator(weeks []time.Time, ref time.Time) *Navigator {
	n := &Navigator{}
	n.Rebuild(weeks, ref)
	return n
}

// Weeks returns a copy of the ordered week starts.
func (n *Navigator) Weeks() []time.Time {
	return append([]time.Time(nil), n.weeks...)
}

// Current returns the selected week's Monday, or the zero time when empty.
func (n *Navigator) Current() time.Time {
	if len(n.weeks) == 0 {
		return time.Time{}
	}
	return n.weeks[n.pos]
}

func (n *Navigator) HasPrev() bool { return n.pos > 0 }

func (n *Navigator) HasNext() bool { return n.pos < len(n.weeks)-1 }

// Prev steps back one week. At the first week it does nothing.
func (n *Navigator) Prev() bool {
	if !n.HasPrev() {
		return false
	}
	n.pos--
	return true
}

// Next steps forward one week. At the last week it does nothing.
func (n *Navigator) Next() bool {
	if !n.HasNext() {
		return false
	}
	n.pos++
	return true
}

// Jump selects the week starting on monday. When that week is not in the
// list the navigator falls back to the week nearest ref and returns false.
func (n *Navigator) Jump(monday, ref time.Time) bool {
	if i, ok := n.find(MondayOf(monday)); ok {
		n.pos = i
		return true
	}
	n.pos = n.fallback(ref)
	return false
}

// Rebuild swaps in a new week list, keeping the selected week when it
// still exists.
func (n *Navigator) Rebuild(weeks []time.Time, ref time.Time) {
	prev := n.Current()
	hadPrev := len(n.weeks) > 0
	n.weeks = append([]time.Time(nil), weeks...)
	n.pos = 0
	if len(n.weeks) == 0 {
		return
	}
	if hadPrev {
		if i, ok := n.find(prev); ok {
			n.pos = i
			return
		}
	}
	n.pos = n.fallback(ref)
}

func (n *Navigator) find(monday time.Time) (int, bool) {
	for i, w := range n.weeks {
		if w.Equal(monday) {
			return i, true
		}
	}
	return 0, false
}

// fallback picks the earliest week at or after ref's week, else the last week.
func (n *Navigator) fallback(ref time.Time) int {
	refWeek := MondayOf(ref)
	for i, w := range n.weeks {
		if !w.Before(refWeek) {
			return i
		}
	}
	return len(n.weeks) - 1
}
