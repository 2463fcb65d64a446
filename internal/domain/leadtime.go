package domain

import "time"

// DefaultMaxLeadTimeSpan bounds the business-day walk in calendar days
const DefaultMaxLeadTimeSpan = 60

// Holiday is one entry of a carrier's delivery calendar
type Holiday struct {
	CarrierCode  string
	Date         time.Time
	DeliveryMode int // 0 means closed
}

// CarrierBranch carries the standard lead time from a ship origin to a prefecture
type CarrierBranch struct {
	CarrierCode         string
	ShipOrigin          string
	PrefectureCode      string
	StandardLeadTime    int
	HasStandardLeadTime bool
}

// SpecialLeadTime fixes the delivery date for one ship date
type SpecialLeadTime struct {
	CarrierCode    string
	PrefectureCode string
	ShipDate       time.Time
	DeliveryDate   time.Time
}

// Calendar answers whether a carrier delivers on a given day
type Calendar struct {
	closed map[string]bool
}

// NewCalendar builds a calendar from a carrier's holiday rows
func NewCalendar(holidays []Holiday) Calendar {
	cal := Calendar{closed: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		if h.DeliveryMode == 0 {
			cal.closed[DateKey(h.Date)] = true
		}
	}
	return cal
}

// IsClosed reports whether the carrier is closed on day: a weekend or a mode-0 holiday
func (c Calendar) IsClosed(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return c.closed[DateKey(day)]
}

// LeadTimeInput collects what the lead-time engine needs for one carrier
type LeadTimeInput struct {
	Calendar    Calendar
	ShipDate    time.Time
	Branch      *CarrierBranch
	Special     *SpecialLeadTime
	MaxSpanDays int
}

// EstimateLeadTime returns the calendar days from ship date to delivery.
// It returns false when the carrier cannot ship that day or has no lead time.
func EstimateLeadTime(in LeadTimeInput) (int, bool) {
	ship := TruncateDay(in.ShipDate)
	if in.Calendar.IsClosed(ship) {
		return 0, false
	}

	if in.Special != nil {
		days := DaysBetween(ship, in.Special.DeliveryDate)
		if days < 0 {
			return 0, false
		}
		return days, true
	}

	if in.Branch == nil || !in.Branch.HasStandardLeadTime || in.Branch.StandardLeadTime < 0 {
		return 0, false
	}

	maxSpan := in.MaxSpanDays
	if maxSpan <= 0 {
		maxSpan = DefaultMaxLeadTimeSpan
	}

	day := ship
	span, business := 0, 0
	for business < in.Branch.StandardLeadTime {
		day = day.AddDate(0, 0, 1)
		span++
		if span > maxSpan {
			return 0, false
		}
		if !in.Calendar.IsClosed(day) {
			business++
		}
	}
	return span, true
}

// MeetsDeadline reports whether shipping on ship with the given lead time arrives by deadline.
// A nil deadline is always met.
func MeetsDeadline(ship time.Time, leadTime int, deadline *time.Time) bool {
	if deadline == nil {
		return true
	}
	arrival := TruncateDay(ship).AddDate(0, 0, leadTime)
	return !arrival.After(TruncateDay(*deadline))
}
