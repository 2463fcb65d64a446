package domain

import (
	"sort"
	"strings"
	"time"
)

// ReferenceData is the raw reference rows loaded for one request
type ReferenceData struct {
	Carriers          []Carrier
	FeeRules          []FeeRule
	Capacities        []Capacity
	SpecialCapacities []SpecialCapacity
	Holidays          []Holiday
	Branches          []CarrierBranch
	SpecialLeadTimes  []SpecialLeadTime
}

// ReferenceContext indexes reference data for the pure selection engines
type ReferenceContext struct {
	carriers          []Carrier
	shipOrigin        string
	maxLeadTimeSpan   int
	feeRules          map[string][]FeeRule
	capacities        map[string]Capacity
	specialCapacities map[string]SpecialCapacity
	calendars         map[string]Calendar
	branches          map[string]CarrierBranch
	specialLeadTimes  map[string]SpecialLeadTime
}

// NewReferenceContext indexes data. Only branches for shipOrigin are kept.
func NewReferenceContext(data ReferenceData, shipOrigin string, maxLeadTimeSpan int) *ReferenceContext {
	rc := &ReferenceContext{
		shipOrigin:        shipOrigin,
		maxLeadTimeSpan:   maxLeadTimeSpan,
		feeRules:          make(map[string][]FeeRule),
		capacities:        make(map[string]Capacity),
		specialCapacities: make(map[string]SpecialCapacity),
		calendars:         make(map[string]Calendar),
		branches:          make(map[string]CarrierBranch),
		specialLeadTimes:  make(map[string]SpecialLeadTime),
	}

	rc.carriers = append(rc.carriers, data.Carriers...)
	sort.Slice(rc.carriers, func(i, j int) bool { return rc.carriers[i].Code < rc.carriers[j].Code })

	for _, r := range data.FeeRules {
		k := key(r.CarrierCode, r.AreaCode)
		rc.feeRules[k] = append(rc.feeRules[k], r)
	}
	for _, c := range data.Capacities {
		rc.capacities[c.CarrierCode] = c
	}
	for _, s := range data.SpecialCapacities {
		rc.specialCapacities[key(s.CarrierCode, DateKey(s.Date))] = s
	}

	holidays := make(map[string][]Holiday)
	for _, h := range data.Holidays {
		holidays[h.CarrierCode] = append(holidays[h.CarrierCode], h)
	}
	for code, hs := range holidays {
		rc.calendars[code] = NewCalendar(hs)
	}

	for _, b := range data.Branches {
		if shipOrigin != "" && b.ShipOrigin != shipOrigin {
			continue
		}
		rc.branches[key(b.CarrierCode, b.PrefectureCode)] = b
	}
	for _, s := range data.SpecialLeadTimes {
		rc.specialLeadTimes[key(s.CarrierCode, s.PrefectureCode, DateKey(s.ShipDate))] = s
	}
	return rc
}

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

// Carriers returns all carriers ordered by code
func (rc *ReferenceContext) Carriers() []Carrier {
	return rc.carriers
}

// Carrier looks up a carrier by code
func (rc *ReferenceContext) Carrier(code string) (Carrier, bool) {
	for _, c := range rc.carriers {
		if c.Code == code {
			return c, true
		}
	}
	return Carrier{}, false
}

// FeeRules returns a carrier's rules for an area
func (rc *ReferenceContext) FeeRules(carrierCode, areaCode string) []FeeRule {
	return rc.feeRules[key(carrierCode, areaCode)]
}

// Capacity returns the general capacity record, nil when unlimited
func (rc *ReferenceContext) Capacity(carrierCode string) *Capacity {
	if c, ok := rc.capacities[carrierCode]; ok {
		return &c
	}
	return nil
}

// SpecialCapacity returns the date override, nil when absent
func (rc *ReferenceContext) SpecialCapacity(carrierCode string, date time.Time) *SpecialCapacity {
	if s, ok := rc.specialCapacities[key(carrierCode, DateKey(date))]; ok {
		return &s
	}
	return nil
}

// Calendar returns the carrier's delivery calendar
func (rc *ReferenceContext) Calendar(carrierCode string) Calendar {
	return rc.calendars[carrierCode]
}

// Branch returns the branch serving a prefecture from the configured origin
func (rc *ReferenceContext) Branch(carrierCode, prefecture string) *CarrierBranch {
	if b, ok := rc.branches[key(carrierCode, prefecture)]; ok {
		return &b
	}
	return nil
}

// SpecialLeadTime returns the fixed delivery date override, nil when absent
func (rc *ReferenceContext) SpecialLeadTime(carrierCode, prefecture string, shipDate time.Time) *SpecialLeadTime {
	if s, ok := rc.specialLeadTimes[key(carrierCode, prefecture, DateKey(shipDate))]; ok {
		return &s
	}
	return nil
}

// LeadTime runs the lead-time engine for one carrier
func (rc *ReferenceContext) LeadTime(carrierCode, prefecture string, shipDate time.Time) (int, bool) {
	return EstimateLeadTime(LeadTimeInput{
		Calendar:    rc.Calendar(carrierCode),
		ShipDate:    shipDate,
		Branch:      rc.Branch(carrierCode, prefecture),
		Special:     rc.SpecialLeadTime(carrierCode, prefecture, shipDate),
		MaxSpanDays: rc.maxLeadTimeSpan,
	})
}
