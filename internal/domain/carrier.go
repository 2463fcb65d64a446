package domain

import "strings"

// Carrier is a freight carrier that can be assigned to a waybill
type Carrier struct {
	Code string
	Name string
}

// NormalizeCarrierCode trims the padding legacy fixed-width columns carry
func NormalizeCarrierCode(code string) string {
	return strings.TrimSpace(code)
}

// IsUnassigned reports whether a stored carrier value means "no carrier yet".
// An empty value is always unassigned; sentinel is the site-configured placeholder.
func IsUnassigned(carrier, sentinel string) bool {
	carrier = NormalizeCarrierCode(carrier)
	if carrier == "" {
		return true
	}
	return sentinel != "" && carrier == NormalizeCarrierCode(sentinel)
}
