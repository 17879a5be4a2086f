package holiday

import "time"

// Holiday is a calendar entry. Read-only to the engine; consulted when a
// session finishes with overtime to pick the applicable multiplier.
type Holiday struct {
	ID           string
	Date         time.Time
	Name         string
	IsWorkingDay bool

	// Overtime multiplier per role; empty role key is the default.
	OvertimeMultipliers map[string]float64

	// Applicability. Empty slices mean all sites / all roles.
	SiteIDs []string
	Roles   []string
}

// MultiplierFor returns the overtime multiplier for a role, falling back to
// the default entry, then 1.
func (h *Holiday) MultiplierFor(role string) float64 {
	if m, ok := h.OvertimeMultipliers[role]; ok {
		return m
	}
	if m, ok := h.OvertimeMultipliers[""]; ok {
		return m
	}
	return 1
}

// AppliesTo reports whether the holiday covers the given site and role.
func (h *Holiday) AppliesTo(siteID, role string) bool {
	if len(h.SiteIDs) > 0 && !contains(h.SiteIDs, siteID) {
		return false
	}
	if len(h.Roles) > 0 && !contains(h.Roles, role) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
