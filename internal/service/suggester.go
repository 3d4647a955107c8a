package service

import (
	"github.com/noah-isme/rackbook-api/internal/models"
)

// SuggestBlock finds the lowest run of needed free resources with literally consecutive numbers.
//
// On a zoned pool every member of the run must share one zone, and when the zone of the
// lowest requested number is known the scan is restricted to that zone. Other zones are
// never tried, so a full preferred zone yields nil even if another zone has room.
func SuggestBlock(resources []models.Resource, occupied []int, needed int, requested []int) []int {
	if needed <= 0 || len(resources) < needed {
		return nil
	}
	sorted := append([]models.Resource(nil), resources...)
	models.SortResources(sorted)

	taken := make(map[int]struct{}, len(occupied))
	for _, n := range occupied {
		taken[n] = struct{}{}
	}

	zoned := models.Zoned(sorted)
	var preferred *int
	if zoned && len(requested) > 0 {
		preferred = zoneOf(sorted, models.SortedInts(requested)[0])
	}

	for i := 0; i+needed <= len(sorted); i++ {
		if preferred != nil && !sameZone(sorted[i].Zone, preferred) {
			continue
		}
		if window := tryWindow(sorted[i:i+needed], taken, zoned); window != nil {
			return window
		}
	}
	return nil
}

func tryWindow(slice []models.Resource, taken map[int]struct{}, zoned bool) []int {
	out := make([]int, len(slice))
	for i, r := range slice {
		if i > 0 && r.Number != slice[i-1].Number+1 {
			return nil
		}
		if _, busy := taken[r.Number]; busy {
			return nil
		}
		if zoned && (r.Zone == nil || !sameZone(r.Zone, slice[0].Zone)) {
			return nil
		}
		out[i] = r.Number
	}
	return out
}

func zoneOf(resources []models.Resource, number int) *int {
	for _, r := range resources {
		if r.Number == number {
			return r.Zone
		}
	}
	return nil
}

func sameZone(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
