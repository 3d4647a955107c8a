package models

import (
	"sort"

	"github.com/lib/pq"
)

// Pool keys seeded at install time. Base is the zoned pool.
const (
	PoolPower = "Power"
	PoolBase  = "Base"
)

// CapacityClass describes how many athletes a rack supports.
type CapacityClass string

const (
	CapacityFull  CapacityClass = "FULL"
	CapacityHalf  CapacityClass = "HALF"
	CapacityStand CapacityClass = "STAND"
)

// Pool is one of the two disjoint resource groups.
type Pool struct {
	ID  int    `db:"id" json:"id"`
	Key string `db:"key" json:"key"`
}

// Resource is a numbered rack belonging to one pool. Zone is fixed at seed time.
type Resource struct {
	ID       int           `db:"id" json:"id"`
	PoolID   int           `db:"pool_id" json:"poolId"`
	Number   int           `db:"number" json:"number"`
	Capacity CapacityClass `db:"capacity" json:"capacity"`
	Zone     *int          `db:"zone" json:"zone,omitempty"`
}

// Area is a bookable floor area tag within a pool.
type Area struct {
	ID         int    `db:"id" json:"id"`
	PoolID     int    `db:"pool_id" json:"poolId"`
	Key        string `db:"key" json:"key"`
	Name       string `db:"name" json:"name"`
	UnitsCount *int   `db:"units_count" json:"unitsCount,omitempty"`
	Bookable   bool   `db:"bookable" json:"bookable"`
}

// Zoned reports whether any resource of the pool carries a zone.
func Zoned(resources []Resource) bool {
	for _, r := range resources {
		if r.Zone != nil {
			return true
		}
	}
	return false
}

// SortResources orders resources by number ascending.
func SortResources(resources []Resource) {
	sort.Slice(resources, func(i, j int) bool { return resources[i].Number < resources[j].Number })
}

// MissingNumbers returns the requested numbers that do not exist in the pool.
func MissingNumbers(resources []Resource, requested []int) []int {
	known := make(map[int]struct{}, len(resources))
	for _, r := range resources {
		known[r.Number] = struct{}{}
	}
	var missing []int
	for _, n := range requested {
		if _, ok := known[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// ToInts converts a postgres integer array into plain ints.
func ToInts(arr pq.Int64Array) []int {
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

// FromInts converts ints into a postgres integer array.
func FromInts(values []int) pq.Int64Array {
	out := make(pq.Int64Array, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

// SortedInts returns a sorted copy.
func SortedInts(values []int) []int {
	out := append([]int(nil), values...)
	sort.Ints(out)
	return out
}
