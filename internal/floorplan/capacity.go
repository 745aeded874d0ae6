package floorplan

import "github.com/dinefloor/backend/internal/models"

// Capacity is the aggregate seat capacity of a set of tables.
type Capacity struct {
	Min int `json:"min"`
	Std int `json:"std"`
	Max int `json:"max"`
}

// Add returns the componentwise sum of two capacities.
func (c Capacity) Add(other Capacity) Capacity {
	return Capacity{Min: c.Min + other.Min, Std: c.Std + other.Std, Max: c.Max + other.Max}
}

// Calculate aggregates seat capacity over a set of tables. Each component sums
// a per-table fallback chain: min falls back to std then max, std falls back to
// max, max falls back to std. Missing values count as zero; the result never
// goes negative. Calculate is additive over disjoint table sets.
func Calculate(tables []models.Table) Capacity {
	var c Capacity
	for _, t := range tables {
		c.Min += firstSeats(t.SeatsMin, t.SeatsStd, t.SeatsMax)
		c.Std += firstSeats(t.SeatsStd, t.SeatsMax)
		c.Max += firstSeats(t.SeatsMax, t.SeatsStd)
	}
	if c.Min < 0 {
		c.Min = 0
	}
	if c.Std < 0 {
		c.Std = 0
	}
	if c.Max < 0 {
		c.Max = 0
	}
	return c
}

func firstSeats(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
