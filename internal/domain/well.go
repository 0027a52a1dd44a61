package domain

// RankRow is one row of the rank table; empty strings and a nil rank are nulls
type RankRow struct {
	Job    string
	Pad    string
	Rank   *float64
	Status string
}

// Well is a single job placed on a pad
type Well struct {
	Job    string
	Pad    string
	Rank   int
	Status string
}

// Pad groups wells scheduled together
type Pad struct {
	Name string
	Rank int
	Jobs []string
}

// Interval is the half-open time range [Start, End)
type Interval struct {
	Start float64
	End   float64
}

// Overlaps reports whether the two intervals share any time
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// UnavailabilityRow is one blackout window of a machine
type UnavailabilityRow struct {
	Machine string
	Start   float64
	End     float64
}

// Inputs bundles the tables consumed by one scheduling run
type Inputs struct {
	Tasks          []TaskRow
	Resources      []ResourceRow
	Ranks          []RankRow
	Unavailability []UnavailabilityRow
}
