package booking

// Totals is a capacity/occupancy pair for a room, block or dorm.
type Totals struct {
	Capacity   int64 `json:"total_capacity"`
	Population int64 `json:"current_population"`
}

// Free is the number of unoccupied places.
func (t Totals) Free() int64 {
	return t.Capacity - t.Population
}

// Sum adds up the given totals.
func Sum(parts ...Totals) Totals {
	var out Totals
	for _, p := range parts {
		out.Capacity += p.Capacity
		out.Population += p.Population
	}
	return out
}
