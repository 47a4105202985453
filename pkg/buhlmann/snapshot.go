package buhlmann

import "fmt"

// Snapshot is a saved model state. It is a comparable value: two snapshots
// taken from identical states are equal with ==.
type Snapshot struct {
	Algorithm Algorithm
	Nitrogen  [Compartments]float64
	Helium    [Compartments]float64
	FirstStop float64
}

// Snapshot captures the current compartment loadings
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Algorithm: m.algorithm,
		Nitrogen:  m.nitrogen,
		Helium:    m.helium,
		FirstStop: m.firstStop,
	}
}

// Restore replaces the model state with a snapshot. Restoring a snapshot
// taken from a different algorithm is a programming error and panics.
func (m *Model) Restore(s Snapshot) {
	if s.Algorithm != m.algorithm {
		panic(fmt.Sprintf("buhlmann: cannot restore %v snapshot into %v model", s.Algorithm, m.algorithm))
	}
	m.nitrogen = s.Nitrogen
	m.helium = s.Helium
	m.firstStop = s.FirstStop
}
