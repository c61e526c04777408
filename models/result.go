package models

import "fmt"

// EntryState tracks where a ResultSet entry is in its lifecycle
type EntryState int

const (
	// Unset entries have never been produced
	Unset EntryState = iota
	// Empty entries were cleared by a generate that has not populated them
	Empty
	// Populated entries hold a Percept
	Populated
)

func (s EntryState) String() string {
	switch s {
	case Unset:
		return "unset"
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	default:
		return fmt.Sprintf("EntryState(%d)", int(s))
	}
}

type entry struct {
	state   EntryState
	percept *Percept
}

// ResultSet maps every implant to its latest output.
// The key set is fixed; a ResultSet is a value and copies independently
type ResultSet struct {
	entries [3]entry
}

// NewResultSet returns a result set with every entry unset
func NewResultSet() ResultSet {
	return ResultSet{}
}

// Keys returns the fixed key set in display order
func (r ResultSet) Keys() []Implant {
	keys := make([]Implant, len(Implants))
	copy(keys, Implants)
	return keys
}

// Clear moves every entry to Empty
func (r *ResultSet) Clear() {
	for n := range r.entries {
		r.entries[n] = entry{state: Empty}
	}
}

// Set populates one entry
func (r *ResultSet) Set(key Implant, p *Percept) error {
	n := key.index()
	if n < 0 {
		return fmt.Errorf("unknown implant %q", key)
	}
	if p == nil {
		r.entries[n] = entry{state: Empty}
		return nil
	}
	r.entries[n] = entry{state: Populated, percept: p}
	return nil
}

// Populate sets every entry at once. Nothing changes unless all keys are present
func (r *ResultSet) Populate(percepts map[Implant]*Percept) error {
	for _, key := range Implants {
		if percepts[key] == nil {
			return fmt.Errorf("missing result for %s", key)
		}
	}
	for key := range percepts {
		if key.index() < 0 {
			return fmt.Errorf("unknown implant %q", key)
		}
	}
	for _, key := range Implants {
		r.entries[key.index()] = entry{state: Populated, percept: percepts[key]}
	}
	return nil
}

// Get returns the entry's Percept, or nil when it is not populated
func (r ResultSet) Get(key Implant) *Percept {
	n := key.index()
	if n < 0 {
		return nil
	}
	return r.entries[n].percept
}

// State returns the lifecycle state of an entry. Unknown keys report Unset
func (r ResultSet) State(key Implant) EntryState {
	n := key.index()
	if n < 0 {
		return Unset
	}
	return r.entries[n].state
}

// PopulatedKeys returns the keys that currently hold a Percept, in display order
func (r ResultSet) PopulatedKeys() []Implant {
	var keys []Implant
	for _, key := range Implants {
		if r.entries[key.index()].state == Populated {
			keys = append(keys, key)
		}
	}
	return keys
}
