package models

import (
	"errors"
	"fmt"
)

// SpeciesID identifies an entry in the species duration table.
type SpeciesID string

const (
	SpeciesChicken SpeciesID = "chicken"
	SpeciesDuck    SpeciesID = "duck"
	SpeciesQuail   SpeciesID = "quail"
	SpeciesGoose   SpeciesID = "goose"
)

// ErrUnknownSpecies indicates a batch references a species that is not in the
// duration table. Scheduling must not proceed with a guessed duration.
var ErrUnknownSpecies = errors.New("unknown species")

// Species holds the immutable incubation reference data for one species.
// StopTurningDay and LockdownDay are day offsets from insertion; zero means
// the milestone is not configured for the species.
type Species struct {
	ID             SpeciesID `bson:"id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	IncubationDays int       `bson:"incubation_days" json:"incubation_days"`
	StopTurningDay int       `bson:"stop_turning_day,omitempty" json:"stop_turning_day,omitempty"`
	LockdownDay    int       `bson:"lockdown_day,omitempty" json:"lockdown_day,omitempty"`
}

// SpeciesTable is the read-only lookup used by the scheduling engine. It is
// built once at startup and shared; it has no mutating methods.
type SpeciesTable struct {
	byID    map[SpeciesID]Species
	ordered []SpeciesID
}

// NewSpeciesTable validates the provided entries and builds a lookup table.
func NewSpeciesTable(entries []Species) (*SpeciesTable, error) {
	table := &SpeciesTable{byID: make(map[SpeciesID]Species, len(entries))}

	for _, sp := range entries {
		if sp.ID == "" {
			return nil, errors.New("species id must not be empty")
		}
		if sp.IncubationDays < 1 {
			return nil, fmt.Errorf("species %s: incubation days must be at least 1", sp.ID)
		}
		if sp.StopTurningDay < 0 || sp.StopTurningDay >= sp.IncubationDays {
			return nil, fmt.Errorf("species %s: stop-turning day %d must be below incubation days %d", sp.ID, sp.StopTurningDay, sp.IncubationDays)
		}
		if sp.LockdownDay < 0 || sp.LockdownDay >= sp.IncubationDays {
			return nil, fmt.Errorf("species %s: lockdown day %d must be below incubation days %d", sp.ID, sp.LockdownDay, sp.IncubationDays)
		}
		if _, exists := table.byID[sp.ID]; exists {
			return nil, fmt.Errorf("species %s: duplicate entry", sp.ID)
		}

		table.byID[sp.ID] = sp
		table.ordered = append(table.ordered, sp.ID)
	}

	return table, nil
}

// Lookup returns the species entry or ErrUnknownSpecies.
func (t *SpeciesTable) Lookup(id SpeciesID) (Species, error) {
	sp, ok := t.byID[id]
	if !ok {
		return Species{}, fmt.Errorf("%w: %s", ErrUnknownSpecies, id)
	}
	return sp, nil
}

// All returns the entries in registration order.
func (t *SpeciesTable) All() []Species {
	out := make([]Species, 0, len(t.ordered))
	for _, id := range t.ordered {
		out = append(out, t.byID[id])
	}
	return out
}

// DefaultSpecies is the reference table shipped with the application.
// Lockdown matches the common hatch-minus-three practice for each species.
func DefaultSpecies() []Species {
	return []Species{
		{ID: SpeciesChicken, Name: "Chicken", IncubationDays: 21, StopTurningDay: 18, LockdownDay: 18},
		{ID: SpeciesDuck, Name: "Duck", IncubationDays: 28, StopTurningDay: 25, LockdownDay: 25},
		{ID: SpeciesQuail, Name: "Quail", IncubationDays: 18, StopTurningDay: 15, LockdownDay: 15},
		{ID: SpeciesGoose, Name: "Goose", IncubationDays: 30, StopTurningDay: 27, LockdownDay: 27},
	}
}
