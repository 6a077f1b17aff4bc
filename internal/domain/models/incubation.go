package models

import (
	"errors"
	"time"
)

// ErrInvalidQuantity indicates a batch request carried a non-positive egg count.
var ErrInvalidQuantity = errors.New("invalid egg quantity")

// ErrInvalidMode indicates an unsupported run alignment mode.
var ErrInvalidMode = errors.New("invalid run mode")

// ErrRunNotFound indicates the requested run does not exist in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrBatchNotFound indicates a batch position outside the run's batch list.
var ErrBatchNotFound = errors.New("batch not found")

// RunMode selects how batch dates are aligned within a run.
type RunMode string

const (
	// RunModeAlignHatch staggers insertion dates so every batch hatches on
	// the run's target date.
	RunModeAlignHatch RunMode = "align_hatch"
	// RunModeAlignStart inserts every batch on the target date and lets
	// hatch dates differ per species.
	RunModeAlignStart RunMode = "align_start"
)

// Valid reports whether the mode is one of the supported alignment modes.
func (m RunMode) Valid() bool {
	return m == RunModeAlignHatch || m == RunModeAlignStart
}

// Phase is the derived lifecycle state of a batch relative to a given day.
// It is recomputed on every query and never persisted.
type Phase string

const (
	PhaseScheduled  Phase = "scheduled"
	PhaseIncubating Phase = "incubating"
	PhaseLocked     Phase = "locked"
	PhaseHatching   Phase = "hatching"
	PhaseOverdue    Phase = "overdue"
	PhaseHatched    Phase = "hatched"
)

// Batch is a quantity of eggs of one species within a run. All dates are
// normalized to UTC midnight; milestone dates are zero when the species has
// no corresponding offset configured.
type Batch struct {
	Species         SpeciesID `bson:"species" json:"species"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	Quantity        int       `bson:"quantity" json:"quantity"`
	InsertionDate   time.Time `bson:"insertion_date" json:"insertion_date"`
	StopTurningDate time.Time `bson:"stop_turning_date,omitempty" json:"stop_turning_date,omitempty"`
	LockdownDate    time.Time `bson:"lockdown_date,omitempty" json:"lockdown_date,omitempty"`
	HatchDate       time.Time `bson:"hatch_date" json:"hatch_date"`
	Completed       bool      `bson:"completed" json:"completed"`
}

// Run is a named group of batches scheduled together around one target date.
// TargetDate is the common hatch date in align_hatch mode and the common
// insertion date in align_start mode. A run exclusively owns its batches.
type Run struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Mode       RunMode   `bson:"mode" json:"mode"`
	TargetDate time.Time `bson:"target_date" json:"target_date"`
	Batches    []Batch   `bson:"batches" json:"batches"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ReminderKind enumerates the batch milestones a user must act on.
type ReminderKind string

const (
	ReminderInsert      ReminderKind = "insert"
	ReminderStopTurning ReminderKind = "stop_turning"
	ReminderLockdown    ReminderKind = "lockdown"
	ReminderHatch       ReminderKind = "hatch"
)

// Reminder is one due action for one batch on one day. It is a pure query
// result derived from stored dates, not a delivery receipt.
type Reminder struct {
	RunID       string       `json:"run_id"`
	RunName     string       `json:"run_name"`
	BatchPos    int          `json:"batch_pos"`
	Species     SpeciesID    `json:"species"`
	Description string       `json:"description,omitempty"`
	Quantity    int          `json:"quantity"`
	Kind        ReminderKind `json:"kind"`
	Date        time.Time    `json:"date"`
}

// BatchStatus pairs a batch with its derived phase and progress for a day.
type BatchStatus struct {
	Batch           Batch   `json:"batch"`
	Phase           Phase   `json:"phase"`
	Progress        float64 `json:"progress"`
	DayOfIncubation int     `json:"day_of_incubation"`
	TotalDays       int     `json:"total_days"`
}

// RunStatus is the per-day view of a whole run. Progress tracks the
// longest-duration batch, mirroring the single session progress bar users
// expect; FinalHatchDate is the latest hatch date across batches.
type RunStatus struct {
	Run            Run           `json:"run"`
	Date           time.Time     `json:"date"`
	Batches        []BatchStatus `json:"batches"`
	Progress       float64       `json:"progress"`
	FinalHatchDate time.Time     `json:"final_hatch_date,omitempty"`
}
