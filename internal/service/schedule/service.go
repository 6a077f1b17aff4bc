package schedule

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/couvoir/internal/domain/models"
)

// BatchRequest is the caller-supplied description of one batch to schedule.
type BatchRequest struct {
	Species     models.SpeciesID `json:"species" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required"`
	Description string           `json:"description"`
}

// Service is the scheduling and progress engine. It holds no cross-call
// state beyond the immutable species table; every query is a pure
// computation over its arguments, with "today" always supplied by the
// caller so results stay deterministic.
type Service struct {
	table  *models.SpeciesTable
	logger *zap.Logger
}

// NewService wires a scheduling engine over the given species table.
func NewService(table *models.SpeciesTable, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{table: table, logger: logger}
}

// Table exposes the species reference data for read-only consumers.
func (s *Service) Table() *models.SpeciesTable {
	return s.table
}

// NormalizeDate truncates a timestamp to its calendar day at UTC midnight.
// All engine date arithmetic happens on normalized dates.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// PlanRun builds a complete run from batch requests. In align_hatch mode the
// target date is the common hatch date and insertion dates are computed
// backward per species; in align_start mode the target date is the common
// insertion date and hatch dates are computed forward. An empty request list
// yields an empty run, not an error.
func (s *Service) PlanRun(name string, mode models.RunMode, target time.Time, reqs []BatchRequest) (models.Run, error) {
	batches, err := s.PlanBatches(mode, target, reqs)
	if err != nil {
		return models.Run{}, err
	}

	s.logger.Debug("run planned",
		zap.String("name", name),
		zap.String("mode", string(mode)),
		zap.Time("target_date", NormalizeDate(target)),
		zap.Int("batches", len(batches)))

	return models.Run{
		Name:       name,
		Mode:       mode,
		TargetDate: NormalizeDate(target),
		Batches:    batches,
	}, nil
}

// PlanBatches computes insertion, milestone and hatch dates for each request.
// Validation happens before any date arithmetic: an unknown species or a
// non-positive quantity aborts the whole computation so a run is never
// persisted with a partially scheduled batch list.
func (s *Service) PlanBatches(mode models.RunMode, target time.Time, reqs []BatchRequest) ([]models.Batch, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidMode, mode)
	}

	target = NormalizeDate(target)
	batches := make([]models.Batch, 0, len(reqs))

	for i, req := range reqs {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("batch %d (%s): %w: %d", i, req.Species, models.ErrInvalidQuantity, req.Quantity)
		}

		sp, err := s.table.Lookup(req.Species)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}

		batch := models.Batch{
			Species:     sp.ID,
			Description: req.Description,
			Quantity:    req.Quantity,
		}

		// AddDate is calendar-aware, so month/year boundaries and leap
		// days come out right in both directions.
		switch mode {
		case models.RunModeAlignHatch:
			batch.HatchDate = target
			batch.InsertionDate = target.AddDate(0, 0, -sp.IncubationDays)
		case models.RunModeAlignStart:
			batch.InsertionDate = target
			batch.HatchDate = target.AddDate(0, 0, sp.IncubationDays)
		}

		if sp.StopTurningDay > 0 {
			batch.StopTurningDate = batch.InsertionDate.AddDate(0, 0, sp.StopTurningDay)
		}
		if sp.LockdownDay > 0 {
			batch.LockdownDate = batch.InsertionDate.AddDate(0, 0, sp.LockdownDay)
		}

		batches = append(batches, batch)
	}

	return batches, nil
}

// Phase derives the lifecycle state of a batch for a given day. The
// completed flag wins over the calendar: a batch the user marked done is
// hatched no matter the dates. Everything else follows from the stored
// dates alone, so moving "today" backward reproduces earlier phases.
func Phase(b models.Batch, today time.Time) models.Phase {
	if b.Completed {
		return models.PhaseHatched
	}

	today = NormalizeDate(today)
	switch {
	case today.Before(b.InsertionDate):
		return models.PhaseScheduled
	case today.After(b.HatchDate):
		return models.PhaseOverdue
	case today.Equal(b.HatchDate):
		return models.PhaseHatching
	}

	if !b.StopTurningDate.IsZero() && !today.Before(b.StopTurningDate) {
		return models.PhaseLocked
	}
	if !b.LockdownDate.IsZero() && !today.Before(b.LockdownDate) {
		return models.PhaseLocked
	}
	return models.PhaseIncubating
}

// Progress returns the elapsed fraction of the batch's incubation window,
// saturating at 0 before insertion and 1 from hatch day onward. The species
// invariant (duration >= 1) keeps the denominator positive.
func Progress(b models.Batch, today time.Time) float64 {
	total := daysBetween(b.InsertionDate, b.HatchDate)
	if total <= 0 {
		return 0
	}

	elapsed := daysBetween(b.InsertionDate, NormalizeDate(today))
	switch {
	case elapsed <= 0:
		return 0
	case elapsed >= total:
		return 1
	}
	return float64(elapsed) / float64(total)
}

// RunStatus assembles the per-day view of a run: each batch's phase,
// progress and day counter, plus the run-level progress taken from the
// longest-duration batch and the latest hatch date.
func (s *Service) RunStatus(run models.Run, today time.Time) models.RunStatus {
	today = NormalizeDate(today)
	status := models.RunStatus{
		Run:     run,
		Date:    today,
		Batches: make([]models.BatchStatus, 0, len(run.Batches)),
	}

	longest := -1
	for _, b := range run.Batches {
		total := daysBetween(b.InsertionDate, b.HatchDate)

		day := daysBetween(b.InsertionDate, today) + 1
		if day < 1 {
			day = 0
		} else if day > total {
			day = total
		}

		status.Batches = append(status.Batches, models.BatchStatus{
			Batch:           b,
			Phase:           Phase(b, today),
			Progress:        Progress(b, today),
			DayOfIncubation: day,
			TotalDays:       total,
		})

		if total > longest {
			longest = total
			status.Progress = Progress(b, today)
		}
		if b.HatchDate.After(status.FinalHatchDate) {
			status.FinalHatchDate = b.HatchDate
		}
	}

	return status
}

// DueReminders returns every action due on the given day across the runs:
// one reminder per matching milestone per batch. Batches already marked
// hatched are skipped; an empty run contributes nothing.
func DueReminders(runs []models.Run, today time.Time) []models.Reminder {
	today = NormalizeDate(today)
	var out []models.Reminder

	for _, run := range runs {
		for pos, b := range run.Batches {
			if b.Completed {
				continue
			}

			emit := func(kind models.ReminderKind) {
				out = append(out, models.Reminder{
					RunID:       run.ID,
					RunName:     run.Name,
					BatchPos:    pos,
					Species:     b.Species,
					Description: b.Description,
					Quantity:    b.Quantity,
					Kind:        kind,
					Date:        today,
				})
			}

			if today.Equal(b.InsertionDate) {
				emit(models.ReminderInsert)
			}
			if !b.StopTurningDate.IsZero() && today.Equal(b.StopTurningDate) {
				emit(models.ReminderStopTurning)
			}
			if !b.LockdownDate.IsZero() && today.Equal(b.LockdownDate) {
				emit(models.ReminderLockdown)
			}
			if today.Equal(b.HatchDate) {
				emit(models.ReminderHatch)
			}
		}
	}

	return out
}
