package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/couvoir/internal/domain/models"
	"github.com/mamadbah2/couvoir/internal/repository/sheets"
	client "github.com/mamadbah2/couvoir/pkg/clients/notify"
)

// Dispatcher describes the reminder delivery operations the scheduler uses.
type Dispatcher interface {
	DispatchReminders(ctx context.Context, reminders []models.Reminder) error
}

// Service is the production dispatcher: it formats each due reminder and
// pushes it through the webhook client, optionally mirroring a log row to
// the spreadsheet exporter.
type Service struct {
	client   client.Client
	exporter sheets.Exporter
	logger   *zap.Logger
}

// NewService wires a new dispatcher instance. The exporter may be nil when
// sheet export is not configured.
func NewService(webhookClient client.Client, exporter sheets.Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: webhookClient, exporter: exporter, logger: logger}
}

// DispatchReminders sends every reminder, continuing past individual
// failures and returning the first error encountered.
func (s *Service) DispatchReminders(ctx context.Context, reminders []models.Reminder) error {
	var firstErr error

	for _, r := range reminders {
		title, body := FormatReminder(r)
		msg := client.Message{
			Title: title,
			Body:  body,
			Tags:  []string{string(r.Kind), string(r.Species)},
		}

		if err := s.client.Send(ctx, msg); err != nil {
			s.logger.Error("failed to send reminder",
				zap.Error(err),
				zap.String("run_id", r.RunID),
				zap.String("kind", string(r.Kind)))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if s.exporter != nil {
			if err := s.exporter.AppendReminder(ctx, r); err != nil {
				s.logger.Warn("failed to export reminder row", zap.Error(err), zap.String("run_id", r.RunID))
			}
		}
	}

	return firstErr
}

// FormatReminder renders the human-readable title and body for one reminder.
func FormatReminder(r models.Reminder) (string, string) {
	eggs := fmt.Sprintf("%d %s eggs", r.Quantity, r.Species)
	if r.Description != "" {
		eggs = fmt.Sprintf("%s (%s)", eggs, r.Description)
	}

	switch r.Kind {
	case models.ReminderInsert:
		return "Insert eggs today", fmt.Sprintf("Insert %s into the incubator for run %q.", eggs, r.RunName)
	case models.ReminderStopTurning:
		return "Stop turning today", fmt.Sprintf("Stop turning %s in run %q.", eggs, r.RunName)
	case models.ReminderLockdown:
		return "Lockdown today", fmt.Sprintf("Move %s in run %q to lockdown: raise humidity, no more opening.", eggs, r.RunName)
	case models.ReminderHatch:
		return "Hatch day", fmt.Sprintf("%s in run %q are due to hatch today.", eggs, r.RunName)
	default:
		return "Incubation reminder", fmt.Sprintf("Check %s in run %q.", eggs, r.RunName)
	}
}
