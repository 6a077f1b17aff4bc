package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/couvoir/internal/config"
	"github.com/mamadbah2/couvoir/internal/domain/models"
)

const (
	dateLayout          = "2006-01-02"
	schedulesWriteRange = "Schedules!A:G"
	remindersWriteRange = "Reminders!A:E"
)

// Exporter defines the spreadsheet export operations the application uses.
type Exporter interface {
	AppendSchedule(ctx context.Context, run models.Run) error
	AppendReminder(ctx context.Context, reminder models.Reminder) error
}

// GoogleSheetExporter implements the Exporter interface using the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSchedule writes one row per batch of the run to the schedules sheet.
func (e *GoogleSheetExporter) AppendSchedule(ctx context.Context, run models.Run) error {
	rows := ScheduleRows(run)
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, schedulesWriteRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append schedule rows for run %s: %w", run.ID, err)
	}

	e.logger.Debug("schedule exported to sheet", zap.String("run_id", run.ID), zap.Int("rows", len(rows)))
	return nil
}

// AppendReminder logs one dispatched reminder to the reminders sheet.
func (e *GoogleSheetExporter) AppendReminder(ctx context.Context, reminder models.Reminder) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{ReminderRow(reminder)}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, remindersWriteRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append reminder row for run %s: %w", reminder.RunID, err)
	}

	e.logger.Debug("reminder exported to sheet", zap.String("run_id", reminder.RunID), zap.String("kind", string(reminder.Kind)))
	return nil
}

// ScheduleRows flattens a run into spreadsheet rows, one per batch.
func ScheduleRows(run models.Run) [][]interface{} {
	rows := make([][]interface{}, 0, len(run.Batches))
	for _, b := range run.Batches {
		rows = append(rows, []interface{}{
			run.Name,
			string(run.Mode),
			string(b.Species),
			b.Description,
			b.Quantity,
			b.InsertionDate.Format(dateLayout),
			b.HatchDate.Format(dateLayout),
		})
	}
	return rows
}

// ReminderRow flattens one reminder into a spreadsheet row.
func ReminderRow(r models.Reminder) []interface{} {
	return []interface{}{
		r.Date.Format(dateLayout),
		r.RunName,
		string(r.Species),
		string(r.Kind),
		r.Quantity,
	}
}
