package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/couvoir/internal/domain/models"
	"github.com/mamadbah2/couvoir/internal/repository/mongodb"
	"github.com/mamadbah2/couvoir/internal/repository/sheets"
	"github.com/mamadbah2/couvoir/internal/service/schedule"
)

const dateLayout = "2006-01-02"

// RunHandler exposes incubation runs and reminders over HTTP.
type RunHandler struct {
	svc      *schedule.Service
	repo     mongodb.Repository
	exporter sheets.Exporter
	location *time.Location
	logger   *zap.Logger
}

// NewRunHandler constructs the HTTP handler adapter. The exporter may be nil
// when sheet export is not configured.
func NewRunHandler(svc *schedule.Service, repo mongodb.Repository, exporter sheets.Exporter, location *time.Location, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &RunHandler{svc: svc, repo: repo, exporter: exporter, location: location, logger: logger}
}

// CreateRunRequest is the payload for creating or previewing a run.
type CreateRunRequest struct {
	Name       string                  `json:"name" binding:"required"`
	Mode       models.RunMode          `json:"mode" binding:"required"`
	TargetDate string                  `json:"target_date" binding:"required"`
	Batches    []schedule.BatchRequest `json:"batches"`
}

// Create plans a run, persists it and returns its status for today.
func (h *RunHandler) Create(c *gin.Context) {
	run, ok := h.planFromRequest(c)
	if !ok {
		return
	}
	run.CreatedAt = time.Now().UTC()

	saved, err := h.repo.SaveRun(c.Request.Context(), run)
	if err != nil {
		h.logger.Error("failed to save run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save run"})
		return
	}

	if h.exporter != nil {
		if err := h.exporter.AppendSchedule(c.Request.Context(), saved); err != nil {
			h.logger.Warn("failed to export schedule", zap.Error(err), zap.String("run_id", saved.ID))
		}
	}

	c.JSON(http.StatusCreated, h.svc.RunStatus(saved, h.today(c)))
}

// Preview plans a run without persisting anything.
func (h *RunHandler) Preview(c *gin.Context) {
	run, ok := h.planFromRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.RunStatus(run, h.today(c)))
}

// List returns every stored run with its status for the requested day.
func (h *RunHandler) List(c *gin.Context) {
	runs, err := h.repo.ListRuns(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	today := h.today(c)
	statuses := make([]models.RunStatus, 0, len(runs))
	for _, run := range runs {
		statuses = append(statuses, h.svc.RunStatus(run, today))
	}

	c.JSON(http.StatusOK, gin.H{"date": today.Format(dateLayout), "runs": statuses})
}

// Get returns one run with its status for the requested day.
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.repo.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.RunStatus(run, h.today(c)))
}

// Delete removes a run and all its batches.
func (h *RunHandler) Delete(c *gin.Context) {
	if err := h.repo.DeleteRun(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkHatched flags one batch of a run as completed by the user.
func (h *RunHandler) MarkHatched(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch position must be an integer"})
		return
	}

	run, err := h.repo.MarkBatchHatched(c.Request.Context(), c.Param("id"), pos)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.RunStatus(run, h.today(c)))
}

// Reminders returns all actions due on the requested day across runs.
func (h *RunHandler) Reminders(c *gin.Context) {
	runs, err := h.repo.ListRuns(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	today := h.today(c)
	reminders := schedule.DueReminders(runs, today)
	if reminders == nil {
		reminders = []models.Reminder{}
	}

	c.JSON(http.StatusOK, gin.H{"date": today.Format(dateLayout), "reminders": reminders})
}

// Species returns the reference duration table.
func (h *RunHandler) Species(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"species": h.svc.Table().All()})
}

func (h *RunHandler) planFromRequest(c *gin.Context) (models.Run, bool) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid run payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return models.Run{}, false
	}

	target, err := time.Parse(dateLayout, req.TargetDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must use YYYY-MM-DD"})
		return models.Run{}, false
	}

	run, err := h.svc.PlanRun(req.Name, req.Mode, target, req.Batches)
	if err != nil {
		h.writeError(c, err)
		return models.Run{}, false
	}
	return run, true
}

// today resolves the engine's "today" input: an explicit ?date= override for
// deterministic queries, otherwise the current day in the configured
// timezone. The clock is read here, at the edge, never inside the engine.
func (h *RunHandler) today(c *gin.Context) time.Time {
	if raw := c.Query("date"); raw != "" {
		if d, err := time.Parse(dateLayout, raw); err == nil {
			return schedule.NormalizeDate(d)
		}
		h.logger.Warn("ignoring invalid date override", zap.String("date", raw))
	}
	return schedule.NormalizeDate(time.Now().In(h.location))
}

func (h *RunHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrRunNotFound), errors.Is(err, models.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownSpecies),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidMode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
