package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/couvoir/internal/domain/models"
	"github.com/mamadbah2/couvoir/internal/server/handlers"
	"github.com/mamadbah2/couvoir/internal/server/router"
	"github.com/mamadbah2/couvoir/internal/service/schedule"
)

type fakeRepo struct {
	runs map[string]models.Run
	next int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{runs: make(map[string]models.Run)}
}

func (f *fakeRepo) SaveRun(_ context.Context, run models.Run) (models.Run, error) {
	if run.ID == "" {
		f.next++
		run.ID = fmt.Sprintf("run-%d", f.next)
	}
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeRepo) ListRuns(_ context.Context) ([]models.Run, error) {
	out := make([]models.Run, 0, len(f.runs))
	for _, run := range f.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetDate.After(out[j].TargetDate) })
	return out, nil
}

func (f *fakeRepo) GetRun(_ context.Context, id string) (models.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return models.Run{}, fmt.Errorf("run %s: %w", id, models.ErrRunNotFound)
	}
	return run, nil
}

func (f *fakeRepo) DeleteRun(_ context.Context, id string) error {
	if _, ok := f.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, models.ErrRunNotFound)
	}
	delete(f.runs, id)
	return nil
}

func (f *fakeRepo) MarkBatchHatched(_ context.Context, id string, pos int) (models.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return models.Run{}, fmt.Errorf("run %s: %w", id, models.ErrRunNotFound)
	}
	if pos < 0 || pos >= len(run.Batches) {
		return models.Run{}, fmt.Errorf("run %s batch %d: %w", id, pos, models.ErrBatchNotFound)
	}
	run.Batches[pos].Completed = true
	f.runs[id] = run
	return run, nil
}

func testEngine(t *testing.T) (*gin.Engine, *fakeRepo) {
	t.Helper()

	table, err := models.NewSpeciesTable(models.DefaultSpecies())
	require.NoError(t, err)

	repo := newFakeRepo()
	svc := schedule.NewService(table, nil)
	handler := handlers.NewRunHandler(svc, repo, nil, time.UTC, nil)
	return router.New(handler, nil), repo
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

const mixedRunBody = `{
	"name": "spring mix",
	"mode": "align_hatch",
	"target_date": "2025-05-10",
	"batches": [
		{"species": "chicken", "quantity": 12, "description": "Marans"},
		{"species": "duck", "quantity": 6}
	]
}`

func TestPreview_MixedRunOnHatchDay(t *testing.T) {
	t.Parallel()
	engine, repo := testEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/runs/preview?date=2025-05-10", mixedRunBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status models.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Len(t, status.Batches, 2)

	for _, bs := range status.Batches {
		assert.Equal(t, models.PhaseHatching, bs.Phase)
		assert.Equal(t, 1.0, bs.Progress)
	}
	assert.Empty(t, repo.runs, "preview must not persist")
}

func TestCreate_PersistsRun(t *testing.T) {
	t.Parallel()
	engine, repo := testEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/runs", mixedRunBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var status models.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.NotEmpty(t, status.Run.ID)
	assert.Len(t, repo.runs, 1)

	saved := repo.runs[status.Run.ID]
	assert.Equal(t, "2025-04-19", saved.Batches[0].InsertionDate.Format("2006-01-02"))
	assert.Equal(t, "2025-04-12", saved.Batches[1].InsertionDate.Format("2006-01-02"))
}

func TestCreate_ValidationErrors(t *testing.T) {
	t.Parallel()
	engine, _ := testEngine(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "unknown species",
			body:     `{"name":"x","mode":"align_hatch","target_date":"2025-05-10","batches":[{"species":"ostrich","quantity":2}]}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "invalid quantity",
			body:     `{"name":"x","mode":"align_hatch","target_date":"2025-05-10","batches":[{"species":"chicken","quantity":-1}]}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "invalid mode",
			body:     `{"name":"x","mode":"sideways","target_date":"2025-05-10","batches":[{"species":"chicken","quantity":2}]}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "bad date",
			body:     `{"name":"x","mode":"align_hatch","target_date":"10/05/2025","batches":[]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing name",
			body:     `{"mode":"align_hatch","target_date":"2025-05-10","batches":[]}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doJSON(t, engine, http.MethodPost, "/runs", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	engine, _ := testEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete_RemovesRunAndBatches(t *testing.T) {
	t.Parallel()
	engine, repo := testEngine(t)

	created := doJSON(t, engine, http.MethodPost, "/runs", mixedRunBody)
	require.Equal(t, http.StatusCreated, created.Code)

	var status models.RunStatus
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &status))

	rec := doJSON(t, engine, http.MethodDelete, "/runs/"+status.Run.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.runs)
}

func TestMarkHatched(t *testing.T) {
	t.Parallel()
	engine, _ := testEngine(t)

	created := doJSON(t, engine, http.MethodPost, "/runs", mixedRunBody)
	require.Equal(t, http.StatusCreated, created.Code)

	var status models.RunStatus
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &status))

	rec := doJSON(t, engine, http.MethodPost, "/runs/"+status.Run.ID+"/batches/0/hatched?date=2025-04-20", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.PhaseHatched, updated.Batches[0].Phase, "completed flag wins over the calendar")
	assert.Equal(t, models.PhaseIncubating, updated.Batches[1].Phase)

	t.Run("position out of range", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/runs/"+status.Run.ID+"/batches/9/hatched", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("position not an integer", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/runs/"+status.Run.ID+"/batches/first/hatched", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReminders_InsertionDay(t *testing.T) {
	t.Parallel()
	engine, _ := testEngine(t)

	created := doJSON(t, engine, http.MethodPost, "/runs", mixedRunBody)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := doJSON(t, engine, http.MethodGet, "/reminders?date=2025-04-19", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date      string            `json:"date"`
		Reminders []models.Reminder `json:"reminders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2025-04-19", resp.Date)
	require.Len(t, resp.Reminders, 1)
	assert.Equal(t, models.ReminderInsert, resp.Reminders[0].Kind)
	assert.Equal(t, models.SpeciesChicken, resp.Reminders[0].Species)
}

func TestReminders_EmptyStore(t *testing.T) {
	t.Parallel()
	engine, _ := testEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/reminders?date=2025-04-19", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reminders []models.Reminder `json:"reminders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Reminders)
	assert.Empty(t, resp.Reminders)
}

func TestSpecies_ReturnsTable(t *testing.T) {
	t.Parallel()
	engine, _ := testEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/species", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Species []models.Species `json:"species"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Species, 4)
}
