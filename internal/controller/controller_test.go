package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/repository/unitofwork"
	"memory-beads-be/internal/service"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"
	"memory-beads-be/pkg/gemini"
	"memory-beads-be/pkg/importer"
	"memory-beads-be/pkg/media"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardNotifier struct{}

func (discardNotifier) Send(uuid.UUID, string, interface{}) {}

type noFrames struct{}

func (noFrames) Current(uuid.UUID) (echo.Frame, bool) { return echo.Frame{}, false }

type noQuestions struct{}

func (noQuestions) RequestQuestions(context.Context, dto.QuestionRequestMessage) error { return nil }

type stubAI struct{}

func (stubAI) AnalyzeImage(context.Context, []byte, string) (gemini.ImageAnalysis, error) {
	return gemini.ImageAnalysis{Title: "Summer Rain", Prompt: "Where were you?", Color: "#aabbcc"}, nil
}

func (stubAI) ReflectionQuestions(context.Context, string, string) ([]string, error) {
	return []string{"Q?"}, nil
}

// asUser stands in for the JWT middleware.
func asUser(userId string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if userId != "" {
			ctx.Locals("user_id", userId)
		}
		return ctx.Next()
	}
}

func newTestApp(t *testing.T, userId string) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()
	collector := metrics.NewCollector("test")
	store := media.NewDiskStore(t.TempDir(), "/uploads")
	recorder := media.NewRecorder(store, 0)
	look := bead.NewAppearance(nil)

	journal := service.NewJournalService(
		unitofwork.NewMemoryRepositoryFactory(),
		bead.NewEngine(time.Now, look),
		service.NewNopEventPublisher(),
		noQuestions{},
		discardNotifier{},
		noFrames{},
		recorder,
		nil,
		log,
		collector,
	)
	insight := service.NewInsightService(stubAI{}, log, collector)
	auth := asUser(userId)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewJournalController(journal, auth).RegisterRoutes(api)
	NewCaptureController(service.NewCaptureService(store, insight, journal, log), auth).RegisterRoutes(api)
	NewImportController(service.NewImportService(importer.NewAdapter(look, time.UTC), journal, log, collector), auth).RegisterRoutes(api)
	NewRecordingController(service.NewRecordingService(recorder, log), auth).RegisterRoutes(api)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func TestJournalRoutes(t *testing.T) {
	app := newTestApp(t, uuid.NewString())

	status, env := do(t, app, http.MethodGet, "/api/journal/v1", nil)
	require.Equal(t, http.StatusOK, status)
	var journal dto.JournalResponse
	require.NoError(t, json.Unmarshal(env.Data, &journal))
	assert.Equal(t, bead.TabEcho, journal.View.Tab)
	assert.Equal(t, bead.SeedFallbackId, journal.Rotating.Id)

	status, env = do(t, app, http.MethodPut, "/api/journal/v1/tab", map[string]string{"tab": "settings"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, _ = do(t, app, http.MethodPut, "/api/journal/v1/tab", map[string]string{"tab": "collection"})
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodPost, "/api/journal/v1/beads/missing/reflect", map[string]string{"text": "hi"})
	require.Equal(t, http.StatusOK, status)
	var transition dto.TransitionResponse
	require.NoError(t, json.Unmarshal(env.Data, &transition))
	assert.False(t, transition.Applied, "stale ids are a no-op")

	status, env = do(t, app, http.MethodPost, "/api/journal/v1/beads/"+bead.SeedFallbackId+"/reflect", map[string]string{"text": "Coffee."})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &transition))
	assert.True(t, transition.Applied)
	assert.Equal(t, bead.TransitionFinalize, transition.Transition)
	assert.Len(t, transition.Journal.Collection, 1)

	status, _ = do(t, app, http.MethodPut, "/api/journal/v1/beads/"+bead.SeedFallbackId, map[string]string{"text": "no title"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnauthenticatedRequest(t *testing.T) {
	app := newTestApp(t, "")

	status, env := do(t, app, http.MethodGet, "/api/journal/v1", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestCaptureRoutes(t *testing.T) {
	app := newTestApp(t, uuid.NewString())

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="image"; filename="photo.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/capture/v1/analyze", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, env := send(t, app, req)
	require.Equal(t, http.StatusOK, status)
	var analysis dto.AnalyzeImageResponse
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.Equal(t, "Summer Rain", analysis.Title)

	status, env = do(t, app, http.MethodPost, "/api/capture/v1", dto.CaptureRequest{
		ImageUrl: analysis.ImageUrl,
		Title:    analysis.Title,
		Prompt:   analysis.Prompt,
		Color:    analysis.Color,
	})
	require.Equal(t, http.StatusCreated, status)
	var transition dto.TransitionResponse
	require.NoError(t, json.Unmarshal(env.Data, &transition))
	assert.Equal(t, transition.Bead.Id, *transition.Journal.View.SelectedId)

	status, _ = do(t, app, http.MethodPost, "/api/capture/v1/analyze", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestImportRoutes(t *testing.T) {
	app := newTestApp(t, uuid.NewString())

	body := `[{"id":"1","type":"STORY","playerId":"ana","timestamp":1704067200000,"fullStory":"Snow."},
	          {"id":"2","type":"STORY","playerId":"ben","timestamp":1704067200000,"fullStory":"Bike."}]`
	req := httptest.NewRequest(http.MethodPost, "/api/import/v1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	status, env := send(t, app, req)
	require.Equal(t, http.StatusOK, status)
	var res dto.ImportResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Imported)
	assert.Len(t, res.Owners, 2)

	status, env = do(t, app, http.MethodPost, "/api/import/v1/owner", dto.ChooseOwnerRequest{PlayerId: "ben"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Imported)
	assert.Equal(t, 1, res.Count)

	status, _ = do(t, app, http.MethodPost, "/api/import/v1/owner", dto.ChooseOwnerRequest{PlayerId: "ben"})
	assert.Equal(t, http.StatusConflict, status)

	req = httptest.NewRequest(http.MethodPost, "/api/import/v1", bytes.NewBufferString("not json"))
	status, _ = send(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecordingRoutes(t *testing.T) {
	app := newTestApp(t, uuid.NewString())

	status, env := do(t, app, http.MethodPost, "/api/recording/v1/start", dto.StartRecordingRequest{MimeTypes: []string{"audio/mp4"}})
	require.Equal(t, http.StatusOK, status)
	var started dto.StartRecordingResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "audio/mp4", started.MimeType)

	status, _ = do(t, app, http.MethodPost, "/api/recording/v1/start", nil)
	assert.Equal(t, http.StatusLocked, status, "device is exclusive")

	req := httptest.NewRequest(http.MethodPost, "/api/recording/v1/chunk", bytes.NewBufferString("audio-bytes"))
	req.Header.Set("Content-Type", "application/octet-stream")
	status, _ = send(t, app, req)
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodPost, "/api/recording/v1/stop", nil)
	require.Equal(t, http.StatusOK, status)
	var rec dto.RecordingResponse
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, int64(len("audio-bytes")), rec.Size)
	assert.Contains(t, rec.AudioUrl, ".m4a")

	status, _ = do(t, app, http.MethodPost, "/api/recording/v1/start", nil)
	require.Equal(t, http.StatusOK, status)
	editing := false
	status, _ = do(t, app, http.MethodPut, "/api/journal/v1/editing", dto.SetEditingRequest{Editing: &editing})
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodPost, "/api/recording/v1/stop", nil)
	assert.Equal(t, http.StatusLocked, status, "closing the modal released the device")
}
