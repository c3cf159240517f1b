package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"hera/config"
	"hera/services"
	"hera/store"
	"hera/types"
	"hera/websocket"
)

// fakeTranscriber stands in for the AI client. Configure it before queuing
// jobs; the queue's channel hand-off publishes the writes to the workers.
type fakeTranscriber struct {
	transcript    string
	analysis      string
	transcribeErr error
	analyzeErr    error
	delay         time.Duration
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.transcript, nil
}

func (f *fakeTranscriber) Analyze(ctx context.Context, transcript string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return f.analysis, nil
}

// TestHelper provides a running server over a temporary library
type TestHelper struct {
	Server      *httptest.Server
	Library     services.LibraryService
	JobQueue    services.JobQueue
	Settings    *config.SettingsStore
	Root        string
	Transcriber *fakeTranscriber
}

// NewTestHelper creates a new test helper with a temporary test environment
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	root := filepath.Join(dir, "recordings")
	require.NoError(t, os.MkdirAll(root, 0755))

	library := services.NewLibraryService(root, st)

	hub := websocket.NewHub()
	go hub.Run()

	transcriber := &fakeTranscriber{
		transcript: "we agreed to meet at nine",
		analysis:   `{"summary":"Planning the morning","suggestedTitle":"Morning plan"}`,
	}

	jobQueue := services.NewJobQueue(2, library, transcriber, hub)
	jobQueue.Start()

	settings := config.NewSettingsStore(filepath.Join(dir, "settings.json"))

	router := setupTestRouter(library, jobQueue, hub, settings)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestHelper{
		Server:      server,
		Library:     library,
		JobQueue:    jobQueue,
		Settings:    settings,
		Root:        root,
		Transcriber: transcriber,
	}
}

// setupTestRouter wires the handlers the way the server command does
func setupTestRouter(library services.LibraryService, jobQueue services.JobQueue, hub websocket.Hub, settings *config.SettingsStore) *gin.Engine {
	recordingHandler := NewRecordingHandler(library)
	jobHandler := NewJobHandler(jobQueue, library, hub)
	searchHandler := NewSearchHandler(library)
	healthHandler := NewHealthHandler(library)
	settingsHandler := NewSettingsHandler(settings)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", healthHandler.HealthCheck)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)
		apiGroup.GET("/search", searchHandler.Search)

		recordingsGroup := apiGroup.Group("/recordings")
		{
			recordingsGroup.GET("", recordingHandler.ListRecordings)
			recordingsGroup.POST("", recordingHandler.UploadRecording)
			recordingsGroup.GET("/:id", recordingHandler.GetRecording)
			recordingsGroup.PATCH("/:id", recordingHandler.UpdateRecording)
			recordingsGroup.DELETE("/:id", recordingHandler.DeleteRecording)
			recordingsGroup.GET("/:id/audio", recordingHandler.StreamAudio)
			recordingsGroup.POST("/:id/transcribe", jobHandler.QueueTranscribe)
			recordingsGroup.POST("/:id/analyze", jobHandler.QueueAnalyze)
			recordingsGroup.POST("/:id/process", jobHandler.QueueProcess)
		}

		jobsGroup := apiGroup.Group("/jobs")
		{
			jobsGroup.GET("", jobHandler.GetAllJobs)
			jobsGroup.GET("/:jobId", jobHandler.GetJob)
			jobsGroup.DELETE("/:jobId", jobHandler.CancelJob)
		}

		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/jobs/:jobId", jobHandler.HandleWebSocketConnection)
			wsGroup.GET("/jobs", jobHandler.HandleWebSocketAllConnection)
		}

		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}

	return r
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// DoJSON makes a request and unmarshals the JSON response into target
func (h *TestHelper) DoJSON(t *testing.T, method, path string, body, target interface{}) *http.Response {
	t.Helper()

	resp := h.MakeRequest(t, method, path, body)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil {
		require.NoError(t, json.Unmarshal(data, target), "body: %s", data)
	}
	return resp
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.DoJSON(t, "GET", path, nil, target)
}

// PostJSON makes a POST request with a JSON body and unmarshals the response
func (h *TestHelper) PostJSON(t *testing.T, path string, body, target interface{}) *http.Response {
	return h.DoJSON(t, "POST", path, body, target)
}

// UploadAudio posts a multipart upload and returns the created recording
func (h *TestHelper) UploadAudio(t *testing.T, filename string, payload []byte, fields map[string]string) types.RecordingView {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", h.Server.URL+"/api/recordings", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", data)

	var created struct {
		Message   string              `json:"message"`
		Recording types.RecordingView `json:"recording"`
	}
	require.NoError(t, json.Unmarshal(data, &created))
	require.NotEmpty(t, created.Recording.ID)
	return created.Recording
}

// WaitForJobCompletion polls the job endpoint until a terminal state or timeout
func (h *TestHelper) WaitForJobCompletion(t *testing.T, jobID string, timeout time.Duration) *types.ProcessingJob {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var response struct {
			Job *types.ProcessingJob `json:"job"`
		}
		resp := h.GetJSON(t, "/api/jobs/"+jobID, &response)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, response.Job)

		switch response.Job.Status {
		case types.JobStatusCompleted, types.JobStatusFailed, types.JobStatusCancelled:
			return response.Job
		}
		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("Job %s did not complete within timeout", jobID)
	return nil
}

// ConnectWebSocket connects to a WebSocket endpoint
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *gorilla.Conn {
	t.Helper()

	wsURL := "ws" + h.Server.URL[4:] + path // Replace http:// with ws://
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}
