package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hera/types"
)

// TestHealthEndpoint tests the basic health check endpoint
func TestHealthEndpoint(t *testing.T) {
	helper := NewTestHelper(t)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/health", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "hera", response["service"])
}

// TestRecordingWorkflow tests the upload, list, rename and delete cycle
func TestRecordingWorkflow(t *testing.T) {
	helper := NewTestHelper(t)

	// Step 1: Upload a recording
	recording := helper.UploadAudio(t, "memo.m4a", []byte("audio payload"), nil)
	assert.Equal(t, "m4a", recording.AudioFormat)
	assert.Equal(t, types.PlaceholderTitle(recording.ID), recording.Title)

	// The payload landed in the library folder.
	onDisk, err := os.ReadFile(filepath.Join(helper.Root, recording.ID, "audio.m4a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("audio payload"), onDisk)

	// Step 2: The listing contains it
	var listing struct {
		Recordings []types.RecordingView `json:"recordings"`
		Count      int                   `json:"count"`
	}
	resp := helper.GetJSON(t, "/api/recordings", &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, recording.ID, listing.Recordings[0].ID)

	// Step 3: Fetch it directly
	var single struct {
		Recording types.RecordingView `json:"recording"`
	}
	resp = helper.GetJSON(t, "/api/recordings/"+recording.ID, &single)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, recording.ID, single.Recording.ID)

	// Step 4: Rename it
	var renamed struct {
		Recording types.RecordingView `json:"recording"`
	}
	resp = helper.DoJSON(t, "PATCH", "/api/recordings/"+recording.ID,
		types.UpdateRecordingRequest{Title: "Dentist notes"}, &renamed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Dentist notes", renamed.Recording.Title)

	// Step 5: Delete it
	resp = helper.DoJSON(t, "DELETE", "/api/recordings/"+recording.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.GetJSON(t, "/api/recordings", &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, listing.Count)

	_, err = os.Stat(filepath.Join(helper.Root, recording.ID))
	assert.True(t, os.IsNotExist(err))
}

// TestUploadValidation tests upload error handling
func TestUploadValidation(t *testing.T) {
	helper := NewTestHelper(t)

	// No multipart body at all.
	resp := helper.MakeRequest(t, "POST", "/api/recordings", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	tests := []struct {
		name     string
		filename string
		fields   map[string]string
	}{
		{name: "unsupported format", filename: "notes.txt"},
		{name: "negative duration", filename: "memo.m4a", fields: map[string]string{"duration": "-3"}},
		{name: "unparseable duration", filename: "memo.m4a", fields: map[string]string{"duration": "soon"}},
		{name: "bad recordedAt", filename: "memo.m4a", fields: map[string]string{"recordedAt": "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload := multipartBody(t, tt.filename, []byte("x"), tt.fields)
			req, err := http.NewRequest("POST", helper.Server.URL+"/api/recordings", upload.body)
			require.NoError(t, err)
			req.Header.Set("Content-Type", upload.contentType)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

// TestUploadWithMetadata tests that caller-supplied fields reach the recording
func TestUploadWithMetadata(t *testing.T) {
	helper := NewTestHelper(t)

	recordedAt := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	recording := helper.UploadAudio(t, "memo.m4a", []byte("x"), map[string]string{
		"title":      "Holiday plans",
		"duration":   "12.5",
		"recordedAt": recordedAt.Format(time.RFC3339),
	})

	assert.Equal(t, "Holiday plans", recording.Title)
	assert.Equal(t, 12.5, recording.Duration)
	assert.True(t, recordedAt.Equal(recording.CreatedAt))
}

// TestGetRecordingNotFound tests the 404 on unknown recordings
func TestGetRecordingNotFound(t *testing.T) {
	helper := NewTestHelper(t)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/api/recordings/0a1b2c3d-0000-4000-8000-00000000dead", &response)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "recording not found", response["error"])
}

// TestListPicksUpExternalFolders tests that the listing reflects disk changes
func TestListPicksUpExternalFolders(t *testing.T) {
	helper := NewTestHelper(t)

	// A folder synced in from a device, never uploaded through the API.
	id := "0a1b2c3d-0000-4000-8000-000000000001"
	dir := filepath.Join(helper.Root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.wav"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transcription.txt"), []byte("hello"), 0644))

	var listing struct {
		Recordings []types.RecordingView `json:"recordings"`
		Count      int                   `json:"count"`
	}
	resp := helper.GetJSON(t, "/api/recordings", &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, listing.Count)

	rec := listing.Recordings[0]
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "wav", rec.AudioFormat)
	require.NotNil(t, rec.Transcription)
	assert.Equal(t, "hello", *rec.Transcription)

	// Removing the folder empties the next listing.
	require.NoError(t, os.RemoveAll(dir))
	resp = helper.GetJSON(t, "/api/recordings", &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, listing.Count)
}

// TestStreamAudio tests full and partial audio delivery
func TestStreamAudio(t *testing.T) {
	helper := NewTestHelper(t)

	payload := []byte("0123456789abcdefghij")
	recording := helper.UploadAudio(t, "memo.mp3", payload, nil)
	audioURL := helper.Server.URL + "/api/recordings/" + recording.ID + "/audio"

	// Full download.
	resp, err := http.Get(audioURL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload, body)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))

	// Range requests.
	tests := []struct {
		name       string
		rangeSpec  string
		wantStatus int
		wantBody   string
		wantRange  string
	}{
		{
			name:       "first four bytes",
			rangeSpec:  "bytes=0-3",
			wantStatus: http.StatusPartialContent,
			wantBody:   "0123",
			wantRange:  "bytes 0-3/20",
		},
		{
			name:       "open ended tail",
			rangeSpec:  "bytes=10-",
			wantStatus: http.StatusPartialContent,
			wantBody:   "abcdefghij",
			wantRange:  "bytes 10-19/20",
		},
		{
			name:       "end clamped to file size",
			rangeSpec:  "bytes=15-99",
			wantStatus: http.StatusPartialContent,
			wantBody:   "fghij",
			wantRange:  "bytes 15-19/20",
		},
		{
			name:       "start beyond file size",
			rangeSpec:  "bytes=999-",
			wantStatus: http.StatusRequestedRangeNotSatisfiable,
		},
		{
			name:       "malformed unit",
			rangeSpec:  "units=0-1",
			wantStatus: http.StatusRequestedRangeNotSatisfiable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", audioURL, nil)
			require.NoError(t, err)
			req.Header.Set("Range", tt.rangeSpec)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusPartialContent {
				assert.Equal(t, tt.wantBody, string(body))
				assert.Equal(t, tt.wantRange, resp.Header.Get("Content-Range"))
			}
		})
	}
}

// TestSearchEndpoint tests the search endpoint
func TestSearchEndpoint(t *testing.T) {
	helper := NewTestHelper(t)

	helper.UploadAudio(t, "memo.m4a", []byte("x"), map[string]string{"title": "Grocery run"})
	helper.UploadAudio(t, "memo.m4a", []byte("x"), map[string]string{"title": "Team talk"})

	var response struct {
		Query   string                `json:"query"`
		Results []types.RecordingView `json:"results"`
		Count   int                   `json:"count"`
	}
	resp := helper.GetJSON(t, "/api/search?q="+url.QueryEscape("grocery"), &response)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "grocery", response.Query)
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "Grocery run", response.Results[0].Title)

	// Missing query parameter.
	var errResponse map[string]interface{}
	resp = helper.GetJSON(t, "/api/search", &errResponse)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errResponse, "error")
}

// multipartUpload bundles a built multipart body with its content type
type multipartUpload struct {
	body        io.Reader
	contentType string
}

func multipartBody(t *testing.T, filename string, payload []byte, fields map[string]string) multipartUpload {
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

	return multipartUpload{body: &buf, contentType: writer.FormDataContentType()}
}
