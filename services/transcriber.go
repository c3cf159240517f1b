package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Transcriber turns a recording's audio into text, and text into the
// structured analysis document. Implementations do not retry; a failed
// call surfaces as a failed job.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Analyze(ctx context.Context, transcript string) (string, error)
}

// analysisPrompt asks for exactly the document shape the UI renders.
const analysisPrompt = `You are an assistant that analyzes voice memo transcriptions.
Respond with a single JSON object with these fields:
  "summary": a concise summary of the memo in at most three sentences,
  "suggestedTitle": a short descriptive title of at most six words,
  "events": array of {"title","startsAt","endsAt","location","notes"} for anything calendar-worthy, ISO-8601 date-times, omitting fields you don't know,
  "reminders": array of {"title","dueAt","notes"} for tasks and follow-ups.
Use empty arrays when nothing applies. Respond with JSON only.`

// openAIClient implements Transcriber against an OpenAI-compatible API.
type openAIClient struct {
	baseURL         string
	transcribeModel string
	analysisModel   string
	apiKey          func() string
	httpClient      *http.Client
}

// NewTranscriber creates a Transcriber talking to an OpenAI-compatible API.
// apiKey is consulted on every call so a settings change applies without a
// restart.
func NewTranscriber(baseURL, transcribeModel, analysisModel string, apiKey func() string) Transcriber {
	return &openAIClient{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		transcribeModel: transcribeModel,
		analysisModel:   analysisModel,
		apiKey:          apiKey,
		httpClient:      &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *openAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	key := c.apiKey()
	if key == "" {
		return "", fmt.Errorf("API key not set: add one under settings")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", c.transcribeModel); err != nil {
		return "", err
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+key)

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing transcription response: %w", err)
	}
	return apiResp.Text, nil
}

func (c *openAIClient) Analyze(ctx context.Context, transcript string) (string, error) {
	key := c.apiKey()
	if key == "" {
		return "", fmt.Errorf("API key not set: add one under settings")
	}
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("nothing to analyze: transcription is empty")
	}

	reqBody := chatRequest{
		Model:          c.analysisModel,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: analysisPrompt},
			{Role: "user", Content: "Here is the transcription to analyze:\n\n" + transcript},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing analysis response: %w", err)
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response from analysis API")
	}

	// Stored verbatim as the analysis document; decoding happens at display.
	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

func (c *openAIClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling AI API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
