package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"

	maxQuestions = 3
)

type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type Content struct {
	Parts []*Part `json:"parts"`
	Role  string  `json:"role,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type GenerateRequest struct {
	Contents         []*Content        `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Candidate struct {
	Content *Content `json:"content"`
}

type GenerateResponse struct {
	Candidates []*Candidate `json:"candidates"`
}

// ImageAnalysis is what the model says about a captured photo.
type ImageAnalysis struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	Color  string `json:"color"`
}

var ErrEmptyResponse = errors.New("gemini: empty response")

// Client talks to the Gemini generateContent endpoint. Calls go through a
// circuit breaker so a failing upstream is skipped quickly and callers fall
// back to canned values.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[WARN] circuit breaker %s: %v -> %v", name, from, to)
		},
	})
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// AnalyzeImage asks for a short title, a nostalgic prompt and a mood colour.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (ImageAnalysis, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	req := GenerateRequest{
		Contents: []*Content{{
			Parts: []*Part{
				{InlineData: &InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: analyzeImagePrompt},
			},
		}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":  map[string]any{"type": "STRING"},
					"prompt": map[string]any{"type": "STRING"},
					"color":  map[string]any{"type": "STRING"},
				},
				"required": []string{"title", "prompt", "color"},
			},
		},
	}

	var out ImageAnalysis
	if err := c.generateJSON(ctx, req, &out); err != nil {
		return ImageAnalysis{}, err
	}
	if out.Title == "" || out.Prompt == "" {
		return ImageAnalysis{}, fmt.Errorf("gemini: incomplete analysis %+v", out)
	}
	return out, nil
}

// ReflectionQuestions asks for up to three short follow-up questions about a
// story.
func (c *Client) ReflectionQuestions(ctx context.Context, story, title string) ([]string, error) {
	req := GenerateRequest{
		Contents: []*Content{{
			Parts: []*Part{{Text: fmt.Sprintf(reflectionPrompt, title, story)}},
		}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
		},
	}

	var questions []string
	if err := c.generateJSON(ctx, req, &questions); err != nil {
		return nil, err
	}

	out := make([]string, 0, maxQuestions)
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
		if len(out) == maxQuestions {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, payload GenerateRequest, out any) error {
	if !c.Configured() {
		return errors.New("gemini: api key not configured")
	}

	text, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, payload)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(stripFences(text.(string)), out); err != nil {
		return fmt.Errorf("gemini: decode model output: %w", err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, payload GenerateRequest) (string, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes GenerateResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", err
	}
	if len(geminiRes.Candidates) == 0 ||
		geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(text string) []byte {
	b := bytes.TrimSpace([]byte(text))
	b = bytes.TrimPrefix(b, []byte("```json"))
	b = bytes.TrimPrefix(b, []byte("```"))
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}
