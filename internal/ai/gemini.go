package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultTextModel  = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultAudioModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	// DefaultMaxResponseSize caps a response body, generated images included
	DefaultMaxResponseSize = 32 << 20
)

var (
	// ErrNotConfigured is returned when no API key is available
	ErrNotConfigured = errors.New("gemini api key is not set")
	// ErrTimeout is returned when the service does not answer in time
	ErrTimeout = errors.New("generator request timed out")
	// ErrQuota is returned when the service rejects the request for rate or quota reasons
	ErrQuota = errors.New("generator quota exceeded")
	// ErrMalformedResponse is returned when the answer cannot be interpreted
	ErrMalformedResponse = errors.New("malformed generator response")
)

// APIError is an error reported by the service
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Is makes errors.Is(err, ErrQuota) hold for HTTP 429 answers
func (e *APIError) Is(target error) bool {
	return target == ErrQuota && e.StatusCode == http.StatusTooManyRequests
}

// Config configures the Gemini client
type Config struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Model             string        `koanf:"model"`
	ImageModel        string        `koanf:"image_model"`
	AudioModel        string        `koanf:"audio_model"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	MaxResponseSize   int64         `koanf:"max_response_size"`
}

// Gemini is a client for the Gemini generateContent API
type Gemini struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a new Gemini client
func New(cfg Config, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.AudioModel == "" {
		cfg.AudioModel = DefaultAudioModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}

	return &Gemini{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// Part is one piece of content: text or inline binary data
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded binary content
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is a turn of the conversation
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Schema describes the JSON shape the model must answer with
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// ImageConfig controls generated images
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// GenerationConfig represents the generation options of a request
type GenerationConfig struct {
	ResponseMimeType   string       `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema      `json:"responseSchema,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *ImageConfig `json:"imageConfig,omitempty"`
}

// GenerateRequest represents a request to the generateContent endpoint
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateResponse represents a response from the generateContent endpoint
type GenerateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// text joins the text parts of the first candidate
func (r *GenerateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// inline returns the first inline data part of the first candidate
func (r *GenerateResponse) inline() *InlineData {
	if len(r.Candidates) == 0 {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData
		}
	}
	return nil
}

func jsonMode(schema *Schema) *GenerationConfig {
	return &GenerationConfig{ResponseMimeType: "application/json", ResponseSchema: schema}
}

func textPrompt(text string) []Content {
	return []Content{{Role: "user", Parts: []Part{{Text: text}}}}
}

// generate sends one request and decodes the answer
func (g *Gemini) generate(ctx context.Context, model string, request GenerateRequest) (*GenerateResponse, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, classify(ctx, fmt.Errorf("waiting for rate limiter: %w", err))
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.cfg.MaxResponseSize+1))
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(body)) > g.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, g.cfg.MaxResponseSize)
	}

	g.logger.Debug("gemini request",
		zap.String("model", model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	var response GenerateResponse
	decodeErr := json.Unmarshal(body, &response)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && response.Error != nil {
			apiErr.Status = response.Error.Status
			apiErr.Message = response.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if response.Error != nil {
		return nil, &APIError{StatusCode: response.Error.Code, Status: response.Error.Status, Message: response.Error.Message}
	}
	if len(response.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", ErrMalformedResponse)
	}

	return &response, nil
}

// generateJSON runs a JSON-mode request and decodes the answer into out
func (g *Gemini) generateJSON(ctx context.Context, prompt string, schema *Schema, out any) error {
	response, err := g.generate(ctx, g.cfg.Model, GenerateRequest{
		Contents:         textPrompt(prompt),
		GenerationConfig: jsonMode(schema),
	})
	if err != nil {
		return err
	}
	return decodeText(response, out)
}

// decodeText decodes the JSON text of the first candidate into out
func decodeText(response *GenerateResponse, out any) error {
	text := response.text()
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// classify maps transport failures onto ErrTimeout where they are timeouts
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func encodeAudio(audio []byte) string {
	return base64.StdEncoding.EncodeToString(audio)
}
