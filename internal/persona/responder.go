package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 15 * time.Second

	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 500

	// User text is interpolated raw; content is treated as opaque text at
	// this layer.
	promptTemplate = "You are exactly this persona: %s. You are talking with someone. " +
		"Stay fully in character and never reveal that you are an AI.\n\nUser: %s\nYou:"
)

type FailureKind string

const (
	KindTimeout           FailureKind = "timeout"
	KindUpstreamError     FailureKind = "upstream_error"
	KindMalformedResponse FailureKind = "malformed_response"
)

// Failure wraps every way the upstream generation call can go wrong. Callers
// switch on Kind; nothing below this ever propagates as a raw fault.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("persona responder %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Responder produces one persona-conditioned reply for one user message.
type Responder interface {
	Respond(ctx context.Context, persona, userMessage string) (string, error)
}

// Client calls the generative-language generateContent endpoint. It keeps no
// state between calls.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, model, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Respond(ctx context.Context, persona, userMessage string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, persona, userMessage)

	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Failure{Kind: KindUpstreamError, Err: fmt.Errorf("marshal request: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Failure{Kind: KindUpstreamError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[PERSONA] Upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return "", &Failure{
			Kind: KindUpstreamError,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &Failure{Kind: KindMalformedResponse, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &Failure{Kind: KindMalformedResponse, Err: errors.New("no generated candidates in response")}
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", &Failure{Kind: KindMalformedResponse, Err: errors.New("empty generated text")}
	}

	return text, nil
}

func classifyTransportError(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: KindTimeout, Err: err}
	}
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return &Failure{Kind: KindTimeout, Err: err}
	}
	return &Failure{Kind: KindUpstreamError, Err: err}
}
