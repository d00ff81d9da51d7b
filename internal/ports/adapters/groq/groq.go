package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/metrics"
)

const (
	DefaultModel = "llama-3.3-70b-versatile"

	completionsPath = "/openai/v1/chat/completions"
	maxTokens       = 2048
	temperature     = 0.3

	systemPrompt = "You are an expert at writing Python scripts using the Manim animation library."
	userTemplate = "Generate only the complete, self-contained Manim scene as Python code in a single .py file, " +
		"with no markdown fences or extra text before or after. Scene prompt: %s"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// New builds a client. The key is not checked here: a missing key surfaces
// as an auth failure on the first Complete call.
func New(apiKey, model, baseURL string) *Adapter {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Adapter{
		key:     strings.TrimSpace(apiKey),
		model:   model,
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{},
	}
}

func (a *Adapter) Model() string { return a.model }

// Complete sends one chat completion for the scene prompt and returns the
// first choice's text, unmodified.
func (a *Adapter) Complete(ctx context.Context, prompt string) (string, error) {
	if a.key == "" {
		metrics.IncError("groq", apperr.ReasonAuth)
		return "", apperr.Service(apperr.ReasonAuth, "groq: GROQ_API_KEY is not set", nil)
	}

	body, err := json.Marshal(buildRequest(a.model, prompt))
	if err != nil {
		return "", apperr.Service(apperr.ReasonMalformed, "groq: marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Service(apperr.ReasonNetwork, "groq: build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	metrics.IncLLMRequest(a.model)
	resp, err := a.client.Do(req)
	if err != nil {
		metrics.IncError("groq", apperr.ReasonNetwork)
		return "", apperr.Service(apperr.ReasonNetwork, "groq: request failed", errors.New(redactSecrets(err.Error(), a.key)))
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncError("groq", apperr.ReasonNetwork)
		return "", apperr.Service(apperr.ReasonNetwork, fmt.Sprintf("groq: status %d and read body failed", resp.StatusCode), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := statusReason(resp.StatusCode)
		metrics.IncError("groq", reason)
		return "", apperr.Service(reason,
			fmt.Sprintf("groq: status %d", resp.StatusCode),
			errors.New(truncate(redactSecrets(strings.TrimSpace(string(rb)), a.key), 400)))
	}

	var raw chatResponse
	if err := json.Unmarshal(rb, &raw); err != nil {
		metrics.IncError("groq", apperr.ReasonMalformed)
		return "", apperr.Service(apperr.ReasonMalformed, "groq: decode response", err)
	}
	if raw.Error != nil {
		metrics.IncError("groq", apperr.ReasonUpstream)
		return "", apperr.Service(apperr.ReasonUpstream, "groq: error response", errors.New(redactSecrets(raw.Error.Message, a.key)))
	}
	if len(raw.Choices) == 0 {
		metrics.IncError("groq", apperr.ReasonMalformed)
		return "", apperr.Service(apperr.ReasonMalformed, "groq: response has no choices", nil)
	}
	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		metrics.IncError("groq", apperr.ReasonMalformed)
		return "", apperr.Service(apperr.ReasonMalformed, "groq: unusable completion", err)
	}
	return content, nil
}

func buildRequest(model, prompt string) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userTemplate, prompt)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

func statusReason(code int) string {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperr.ReasonAuth
	case code == http.StatusTooManyRequests:
		return apperr.ReasonRateLimit
	default:
		return apperr.ReasonUpstream
	}
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return "", errors.New("empty content")
		}
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("empty content")
		}
		return s, nil
	case nil:
		return "", errors.New("empty content")
	default:
		return "", fmt.Errorf("unexpected content type %T", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
