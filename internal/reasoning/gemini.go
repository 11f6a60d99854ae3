package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// GeminiClient talks to the Gemini generateContent API over HTTP.
type GeminiClient struct {
	client      *http.Client
	endpoint    string
	model       string
	apiKey      string
	temperature float64
}

// GeminiOptions configure a GeminiClient. Zero values take defaults.
type GeminiOptions struct {
	Endpoint    string
	Model       string
	Temperature float64
	CallTimeout time.Duration
}

// NewGemini creates a Gemini client. An empty apiKey produces a client whose
// Available() is false and whose Converse always returns ErrUnavailable.
func NewGemini(apiKey string, opts GeminiOptions) *GeminiClient {
	if opts.Endpoint == "" {
		opts.Endpoint = "https://generativelanguage.googleapis.com"
	}
	if opts.Model == "" {
		opts.Model = "gemini-3-pro-preview"
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	return &GeminiClient{
		client:      &http.Client{Timeout: opts.CallTimeout},
		endpoint:    strings.TrimSuffix(opts.Endpoint, "/"),
		model:       opts.Model,
		apiKey:      apiKey,
		temperature: opts.Temperature,
	}
}

func (g *GeminiClient) Available() bool {
	return g.apiKey != ""
}

// ── Wire Types ──────────────────────────────────────────────

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiToolSet `json:"tools,omitempty"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type geminiToolSet struct {
	FunctionDeclarations []ToolDecl `json:"functionDeclarations"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// ── Converse ────────────────────────────────────────────────

func (g *GeminiClient) Converse(ctx context.Context, req *ConverseRequest) (*Turn, error) {
	if !g.Available() {
		return nil, ErrUnavailable
	}

	payload := geminiRequest{
		Contents:         toContents(req.Messages),
		GenerationConfig: geminiGenConfig{Temperature: req.Temperature},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		payload.Tools = []geminiToolSet{{FunctionDeclarations: req.Tools}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransientError{Message: "marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &TransientError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		log.Warn().Int("status", resp.StatusCode).Str("model", g.model).Msg("Reasoning call failed")
		return nil, &TransientError{Status: resp.StatusCode, Message: string(raw)}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &TransientError{Message: "decode response", Err: err}
	}
	if len(gr.Candidates) == 0 {
		return nil, &TransientError{Message: "no candidates in response"}
	}

	turn := &Turn{}
	var texts []string
	for _, part := range gr.Candidates[0].Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
		if part.FunctionCall != nil && turn.ToolCall == nil {
			turn.ToolCall = part.FunctionCall
		}
	}
	turn.Text = strings.Join(texts, "\n")
	return turn, nil
}

// toContents maps conversation messages to the wire shape. Tool results ride
// under the user role per the generateContent contract.
func toContents(msgs []Message) []geminiContent {
	out := make([]geminiContent, 0, len(msgs))
	for _, m := range msgs {
		role := m.Role
		if role == RoleTool {
			role = RoleUser
		}
		out = append(out, geminiContent{Role: role, Parts: m.Parts})
	}
	return out
}

// Compile-time check that GeminiClient implements Client.
var _ Client = (*GeminiClient)(nil)
