package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiUnavailableWithoutKey(t *testing.T) {
	c := NewGemini("", GeminiOptions{})
	if c.Available() {
		t.Fatal("Available() = true without an API key")
	}
	_, err := c.Converse(context.Background(), &ConverseRequest{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Converse() error = %v, want ErrUnavailable", err)
	}
}

func TestGeminiConverseToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if _, ok := req["tools"]; !ok {
			t.Error("tool declarations not forwarded")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [
				{"text": "Checking telemetry first."},
				{"functionCall": {"name": "analyze_scada_telemetry", "args": {"window_seconds": 60}}}
			]}}]
		}`))
	}))
	defer srv.Close()

	c := NewGemini("test-key", GeminiOptions{Endpoint: srv.URL})
	turn, err := c.Converse(context.Background(), &ConverseRequest{
		Messages: []Message{UserText("alert")},
		Tools:    []ToolDecl{{Name: "analyze_scada_telemetry"}},
	})
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if turn.Text != "Checking telemetry first." {
		t.Errorf("Text = %q", turn.Text)
	}
	if turn.ToolCall == nil || turn.ToolCall.Name != "analyze_scada_telemetry" {
		t.Fatalf("ToolCall = %+v, want analyze_scada_telemetry", turn.ToolCall)
	}
	var args struct {
		WindowSeconds int `json:"window_seconds"`
	}
	if err := json.Unmarshal(turn.ToolCall.Args, &args); err != nil || args.WindowSeconds != 60 {
		t.Fatalf("Args = %s, err %v", turn.ToolCall.Args, err)
	}
}

func TestGeminiConverseTextOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "All clear."}]}}]}`))
	}))
	defer srv.Close()

	c := NewGemini("test-key", GeminiOptions{Endpoint: srv.URL})
	turn, err := c.Converse(context.Background(), &ConverseRequest{Messages: []Message{UserText("status?")}})
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if turn.ToolCall != nil {
		t.Errorf("ToolCall = %+v, want nil", turn.ToolCall)
	}
	if turn.Text != "All clear." {
		t.Errorf("Text = %q", turn.Text)
	}
}

func TestGeminiConverseServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewGemini("test-key", GeminiOptions{Endpoint: srv.URL})
	_, err := c.Converse(context.Background(), &ConverseRequest{Messages: []Message{UserText("hi")}})

	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransientError", err)
	}
	if te.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", te.Status)
	}
}

func TestGeminiConverseEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	c := NewGemini("test-key", GeminiOptions{Endpoint: srv.URL})
	_, err := c.Converse(context.Background(), &ConverseRequest{Messages: []Message{UserText("hi")}})

	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransientError", err)
	}
}

func TestMessageConstructors(t *testing.T) {
	user := UserText("hello")
	if user.Role != RoleUser || user.Parts[0].Text != "hello" {
		t.Fatalf("UserText() = %+v", user)
	}

	turn := &Turn{Text: "thinking", ToolCall: &FunctionCall{Name: "t"}}
	model := ModelTurn(turn)
	if model.Role != RoleModel || len(model.Parts) != 2 {
		t.Fatalf("ModelTurn() = %+v", model)
	}
	if model.Parts[1].FunctionCall == nil {
		t.Fatal("ModelTurn() dropped the tool call")
	}

	result := ToolResult("t", map[string]int{"n": 1})
	if result.Role != RoleTool || result.Parts[0].FunctionResponse == nil {
		t.Fatalf("ToolResult() = %+v", result)
	}
	if result.Parts[0].FunctionResponse.Name != "t" {
		t.Fatalf("ToolResult() name = %q", result.Parts[0].FunctionResponse.Name)
	}
}
