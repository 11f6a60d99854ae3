// Package reasoning abstracts the external reasoning backend behind a small
// conversational interface. The orchestrator only ever sees Converse and two
// failure shapes: ErrUnavailable (no backend configured, degrade before the
// first turn) and *TransientError (backend failed mid-conversation).
package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable means no reasoning backend is configured or reachable. It is
// returned before any turn is consumed so callers can fall back cleanly.
var ErrUnavailable = errors.New("reasoning backend unavailable")

// TransientError wraps a mid-conversation backend failure (HTTP error,
// timeout, malformed response). The conversation so far is lost.
type TransientError struct {
	Status  int // HTTP status when applicable, else 0
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reasoning backend error: %s: %v", e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("reasoning backend error: status %d: %s", e.Status, e.Message)
	}
	return "reasoning backend error: " + e.Message
}

func (e *TransientError) Unwrap() error { return e.Err }

// ── Conversation Model ──────────────────────────────────────

// Message roles follow the backend wire contract.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// Message is one conversation entry.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is one message fragment: free text, a tool call the model issued, or
// a tool result fed back in. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model. Args is the raw
// argument object; callers decode it against the tool's own schema.
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string `json:"name"`
	Response any    `json:"response"`
}

// ToolDecl declares a callable tool to the backend.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ConverseRequest is one reasoning turn: the system prompt, the conversation
// so far, and the tools the model may call.
type ConverseRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolDecl
	Temperature float64
}

// Turn is the model's reply. ToolCall is nil when the model answered with
// free text only; Text may accompany a tool call as the model's thought.
type Turn struct {
	Text     string
	ToolCall *FunctionCall
}

// Client is the reasoning backend seen by the orchestrator.
type Client interface {
	// Converse runs one turn. Returns ErrUnavailable when no backend is
	// configured, *TransientError on mid-conversation failure.
	Converse(ctx context.Context, req *ConverseRequest) (*Turn, error)
	// Available reports whether Converse can be attempted at all.
	Available() bool
}

// ── Message Constructors ────────────────────────────────────

// UserText builds a plain user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// ModelTurn rebuilds the model's own reply for conversation history.
func ModelTurn(turn *Turn) Message {
	msg := Message{Role: RoleModel}
	if turn.Text != "" {
		msg.Parts = append(msg.Parts, Part{Text: turn.Text})
	}
	if turn.ToolCall != nil {
		msg.Parts = append(msg.Parts, Part{FunctionCall: turn.ToolCall})
	}
	return msg
}

// ToolResult builds the message feeding a tool's output back to the model.
func ToolResult(name string, payload any) Message {
	return Message{
		Role:  RoleTool,
		Parts: []Part{{FunctionResponse: &FunctionResponse{Name: name, Response: payload}}},
	}
}
