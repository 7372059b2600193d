package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the single abstraction the trainer uses to talk to a
// chat-completion service.
type Provider interface {
	// Generate sends a prompt and returns the completion. When req.Schema is
	// set the provider uses its native structured output mechanism and the
	// returned Content has already been validated against the schema. When
	// it is nil, Content holds the completion text encoded as a JSON string
	// (read it with Response.Text).
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Question and feedback generation are
	// single-turn, so this normally holds one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. Nil requests
	// free text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema and keys the compiled-schema cache.
	// Kebab-case, e.g. "tense-question-batch".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is validated JSON for schema requests, or a JSON string
	// wrapping the completion text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Text returns the completion as plain text. Content that is a JSON string
// is unquoted; anything else is returned verbatim.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// buildContent turns raw provider text into Response.Content. Free-text
// completions are wrapped as a JSON string; structured ones are validated.
func buildContent(schema *Schema, text string) (json.RawMessage, error) {
	if schema == nil {
		b, err := json.Marshal(text)
		if err != nil {
			return nil, &ErrInvalidResponse{Err: err}
		}
		return b, nil
	}

	content := json.RawMessage(strings.TrimSpace(text))
	if err := validateResponse(schema, content); err != nil {
		return nil, err
	}
	return content, nil
}
