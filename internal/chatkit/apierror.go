package chatkit

import (
	"fmt"
	"html"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
)

// FallbackMessage is surfaced when an error payload carries no usable text.
const FallbackMessage = "Failed to create ChatKit session"

// scrubPolicy strips markup from upstream-provided error text before it is
// surfaced to browser clients.
var scrubPolicy = bluemonday.StrictPolicy()

// APIError is a non-2xx response from the ChatKit API.
type APIError struct {
	StatusCode int
	Message    string
	Body       map[string]any
	Raw        string
}

// NewAPIError builds an APIError from an upstream status and response body.
// The body is decoded when it is JSON; the extracted message falls back to
// FallbackMessage when no recognized field is present.
func NewAPIError(status int, body []byte) *APIError {
	e := &APIError{
		StatusCode: status,
		Raw:        strings.TrimSpace(string(body)),
	}

	var decoded map[string]any
	if err := sonic.Unmarshal(body, &decoded); err == nil {
		e.Body = decoded
	}

	msg := extractMessage(e.Body)
	if msg == "" {
		msg = FallbackMessage
	}
	e.Message = Scrub(msg)

	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatkit: upstream rejected request: status %d: %s", e.StatusCode, e.Message)
}

// Details returns the decoded upstream body when it was JSON, the raw text
// otherwise.
func (e *APIError) Details() any {
	if e.Body != nil {
		return e.Body
	}
	return e.Raw
}

// extractMessage walks the shapes ChatKit error payloads come in, most
// specific first: a string or object under "error", a string or nested
// error under "details", then a top-level "message".
func extractMessage(payload map[string]any) string {
	if payload == nil {
		return ""
	}

	if msg := stringOrMessage(payload["error"]); msg != "" {
		return msg
	}

	switch details := payload["details"].(type) {
	case string:
		if details != "" {
			return details
		}
	case map[string]any:
		if msg := stringOrMessage(details["error"]); msg != "" {
			return msg
		}
	}

	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}

	return ""
}

// stringOrMessage accepts either a bare string or an object carrying a
// "message" field.
func stringOrMessage(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if msg, ok := val["message"].(string); ok {
			return msg
		}
	}
	return ""
}

// Scrub strips markup from upstream text while leaving plain characters
// intact.
func Scrub(s string) string {
	return html.UnescapeString(scrubPolicy.Sanitize(s))
}
