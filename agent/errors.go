// Error taxonomy for the conversation loop.
//
// Everything below SendMessage either returns a typed failure result
// (handlers, GraphQL adapter) or returns an error; Describe is the single
// place that converts errors into user-facing strings.

package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avennor/trawl/llm"
)

// RecursionLimitError reports a tool chain that exceeded the depth budget
// without producing a final answer.
type RecursionLimitError struct {
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("recursion limit of %d exceeded: tool chain produced no final answer", e.Limit)
}

// NoAPIKeyError reports a missing LLM API key. This is a configuration
// problem the user fixes by storing a key, not a fault in the turn itself.
type NoAPIKeyError struct {
	Provider string
	KeyName  string
}

func (e *NoAPIKeyError) Error() string {
	return fmt.Sprintf("no API key configured for %s (key name %q)", e.Provider, e.KeyName)
}

// Describe maps an error from SendMessage to a user-facing string.
// Known upstream failure classes get specific guidance; everything else
// is wrapped generically. Structured status codes from the provider SDKs
// are preferred; the substring check is the fallback for clients that
// only surface plain messages.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var noKey *NoAPIKeyError
	if errors.As(err, &noKey) {
		return fmt.Sprintf("No API key is configured for %s. Store one with key name %q before chatting.", noKey.Provider, noKey.KeyName)
	}

	var limit *RecursionLimitError
	if errors.As(err, &limit) {
		return fmt.Sprintf("The assistant chained more than %d tool calls without reaching an answer. Try a narrower request.", limit.Limit)
	}

	status, ok := llm.StatusOf(err)
	if !ok {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "401"):
			status = 401
		case strings.Contains(msg, "429"):
			status = 429
		case strings.Contains(msg, "500"):
			status = 500
		}
	}

	switch status {
	case 401:
		return "The LLM provider rejected the API key. Check that the stored key is valid."
	case 429:
		return "The LLM provider is rate limiting requests. Wait a moment and try again."
	case 500:
		return "The LLM provider reported an internal error. Try again shortly."
	}

	return fmt.Sprintf("Something went wrong: %v", err)
}
