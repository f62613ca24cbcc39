// Provider error classification.
//
// The SDKs surface HTTP failures as typed errors carrying the status code.
// StatusOf extracts that code so callers can branch on 401/429/500 without
// scraping error strings; the string fallback lives at the caller.

package llm

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

// StatusOf returns the HTTP status code carried by a provider error, if any.
func StatusOf(err error) (int, bool) {
	if err == nil {
		return 0, false
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}

	return 0, false
}
