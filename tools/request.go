// Ad-hoc HTTP request tool. This one bypasses the proxy GraphQL API and
// talks to the target directly.

package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type sendRequestArgs struct {
	URL     string            `json:"url" jsonschema:"description=Absolute URL to request"`
	Method  string            `json:"method,omitempty" jsonschema:"description=HTTP method (default GET)"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"description=Request headers"`
	Body    string            `json:"body,omitempty" jsonschema:"description=Request body"`
}

// maxCapturedBody bounds how much response body is handed back to the
// model; larger bodies are truncated, not refused.
const maxCapturedBody = 64 * 1024

func (b *Backend) sendRequest(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args sendRequestArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid send_request input", err.Error()), nil
	}
	if args.URL == "" {
		return Fail("Missing url", "url is required"), nil
	}
	parsed, err := url.Parse(args.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Fail(fmt.Sprintf("Invalid url %q", args.URL), "url must be absolute with scheme and host"), nil
	}

	method := strings.ToUpper(args.Method)
	if method == "" {
		method = "GET"
	}

	req := b.http.R().SetContext(ctx).SetHeaders(args.Headers)
	if args.Body != "" {
		req.SetBody(args.Body)
	}

	resp, err := req.Execute(method, args.URL)
	if err != nil {
		return Fail(fmt.Sprintf("Request to %s failed: %v", args.URL, err), err.Error()), nil
	}

	body := string(resp.Body())
	truncated := false
	if len(body) > maxCapturedBody {
		body = body[:maxCapturedBody]
		truncated = true
	}

	headers := map[string]string{}
	for name, values := range resp.Header() {
		headers[name] = strings.Join(values, ", ")
	}

	data := map[string]interface{}{
		"status_code": resp.StatusCode(),
		"headers":     headers,
		"body":        body,
		"truncated":   truncated,
	}
	return Succeed(fmt.Sprintf("%s %s returned %d", method, args.URL, resp.StatusCode()), data), nil
}
