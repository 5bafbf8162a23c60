package azure

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/imamik/cosmoclear/internal/remote"
)

const maxErrorBodySize = 1 << 20 // 1 MiB

// APIError is a non-2xx response from the management or data plane.
type APIError struct {
	Op        string
	Status    int
	Code      string
	Message   string
	URL       string
	RequestID string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	switch {
	case e.Code != "" && e.Message != "":
		fmt.Fprintf(&b, ": %s: %s", e.Code, e.Message)
	case e.Message != "":
		fmt.Fprintf(&b, ": %s", e.Message)
	case e.Code != "":
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	var details []string
	if e.URL != "" {
		details = append(details, "url="+e.URL)
	}
	if e.RequestID != "" {
		details = append(details, "request_id="+e.RequestID)
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	return b.String()
}

// Unwrap maps the status to the remote sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return remote.ErrUnauthorized
	case http.StatusNotFound:
		return remote.ErrNotFound
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return remote.ErrThrottled
	default:
		return nil
	}
}

func newAPIError(op, reqURL string, resp *http.Response, body []byte) *APIError {
	code, message := extractErrorMessage(body)
	requestID := strings.TrimSpace(resp.Header.Get("x-ms-request-id"))
	if requestID == "" {
		requestID = strings.TrimSpace(resp.Header.Get("x-ms-activity-id"))
	}
	return &APIError{
		Op:        op,
		Status:    resp.StatusCode,
		Code:      code,
		Message:   message,
		URL:       safeURL(reqURL),
		RequestID: requestID,
	}
}

// extractErrorMessage understands both the ARM envelope
// {"error":{"code","message"}} and the flat data-plane {"code","message"}.
func extractErrorMessage(body []byte) (string, string) {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		code := strings.TrimSpace(payload.Error.Code)
		msg := strings.TrimSpace(payload.Error.Message)
		if code == "" && msg == "" {
			code = strings.TrimSpace(payload.Code)
			msg = strings.TrimSpace(payload.Message)
		}
		if code != "" || msg != "" {
			return code, firstLine(msg)
		}
	}

	msg := strings.Join(strings.Fields(string(body)), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "…"
	}
	return "", msg
}

// firstLine drops the activity dump the data plane appends to messages.
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// safeURL strips the query, which may carry continuation tokens.
func safeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Scheme + "://" + u.Host + u.Path
}
