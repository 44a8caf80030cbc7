package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPError represents an error response from an artifact host.
type HTTPError struct {
	Message    string
	Headers    http.Header
	RequestURL *url.URL
	StatusCode int
}

// Allow HTTPError to satisfy error interface.
func (err *HTTPError) Error() string {
	msg := err.Message
	if msg == "" {
		msg = http.StatusText(err.StatusCode)
	}

	if err.RequestURL == nil {
		return fmt.Sprintf("download failed: %s", strings.ToLower(msg))
	}
	return fmt.Sprintf("download of %s failed: %s", err.RequestURL.Redacted(), strings.ToLower(msg))
}

// HandleHTTPError parses a http.Response into a HTTPError.
func HandleHTTPError(resp *http.Response) error {
	httpError := &HTTPError{
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
	}
	if resp.Request != nil {
		httpError.RequestURL = resp.Request.URL
	}

	if !jsonTypeRE.MatchString(resp.Header.Get(HeaderContentType)) {
		httpError.Message = resp.Status
		return httpError
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		httpError.Message = err.Error()
		return httpError
	}

	// GitHub reports {"message": ...}, most other hosts {"error": ...}
	var parsedBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsedBody); err != nil {
		httpError.Message = resp.Status
		return httpError
	}

	httpError.Message = parsedBody.Error
	if httpError.Message == "" {
		httpError.Message = parsedBody.Message
	}

	return httpError
}
