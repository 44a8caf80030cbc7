package api

import (
	"io"
	"time"
)

// ClientOptions holds available options to configure download clients.
type ClientOptions struct {
	// Headers are the headers that will be sent with every request.
	// Default headers set are Accept, Time-Zone, and User-Agent.
	// Default headers will be overridden by keys specified in Headers.
	Headers map[string]string

	// Log specifies a writer to write request logs to.
	Log io.Writer

	// LogColorize enables colorized logging to Log for display in a terminal.
	// Default is no coloring.
	LogColorize bool

	// LogVerboseHTTP enables logging HTTP headers to Log.
	// Default is only logging request URLs and response statuses.
	// By default fallback to logrus log level.
	LogVerboseHTTP bool

	// SkipDefaultHeaders disables setting of the default headers.
	SkipDefaultHeaders bool

	// Timeout specifies a time limit for each request.
	// Default is no timeout.
	Timeout time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}
