package api

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/henvic/httpretty"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/thlib/go-timezone-local/tzlocal"
)

const (
	// headers
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentType     = "Content-Type"
	HeaderAccept          = "Accept"
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderUserAgent       = "User-Agent"
	HeaderTimeZone        = "Time-Zone"

	DefaultUserAgent = "formula-cli"
)

var (
	jsonTypeRE      = regexp.MustCompile(`[/+]json($|;)`)
	zstdDecoderPool = sync.Pool{
		New: func() any {
			d, err := zstd.NewReader(nil)
			if err != nil {
				panic(fmt.Sprintf("failed to create zstd reader: %v", err))
			}
			return d
		},
	}
)

func NewHTTPClient(opts ClientOptions) (*http.Client, error) {
	var rt http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		DisableCompression:  true,
	}

	if opts.Log != nil && logrus.GetLevel() == logrus.DebugLevel {
		opts.LogVerboseHTTP = true
	}

	if opts.Log != nil {
		logger := &httpretty.Logger{
			Time:           true,
			TLS:            false,
			Colors:         opts.LogColorize,
			RequestHeader:  opts.LogVerboseHTTP,
			ResponseHeader: opts.LogVerboseHTTP,
			// artifacts are binary
			RequestBody:  false,
			ResponseBody: false,
		}
		logger.SetOutput(opts.Log)
		rt = logger.RoundTripper(rt)
	}

	if opts.Headers == nil {
		opts.Headers = map[string]string{}
	}

	if !opts.SkipDefaultHeaders {
		resolveHeaders(opts.Headers, opts.UserAgent)
	}

	rt = newHeaderRoundTripper(opts.Headers, rt)
	rt = newDecompressingRoundTripper(rt)

	return &http.Client{Transport: rt, Timeout: opts.Timeout}, nil
}

type headerRoundTripper struct {
	headers map[string]string
	rt      http.RoundTripper
}

func resolveHeaders(headers map[string]string, userAgent string) {
	if _, ok := headers[HeaderUserAgent]; !ok {
		if userAgent == "" {
			userAgent = DefaultUserAgent
		}
		headers[HeaderUserAgent] = userAgent
	}
	if _, ok := headers[HeaderTimeZone]; !ok {
		if tz, err := tzlocal.RuntimeTZ(); err == nil && tz != "" {
			headers[HeaderTimeZone] = tz
		}
	}
	if _, ok := headers[HeaderAccept]; !ok {
		headers[HeaderAccept] = "application/octet-stream"
	}
}

func newHeaderRoundTripper(headers map[string]string, rt http.RoundTripper) http.RoundTripper {
	if len(headers) == 0 {
		return headerRoundTripper{headers: nil, rt: rt}
	}
	return headerRoundTripper{headers: headers, rt: rt}
}

func (hrt headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(HeaderAcceptEncoding, "zstd")

	for k, v := range hrt.headers {
		if reqCopy.Header.Get(k) == "" {
			reqCopy.Header.Set(k, v)
		}
	}

	return hrt.rt.RoundTrip(reqCopy)
}

type decompressingRoundTripper struct {
	rt http.RoundTripper
}

func newDecompressingRoundTripper(rt http.RoundTripper) http.RoundTripper {
	return &decompressingRoundTripper{rt: rt}
}

func (d decompressingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := d.rt.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get(HeaderContentEncoding) == "zstd" {
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		if err := decoder.Reset(resp.Body); err != nil {
			resp.Body.Close()
			zstdDecoderPool.Put(decoder)
			return nil, fmt.Errorf("failed to reset zstd reader: %w", err)
		}

		resp.Body = &zstdReadCloser{
			Decoder:      decoder,
			OriginalBody: resp.Body,
		}
		resp.Header.Del(HeaderContentEncoding)
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
	}

	return resp, nil
}

type zstdReadCloser struct {
	Decoder      *zstd.Decoder
	OriginalBody io.ReadCloser
}

func (z *zstdReadCloser) Read(p []byte) (n int, err error) {
	return z.Decoder.Read(p)
}

func (z *zstdReadCloser) Close() error {
	err := z.OriginalBody.Close()
	zstdDecoderPool.Put(z.Decoder)
	return err
}
