package api

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client downloads release artifacts.
type Client struct {
	client *http.Client
}

// NewClient builds a download client from opts.
func NewClient(opts ClientOptions) (*Client, error) {
	client, err := NewHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// NewClientFromHTTP wraps an existing http.Client.
func NewClientFromHTTP(client *http.Client) *Client {
	return &Client{client: client}
}

// Download issues a GET for url and returns the response body with its
// length, or -1 when the length is unknown. The caller closes the body.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "invalid download url %q", url)
	}

	logrus.WithField("url", url).Debug("downloading artifact")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !success {
		defer resp.Body.Close()
		return nil, 0, HandleHTTPError(resp)
	}

	return resp.Body, resp.ContentLength, nil
}
