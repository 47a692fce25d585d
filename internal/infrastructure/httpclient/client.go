package httpclient

import (
	"crypto/tls"
	"net/http"
	"time"

	"tiktok_ingest/config"
)

// Client provides a pooled HTTP client shared by the media transfer path.
type Client struct {
	client *http.Client
}

// New creates an optimized HTTP client for I/O bound operations.
func New(cfg *config.Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
		ForceAttemptHTTP2: true,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.HTTPClientTimeout,
		},
	}
}

// Do performs an HTTP request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}
