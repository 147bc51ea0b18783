package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around resty.Client. Retries are left to the
// sync coordinator, so the client itself never retries.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a resty-based client with the given request
// timeout. A zero timeout leaves resty's default in place.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPClient{Client: client}
}
