package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused by every pooled client so calls to the search
// service and the reader keep their connections warm.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        32,
	MaxIdleConnsPerHost: 16,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// NewPooledClient creates an http.Client on the shared transport. A zero
// timeout leaves deadlines to the caller's context.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
