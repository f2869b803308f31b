package search

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ClientConfig holds the cluster addresses and optional basic auth credentials.
type ClientConfig struct {
	Addrs    []string
	Username string
	Password string
	// Timeout bounds dialing and waiting for response headers; defaults to 5s
	Timeout time.Duration
}

// NewClient builds an Elasticsearch client that retries gateway errors and rejects
// TLS below 1.2.
func NewClient(cfg ClientConfig) (*elasticsearch.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Addrs,
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		MaxRetries:    2,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   8,
			ResponseHeaderTimeout: timeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		},
	})
}
