package upstream

import "net/http"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for engine calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithStreamPath overrides the engine's stream endpoint path.
func WithStreamPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.streamPath = path
		}
	}
}
