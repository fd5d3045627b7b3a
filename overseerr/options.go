package overseerr

import (
	"net/http"
	"time"
)

const (
	// DefaultConnectTimeout bounds TCP/TLS connection setup.
	DefaultConnectTimeout = 30 * time.Second
	// DefaultReadTimeout bounds the wait for response headers.
	DefaultReadTimeout = 5 * time.Second
	// DefaultPageSize is the take value used for paginated listings.
	DefaultPageSize = 100
	// DefaultUserID is the requesting user when none is configured.
	DefaultUserID = 1
)

// Option configures a Client.
type Option func(*Client)

// WithTimeouts sets the connect and read timeouts of lazily created connections.
func WithTimeouts(connect, read time.Duration) Option {
	return func(c *Client) {
		if connect > 0 {
			c.connectTimeout = connect
		}
		if read > 0 {
			c.readTimeout = read
		}
	}
}

// WithHTTPClient makes every session reuse the given http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.newConn = func() *http.Client { return httpClient }
	}
}

// WithPageSize sets the page size for paginated endpoints.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithDefaultUserID sets the user that requests are submitted as when no user is given.
func WithDefaultUserID(id int) Option {
	return func(c *Client) {
		if id > 0 {
			c.defaultUserID = id
		}
	}
}
