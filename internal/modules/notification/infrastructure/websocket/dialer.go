package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

const defaultHandshakeTimeout = 10 * time.Second

// Dialer opens live-channel connections. *websocket.Conn satisfies
// domain.Conn directly.
type Dialer struct {
	dialer *websocket.Dialer
	header http.Header
}

func NewDialer(handshakeTimeout time.Duration) *Dialer {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	return &Dialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: http.Header{},
	}
}

// WithOrigin sets the Origin header sent on the handshake. Servers that
// check origins reject handshakes without one.
func (d *Dialer) WithOrigin(origin string) *Dialer {
	if origin != "" {
		d.header.Set("Origin", origin)
	}
	return d
}

func (d *Dialer) Dial(ctx context.Context, url string) (domain.Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}
