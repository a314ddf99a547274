// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

// DialOpts holds the options for dialing a controller.
type DialOpts struct {
	// InsecureSkipVerify disables verification of the controller's
	// certificate.
	InsecureSkipVerify bool

	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration

	// Header is sent with the handshake request.
	Header http.Header
}

// Dial opens a websocket to url and returns a Conn using it.
func Dial(ctx context.Context, url string, opts DialOpts) (*Conn, error) {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
	}
	ws, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Annotatef(err, "dialing %q", url)
	}
	logger.Debugf("connected to %q", url)
	return NewWebsocketConn(ws), nil
}
