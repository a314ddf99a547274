// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package api connects to the controller, streams model deltas from its
// AllWatcher and issues the commands the GUI needs.
package api

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/names/v5"
	"github.com/juju/retry"
	"github.com/juju/version/v2"

	"github.com/juju/jujugui/api/params"
	"github.com/juju/jujugui/rpc"
)

var logger = loggo.GetLogger("jujugui.api")

// MinControllerVersion is the oldest controller whose facades are known
// to work. Older controllers are used anyway, with a warning.
var MinControllerVersion = version.MustParse("2.9.0")

// APICaller is implemented by the client-facing State object.
type APICaller interface {
	// APICall makes a call to the API server with the given object type,
	// id, request and parameters. The response is filled in with the
	// call's result if the call is successful.
	APICall(ctx context.Context, objType string, version int, id, request string, params, response interface{}) error

	// BestFacadeVersion returns the newest version of facade that both
	// the client and the server support.
	BestFacadeVersion(facade string) int
}

// Info encapsulates information about a controller sufficient to
// connect to it.
type Info struct {
	// URL is the websocket URL of the model's API.
	URL string

	// Insecure skips verification of the controller's certificate.
	Insecure bool

	// User and Password are the credentials to log in with.
	User     string
	Password string
}

// Validate returns an error if the info cannot be used to connect.
func (info Info) Validate() error {
	if info.URL == "" {
		return errors.NotValidf("empty URL")
	}
	if !names.IsValidUser(info.User) {
		return errors.NotValidf("user %q", info.User)
	}
	return nil
}

// DialOpts holds configuration parameters that control the dialing
// behavior of Open.
type DialOpts struct {
	// Attempts is the number of times to dial before giving up.
	Attempts int

	// Delay is the time to wait between attempts.
	Delay time.Duration

	// Timeout bounds each websocket handshake.
	Timeout time.Duration

	// Clock is used to wait between attempts.
	Clock clock.Clock
}

// DefaultDialOpts returns a DialOpts representing the default
// parameters for contacting a controller.
func DefaultDialOpts() DialOpts {
	return DialOpts{
		Attempts: 10,
		Delay:    5 * time.Second,
		Timeout:  30 * time.Second,
		Clock:    clock.WallClock,
	}
}

// State represents a logged in connection to the controller.
type State struct {
	conn *rpc.Conn

	mu             sync.Mutex
	facadeVersions map[string][]int
	serverVersion  version.Number
}

var _ APICaller = (*State)(nil)

// Open dials the controller, retrying as opts allow, and logs in.
func Open(ctx context.Context, info Info, opts DialOpts) (*State, error) {
	if err := info.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	var conn *rpc.Conn
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			var err error
			conn, err = rpc.Dial(ctx, info.URL, rpc.DialOpts{
				InsecureSkipVerify: info.Insecure,
				HandshakeTimeout:   opts.Timeout,
			})
			return err
		},
		IsFatalError: func(error) bool {
			return ctx.Err() != nil
		},
		NotifyFunc: func(lastErr error, attempt int) {
			logger.Warningf("dialing %q (attempt %d): %v", info.URL, attempt, lastErr)
		},
		Attempts: opts.Attempts,
		Delay:    opts.Delay,
		Clock:    opts.Clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		return nil, errors.Annotate(retry.LastError(err), "cannot connect to controller")
	}

	st := newState(conn)
	if err := st.Login(ctx, info.User, info.Password); err != nil {
		_ = conn.Close()
		return nil, errors.Trace(err)
	}
	return st, nil
}

func newState(conn *rpc.Conn) *State {
	return &State{
		conn:           conn,
		facadeVersions: make(map[string][]int),
	}
}

// Login authenticates as the given user and records the facade versions
// offered by the controller.
func (st *State) Login(ctx context.Context, user, password string) error {
	var result params.LoginResult
	err := st.APICall(ctx, "Admin", facadeVersions["Admin"], "", "Login", &params.LoginRequest{
		AuthTag:     names.NewUserTag(user).String(),
		Credentials: password,
	}, &result)
	if err != nil {
		return errors.Annotatef(err, "logging in as %q", user)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	for _, facade := range result.Facades {
		st.facadeVersions[facade.Name] = facade.Versions
	}
	if result.ServerVersion != "" {
		vers, err := version.Parse(result.ServerVersion)
		if err != nil {
			logger.Warningf("controller reported invalid version %q: %v", result.ServerVersion, err)
		} else {
			st.serverVersion = vers
		}
	}
	logger.Infof("logged in as %q (server version %q)", user, result.ServerVersion)
	if st.serverVersion != version.Zero && st.serverVersion.Compare(MinControllerVersion) < 0 {
		logger.Warningf("controller version %s is older than %s", st.serverVersion, MinControllerVersion)
	}
	return nil
}

// APICall is part of APICaller.
func (st *State) APICall(ctx context.Context, objType string, version int, id, request string, args, response interface{}) error {
	err := st.conn.Call(ctx, rpc.Request{
		Type:    objType,
		Version: version,
		Id:      id,
		Action:  request,
	}, args, response)
	return errors.Trace(err)
}

// BestFacadeVersion is part of APICaller. Facades the controller did
// not advertise are called at the client's version.
func (st *State) BestFacadeVersion(facade string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	versions, found := st.facadeVersions[facade]
	if !found {
		return facadeVersions[facade]
	}
	return bestVersion(facadeVersions[facade], versions)
}

// ServerVersion returns the version reported by the controller at login,
// or version.Zero if it did not report a valid one.
func (st *State) ServerVersion() version.Number {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.serverVersion
}

// Broken returns a channel that is closed when the connection is lost.
func (st *State) Broken() <-chan struct{} {
	return st.conn.Dead()
}

// Close closes the connection.
func (st *State) Close() error {
	return errors.Trace(st.conn.Close())
}
