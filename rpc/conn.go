// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package rpc implements the client side of the controller's JSON-RPC
// protocol.
package rpc

import (
	"context"
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("jujugui.rpc")

// ErrShutdown is returned when a request is made on a connection that is
// shutting down.
const ErrShutdown = errors.ConstError("connection is shut down")

// IsShutdownErr returns true if the error is ErrShutdown.
func IsShutdownErr(err error) bool {
	return errors.Is(err, ErrShutdown)
}

// A Codec implements reading and writing of messages in an RPC
// session. The Conn calls WriteMessage to write a message to the
// connection and calls ReadHeader and ReadBody in pairs to read
// messages.
type Codec interface {
	// ReadHeader reads a message header into hdr.
	ReadHeader(hdr *Header) error

	// ReadBody reads the body of the message last read by ReadHeader
	// into body, or discards it if body is nil.
	ReadBody(body interface{}) error

	// WriteMessage writes a message with the given header and body.
	WriteMessage(hdr *Header, body interface{}) error

	// Close closes the codec. It may be called concurrently
	// and should cause the Read methods to unblock.
	Close() error
}

// Request identifies the remote method to invoke.
type Request struct {
	// Type holds the facade name.
	Type string

	// Version holds the facade version.
	Version int

	// Id holds the id of the object to act on, such as a watcher id.
	Id string

	// Action holds the method to invoke.
	Action string
}

// Header is a header written before every RPC call and read before
// every response.
type Header struct {
	// RequestId holds the sequence number of the request.
	RequestId uint64

	// Request identifies the method, and is empty in responses.
	Request Request

	// Error holds the error, if any.
	Error string

	// ErrorCode holds the code of the error, if any.
	ErrorCode string
}

// RequestError represents an error returned from an RPC request.
type RequestError struct {
	Message string
	Code    string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return e.Message + " (" + e.Code + ")"
	}
	return e.Message
}

// ErrorCode returns the error code associated with the error.
func (e *RequestError) ErrorCode() string {
	return e.Code
}

// Call represents an active RPC.
type Call struct {
	Request
	Params   interface{}
	Response interface{}
	Error    error
	Done     chan *Call
}

// Conn is the client end of an RPC connection. There may be multiple
// outstanding calls, made from multiple goroutines.
type Conn struct {
	// codec holds the underlying RPC connection.
	codec Codec

	// sending guards the write side of the codec - it ensures
	// that codec.WriteMessage is not called concurrently.
	sending sync.Mutex

	// mutex guards the following values.
	mutex sync.Mutex

	// reqId holds the latest request id.
	reqId uint64

	// pending holds all outstanding requests.
	pending map[uint64]*Call

	// tombstones holds the ids of cancelled requests whose
	// responses are still to arrive.
	tombstones map[uint64]struct{}

	// closing is set when the connection is shutting down via Close.
	closing bool

	// shutdown is set when the input loop terminates.
	shutdown bool

	// dead is closed when the input loop terminates.
	dead chan struct{}

	// inputLoopError holds the error that caused the input loop to
	// terminate prematurely. It is set before dead is closed.
	inputLoopError error
}

// NewConn creates a new connection that uses the given codec for
// transport and starts reading responses.
func NewConn(codec Codec) *Conn {
	conn := &Conn{
		codec:      codec,
		pending:    make(map[uint64]*Call),
		tombstones: make(map[uint64]struct{}),
		dead:       make(chan struct{}),
	}
	go conn.input()
	return conn
}

// Dead returns a channel that is closed when the connection has been
// closed or the underlying transport has received an error.
func (conn *Conn) Dead() <-chan struct{} {
	return conn.dead
}

// Close closes the connection and its underlying codec; it returns when
// all requests have been terminated.
func (conn *Conn) Close() error {
	conn.mutex.Lock()
	if conn.closing {
		conn.mutex.Unlock()
		<-conn.dead
		return nil
	}
	conn.closing = true
	conn.mutex.Unlock()

	// Closing the codec should cause the input loop to terminate.
	if err := conn.codec.Close(); err != nil {
		logger.Debugf("error closing codec: %v", err)
	}
	<-conn.dead
	return conn.inputLoopError
}

// input reads messages from the connection and hands them to the
// outstanding calls.
func (conn *Conn) input() {
	err := conn.loop()
	conn.sending.Lock()
	defer conn.sending.Unlock()
	conn.mutex.Lock()
	defer conn.mutex.Unlock()

	if conn.closing || errors.Is(err, io.EOF) || errors.Is(err, ErrShutdown) {
		err = ErrShutdown
	} else {
		// Make the error available for Conn.Close to see.
		conn.inputLoopError = err
		err = errors.Annotatef(ErrShutdown, "%v", err)
	}
	// Terminate all outstanding requests.
	for _, call := range conn.pending {
		call.Error = err
		call.done()
	}
	conn.pending = nil
	conn.shutdown = true
	close(conn.dead)
}

func (conn *Conn) loop() error {
	for {
		var hdr Header
		if err := conn.codec.ReadHeader(&hdr); err != nil {
			return err
		}
		if err := conn.handleResponse(&hdr); err != nil {
			return err
		}
	}
}

func (conn *Conn) send(call *Call) uint64 {
	conn.sending.Lock()
	defer conn.sending.Unlock()

	// Register this call.
	conn.mutex.Lock()
	if conn.closing || conn.shutdown {
		conn.mutex.Unlock()
		call.Error = ErrShutdown
		call.done()
		return 0
	}
	conn.reqId++
	reqId := conn.reqId
	conn.pending[reqId] = call
	conn.mutex.Unlock()

	hdr := &Header{
		RequestId: reqId,
		Request:   call.Request,
	}
	params := call.Params
	if params == nil {
		params = struct{}{}
	}
	if err := conn.codec.WriteMessage(hdr, params); err != nil {
		conn.mutex.Lock()
		call = conn.pending[reqId]
		delete(conn.pending, reqId)
		conn.mutex.Unlock()
		if call != nil {
			call.Error = errors.Annotate(err, "sending request")
			call.done()
		}
	}
	return reqId
}

func (conn *Conn) cancel(reqId uint64) {
	conn.mutex.Lock()
	defer conn.mutex.Unlock()
	if _, found := conn.pending[reqId]; found {
		conn.tombstones[reqId] = struct{}{}
		delete(conn.pending, reqId)
	}
}

func (conn *Conn) handleResponse(hdr *Header) error {
	reqId := hdr.RequestId
	conn.mutex.Lock()
	call := conn.pending[reqId]
	delete(conn.pending, reqId)
	_, cancelled := conn.tombstones[reqId]
	delete(conn.tombstones, reqId)
	conn.mutex.Unlock()

	var err error
	switch {
	case call == nil:
		// Nobody is waiting for the response, either because the
		// request was cancelled or because sending it failed.
		if !cancelled {
			logger.Debugf("discarding response to unknown request %d", reqId)
		}
		err = conn.codec.ReadBody(nil)
	case hdr.Error != "":
		call.Error = &RequestError{
			Message: hdr.Error,
			Code:    hdr.ErrorCode,
		}
		err = conn.codec.ReadBody(nil)
		call.done()
	default:
		err = conn.codec.ReadBody(call.Response)
		if err != nil {
			call.Error = errors.Annotate(err, "reading response")
			err = nil
		}
		call.done()
	}
	return errors.Annotate(err, "handling response")
}

func (call *Call) done() {
	select {
	case call.Done <- call:
	default:
		// The Done channel is created with room for the reply.
		logger.Errorf("discarding Call reply due to insufficient Done chan capacity")
	}
}

// Call invokes the remote method identified by req. The result is
// decoded into response, which should be a pointer or nil to discard
// the result. If the method fails remotely the error is a
// *RequestError.
func (conn *Conn) Call(ctx context.Context, req Request, params, response interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	call := &Call{
		Request:  req,
		Params:   params,
		Response: response,
		Done:     make(chan *Call, 1),
	}
	reqId := conn.send(call)
	if reqId == 0 {
		return call.Error
	}

	select {
	case <-ctx.Done():
		conn.cancel(reqId)
		return errors.Trace(ctx.Err())
	case result := <-call.Done:
		return result.Error
	}
}
