// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

// JSONConn sends and receives messages to an underlying connection in
// JSON format. It is implemented by *websocket.Conn.
type JSONConn interface {
	WriteJSON(msg interface{}) error
	ReadJSON(msg interface{}) error
	Close() error
}

var _ JSONConn = (*websocket.Conn)(nil)

// inMsg holds an incoming message. The Params and Response fields are
// decoded lazily by ReadBody.
type inMsg struct {
	RequestId uint64          `json:"request-id"`
	Type      string          `json:"type,omitempty"`
	Version   int             `json:"version,omitempty"`
	Id        string          `json:"id,omitempty"`
	Request   string          `json:"request,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error-code,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
}

// outMsg holds an outgoing request.
type outMsg struct {
	RequestId uint64      `json:"request-id"`
	Type      string      `json:"type"`
	Version   int         `json:"version"`
	Id        string      `json:"id,omitempty"`
	Request   string      `json:"request"`
	Params    interface{} `json:"params"`
}

type jsonCodec struct {
	conn JSONConn

	mu      sync.Mutex
	closing bool
	msg     inMsg
}

// NewJSONCodec returns a Codec that reads and writes whole JSON
// messages on conn.
func NewJSONCodec(conn JSONConn) Codec {
	return &jsonCodec{conn: conn}
}

// NewWebsocketConn returns a Conn talking JSON over the websocket.
func NewWebsocketConn(ws *websocket.Conn) *Conn {
	return NewConn(NewJSONCodec(ws))
}

func (c *jsonCodec) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

// ReadHeader is part of Codec.
func (c *jsonCodec) ReadHeader(hdr *Header) error {
	c.msg = inMsg{}
	if err := c.conn.ReadJSON(&c.msg); err != nil {
		if c.isClosing() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return ErrShutdown
		}
		return errors.Annotate(err, "reading message")
	}
	hdr.RequestId = c.msg.RequestId
	hdr.Request = Request{
		Type:    c.msg.Type,
		Version: c.msg.Version,
		Id:      c.msg.Id,
		Action:  c.msg.Request,
	}
	hdr.Error = c.msg.Error
	hdr.ErrorCode = c.msg.ErrorCode
	return nil
}

// ReadBody is part of Codec.
func (c *jsonCodec) ReadBody(body interface{}) error {
	if body == nil || len(c.msg.Response) == 0 {
		return nil
	}
	return errors.Trace(json.Unmarshal(c.msg.Response, body))
}

// WriteMessage is part of Codec.
func (c *jsonCodec) WriteMessage(hdr *Header, body interface{}) error {
	return errors.Trace(c.conn.WriteJSON(&outMsg{
		RequestId: hdr.RequestId,
		Type:      hdr.Request.Type,
		Version:   hdr.Request.Version,
		Id:        hdr.Request.Id,
		Request:   hdr.Request.Action,
		Params:    body,
	}))
}

// Close is part of Codec.
func (c *jsonCodec) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()
	return errors.Trace(c.conn.Close())
}
