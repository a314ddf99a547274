// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package rpctest provides an in-process controller endpoint for
// testing code that talks to the controller over rpc.
package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"

	"github.com/juju/jujugui/rpc"
)

// Handler answers one request. Returning a *rpc.RequestError sends its
// code along with the message.
type Handler func(req rpc.Request, params json.RawMessage) (interface{}, error)

// Server is a websocket endpoint speaking the controller's JSON-RPC
// protocol. Every request is handled on its own goroutine so that
// handlers may block.
type Server struct {
	httpServer *httptest.Server
	handler    Handler
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	requests []rpc.Request
	conns    []*websocket.Conn
	wg       sync.WaitGroup
}

type request struct {
	RequestId uint64          `json:"request-id"`
	Type      string          `json:"type"`
	Version   int             `json:"version"`
	Id        string          `json:"id"`
	Request   string          `json:"request"`
	Params    json.RawMessage `json:"params"`
}

type response struct {
	RequestId uint64      `json:"request-id"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error-code,omitempty"`
	Response  interface{} `json:"response,omitempty"`
}

// NewServer starts a Server answering requests with handler.
func NewServer(handler Handler) *Server {
	s := &Server{handler: handler}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// URL returns the websocket URL of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
}

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []rpc.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rpc.Request(nil), s.requests...)
}

// CloseConnections drops every open websocket without closing the
// server.
func (s *Server) CloseConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Close drops every connection and stops the server. Handlers still
// running must return for Close to complete.
func (s *Server) Close() {
	s.CloseConnections()
	s.httpServer.Close()
	s.wg.Wait()
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	var writing sync.Mutex
	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			_ = conn.Close()
			return
		}
		rpcReq := rpc.Request{
			Type:    req.Type,
			Version: req.Version,
			Id:      req.Id,
			Action:  req.Request,
		}
		s.mu.Lock()
		s.requests = append(s.requests, rpcReq)
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			result, err := s.handler(rpcReq, req.Params)
			resp := response{RequestId: req.RequestId}
			if err != nil {
				resp.Error = err.Error()
				var reqErr *rpc.RequestError
				if errors.As(err, &reqErr) {
					resp.Error = reqErr.Message
					resp.ErrorCode = reqErr.Code
				}
			} else {
				resp.Response = result
			}
			writing.Lock()
			defer writing.Unlock()
			_ = conn.WriteJSON(resp)
		}()
	}
}
