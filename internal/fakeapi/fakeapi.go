// Package fakeapi serves an in-process stand-in for the Epidata API so
// client, CLI and service tests can run without network access.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Path is the route the fake serves, mirroring the real endpoint.
const Path = "/epidata/api.php"

// Reply is a canned response for one data source.
type Reply struct {
	Status int
	Body   string
}

// Server is a fake Epidata endpoint. By default every request is answered
// with result 1 and an epidata array holding the received parameters.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	replies  map[string]Reply
	requests []url.Values
	headers  []http.Header
}

// New starts a fake server. Call Close when done.
func New() *Server {
	s := &Server{replies: make(map[string]Reply)}

	r := chi.NewRouter()
	r.Get(Path, s.handle)
	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the full endpoint URL to pass to epidata.WithBaseURL.
func (s *Server) URL() string { return s.srv.URL + Path }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Reply registers a canned response for source.
func (s *Server) Reply(source string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[source] = Reply{Status: status, Body: body}
}

// Requests returns a copy of the query parameters received so far.
func (s *Server) Requests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.requests))
	copy(out, s.requests)
	return out
}

// Headers returns a copy of the request headers received so far.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

// Count returns the number of requests received.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := q.Get("source")

	s.mu.Lock()
	s.requests = append(s.requests, q)
	s.headers = append(s.headers, r.Header.Clone())
	reply, ok := s.replies[source]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if ok {
		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply.Body))
		return
	}

	row := make(map[string]string, len(q))
	for k := range q {
		row[k] = q.Get(k)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result":  1,
		"message": "success",
		"epidata": []map[string]string{row},
	})
}
