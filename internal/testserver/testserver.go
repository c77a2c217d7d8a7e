// Package testserver provides in-process stand-ins for the third-party APIs
// the client is exercised against: a Twitter-like API guarded by basic auth
// and OAuth 1.0a, and a Postmark-like email API guarded by a server token.
// Every received request is recorded for later inspection.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codeinpeace/hammock/internal/oauth"
)

// Received is a recorded inbound request.
type Received struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header
	Body   []byte
}

// Server is a fake API server. Configure accounts before issuing requests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	received []Received
	hits     map[string]int

	accounts      map[string]string
	consumers     map[string]string
	postmarkToken string
}

// Option configures a Server.
type Option func(*Server)

// WithAccount accepts username/password for basic auth.
func WithAccount(username, password string) Option {
	return func(s *Server) {
		s.accounts[username] = password
	}
}

// WithConsumer accepts an OAuth consumer key with its secret.
func WithConsumer(key, secret string) Option {
	return func(s *Server) {
		s.consumers[key] = secret
	}
}

// WithPostmarkToken sets the expected X-Postmark-Server-Token.
func WithPostmarkToken(token string) Option {
	return func(s *Server) {
		s.postmarkToken = token
	}
}

// New starts a Server. Callers must Close it.
func New(opts ...Option) *Server {
	s := &Server{
		hits:      make(map[string]int),
		accounts:  make(map[string]string),
		consumers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/1/statuses", func(r chi.Router) {
		r.Use(s.basicAuth)
		r.Get("/home_timeline.json", s.homeTimeline)
		r.Post("/update.json", s.update)
	})
	r.Route("/oauth", func(r chi.Router) {
		r.Use(s.oauthSigned)
		r.HandleFunc("/request_token", s.requestToken)
	})
	r.Post("/email", s.email)
	r.Get("/echo", s.echo)
	r.Post("/echo", s.echo)
	r.Get("/status/{code}", s.status)

	s.Server = httptest.NewServer(r)
	return s
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Received(nil), s.received...)
}

// Last returns the most recent request. It panics when nothing was received.
func (s *Server) Last() Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received[len(s.received)-1]
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		rec := Received{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Form:   url.Values{},
			Header: r.Header.Clone(),
			Body:   body,
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if form, err := url.ParseQuery(string(body)); err == nil {
				rec.Form = form
			}
		}

		s.mu.Lock()
		s.received = append(s.received, rec)
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || s.accounts[user] == "" || s.accounts[user] != pass {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Could not authenticate you."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// oauthSigned rebuilds the base string from what arrived on the wire and
// rejects the request unless its signature verifies.
func (s *Server) oauthSigned(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := signedParams(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var consumerKey, signature, method string
		for _, p := range params {
			switch p.Key {
			case oauth.ParamConsumerKey:
				consumerKey = p.Value
			case oauth.ParamSignature:
				signature = p.Value
			case oauth.ParamSignatureMethod:
				method = p.Value
			}
		}

		secret, ok := s.consumers[consumerKey]
		if !ok {
			http.Error(w, "unknown consumer", http.StatusUnauthorized)
			return
		}

		u := &url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
		base := oauth.BaseString(r.Method, u, params)
		if err := oauth.Verify(oauth.Method(method), base, signature, secret, "", nil); err != nil {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func signedParams(r *http.Request) ([]oauth.Param, error) {
	var params []oauth.Param

	if h := r.Header.Get("Authorization"); h != "" {
		parsed, ok := oauth.ParseAuthorizationHeader(h)
		if !ok {
			return nil, fmt.Errorf("malformed authorization header")
		}
		params = append(params, parsed...)
	}

	for k, vs := range r.URL.Query() {
		for _, v := range vs {
			params = append(params, oauth.Param{Key: k, Value: v})
		}
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k, vs := range r.PostForm {
			for _, v := range vs {
				params = append(params, oauth.Param{Key: k, Value: v})
			}
		}
	}
	return params, nil
}

// Status is an entry of the home timeline.
type Status struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	User string `json:"user"`
}

func (s *Server) homeTimeline(w http.ResponseWriter, r *http.Request) {
	user, _, _ := r.BasicAuth()
	writeJSON(w, http.StatusOK, []Status{
		{ID: 1, Text: "first", User: user},
		{ID: 2, Text: "second", User: user},
	})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	text := r.PostForm.Get("status")
	if text == "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Status is missing."})
		return
	}
	user, _, _ := r.BasicAuth()
	writeJSON(w, http.StatusOK, Status{ID: time.Now().UnixNano(), Text: text, User: user})
}

func (s *Server) requestToken(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true")
}

// PostmarkMessage is the body accepted by the email endpoint.
type PostmarkMessage struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

// PostmarkResponse is returned by the email endpoint.
type PostmarkResponse struct {
	ErrorCode   int    `json:"ErrorCode"`
	Message     string `json:"Message"`
	MessageID   string `json:"MessageID"`
	SubmittedAt string `json:"SubmittedAt"`
	To          string `json:"To"`
}

func (s *Server) email(w http.ResponseWriter, r *http.Request) {
	if s.postmarkToken == "" || r.Header.Get("X-Postmark-Server-Token") != s.postmarkToken {
		writeJSON(w, http.StatusUnauthorized, PostmarkResponse{ErrorCode: 10, Message: "Bad or missing Server API token"})
		return
	}

	var msg PostmarkMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, PostmarkResponse{ErrorCode: 402, Message: "Invalid JSON"})
		return
	}
	if msg.From == "" || msg.To == "" {
		writeJSON(w, http.StatusUnprocessableEntity, PostmarkResponse{ErrorCode: 300, Message: "Invalid email request"})
		return
	}

	writeJSON(w, http.StatusOK, PostmarkResponse{
		ErrorCode:   0,
		Message:     "OK",
		MessageID:   fmt.Sprintf("msg-%d", time.Now().UnixNano()),
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
		To:          msg.To,
	})
}

func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s %s", r.Method, r.URL.RequestURI())
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	var code int
	if _, err := fmt.Sscanf(chi.URLParam(r, "code"), "%d", &code); err != nil || code < 100 {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]int{"status": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
