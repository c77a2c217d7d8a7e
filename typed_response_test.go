package hammock

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/codeinpeace/hammock/internal/testserver"
)

const testPostmarkToken = "postmark-token"

func newPostmarkClient(t *testing.T, opts ...Option) (*Client, *testserver.Server) {
	t.Helper()
	server := testserver.New(testserver.WithPostmarkToken(testPostmarkToken))
	t.Cleanup(server.Close)

	base := []Option{
		WithAuthority(server.URL),
		WithJSON(),
		WithUserAgent("Hammock"),
		WithHeader("Accept", "application/json"),
		WithHeader("Content-Type", "application/json; charset=utf-8"),
		WithHeader("X-Postmark-Server-Token", testPostmarkToken),
	}
	return New(append(base, opts...)...), server
}

func postmarkRequest() *Request {
	return &Request{
		Path:   "email",
		Method: http.MethodPost,
		Entity: testserver.PostmarkMessage{
			From:     "sender@example.com",
			To:       "recipient@example.com",
			Subject:  "Hammock",
			TextBody: "Hello from the test suite",
		},
	}
}

func TestPostmarkEntityRoundTrip(t *testing.T) {
	client, server := newPostmarkClient(t)

	resp, err := RequestAs[testserver.PostmarkResponse](context.Background(), client, postmarkRequest())
	if err != nil {
		t.Fatalf("RequestAs() returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.ContentString())
	}
	if resp.ContentEntity == nil {
		t.Fatal("Expected ContentEntity")
	}
	if resp.ContentEntity.To != "recipient@example.com" || resp.ContentEntity.ErrorCode != 0 {
		t.Errorf("Unexpected entity %+v", resp.ContentEntity)
	}

	last := server.Last()
	if ct := last.Header.Values("Content-Type"); len(ct) != 1 || ct[0] != "application/json; charset=utf-8" {
		t.Errorf("Expected the configured Content-Type only, got %v", ct)
	}
	var sent testserver.PostmarkMessage
	if err := json.Unmarshal(last.Body, &sent); err != nil {
		t.Fatalf("Body is not JSON: %v", err)
	}
	if sent.Subject != "Hammock" {
		t.Errorf("Expected serialized entity, got %s", last.Body)
	}
	if len(last.Query) != 0 {
		t.Errorf("Expected no query, got %v", last.Query)
	}
}

func TestEntityWithoutMethodIsPosted(t *testing.T) {
	client, server := newPostmarkClient(t)
	req := postmarkRequest()
	req.Method = ""

	resp, err := RequestAs[testserver.PostmarkResponse](context.Background(), client, req)
	if err != nil {
		t.Fatalf("RequestAs() returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.ContentString())
	}
	if got := server.Last().Method; got != http.MethodPost {
		t.Errorf("Expected POST, got %s", got)
	}
	if resp.ContentEntity == nil || resp.ContentEntity.To != "recipient@example.com" {
		t.Errorf("Unexpected entity %+v", resp.ContentEntity)
	}
}

func TestSerializerSetsContentType(t *testing.T) {
	server := testserver.New(testserver.WithPostmarkToken(testPostmarkToken))
	defer server.Close()

	client := New(WithAuthority(server.URL), WithJSON(), WithHeader("X-Postmark-Server-Token", testPostmarkToken))
	if _, err := client.Request(context.Background(), postmarkRequest()); err != nil {
		t.Fatalf(unexpectedErrorMsg, err)
	}

	if ct := server.Last().Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected serializer content type, got %q", ct)
	}
}

func TestEntityKeepsParametersInQuery(t *testing.T) {
	client, server := newPostmarkClient(t)

	req := postmarkRequest()
	req.AddParameter("track", "true")
	if _, err := client.Request(context.Background(), req); err != nil {
		t.Fatalf(unexpectedErrorMsg, err)
	}

	if got := server.Last().Query.Get("track"); got != "true" {
		t.Errorf("Expected parameter in query when an entity is sent, got %q", got)
	}
}

func TestNonSuccessHasNoEntity(t *testing.T) {
	client, _ := newPostmarkClient(t)

	req := postmarkRequest()
	req.Entity = testserver.PostmarkMessage{Subject: "missing addresses"}

	resp, err := RequestAs[testserver.PostmarkResponse](context.Background(), client, req)
	if err != nil {
		t.Fatalf("RequestAs() returned error: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", resp.StatusCode)
	}
	if resp.ContentEntity != nil {
		t.Errorf("Expected no entity on non-2xx, got %+v", resp.ContentEntity)
	}
	if !strings.Contains(resp.ContentString(), "Invalid email request") {
		t.Errorf("Expected raw content to be kept, got %q", resp.ContentString())
	}
}

func TestDeserializationFailureKeepsResponse(t *testing.T) {
	server := newTwitterServer(t)
	client := New(WithAuthority(server.URL), WithJSON())

	resp, err := RequestAs[testserver.PostmarkResponse](context.Background(), client, NewRequest("echo"))
	if !IsSerializationError(err) {
		t.Fatalf("Expected serialization error, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusOK || resp.ContentString() != "GET /echo" {
		t.Fatalf("Expected raw response alongside the error, got %v", resp)
	}
	if resp.ContentEntity != nil {
		t.Error("Expected no entity")
	}
}

func TestTypedRequestFromCache(t *testing.T) {
	server := newTwitterServer(t)
	client := New(
		WithAuthority(server.URL),
		WithVersionPath("1"),
		WithJSON(),
		WithCache(NewInMemoryCache()),
		WithCacheKeyFunc(func() string { return testUsername }),
	)
	req := &Request{Path: "statuses/home_timeline.json", Credentials: basicAuthForTwitter()}

	for i := 0; i < 2; i++ {
		resp, err := RequestAs[[]testserver.Status](context.Background(), client, req)
		if err != nil {
			t.Fatalf("RequestAs() returned error: %v", err)
		}
		if resp.IsFromCache != (i == 1) {
			t.Errorf("Request %d: unexpected IsFromCache=%v", i, resp.IsFromCache)
		}
		if resp.ContentEntity == nil || len(*resp.ContentEntity) != 2 || (*resp.ContentEntity)[0].User != testUsername {
			t.Errorf("Request %d: unexpected entity %+v", i, resp.ContentEntity)
		}
	}
}

func TestTypedRequestWithoutDeserializer(t *testing.T) {
	client := New(WithAuthority("http://example.com"))

	_, err := RequestAs[testserver.Status](context.Background(), client, NewRequest("x"))
	if !IsConfigurationError(err) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestEmptyContentHasNoEntity(t *testing.T) {
	server := newTwitterServer(t)
	client := New(
		WithAuthority(server.URL),
		WithJSON(),
		WithMiddleware(func(req *http.Request, next RoundTripper) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			resp.Body.Close()
			resp.Body = http.NoBody
			return resp, nil
		}),
	)

	resp, err := RequestAs[testserver.Status](context.Background(), client, NewRequest("echo"))
	if err != nil {
		t.Fatalf("Expected no error for empty content, got %v", err)
	}
	if resp.ContentEntity != nil {
		t.Errorf("Expected nil entity, got %+v", resp.ContentEntity)
	}
}
