package hammock

import (
	"net/http"
	"testing"
	"time"
)

func TestParameters(t *testing.T) {
	var params Parameters
	params.Add("status", "hello world")
	params.Add("status", "a&b=c")
	params.Add("count", "5")

	if params.Get("status") != "hello world" {
		t.Errorf("Expected first value, got %q", params.Get("status"))
	}
	if !params.Has("count") || params.Has("missing") {
		t.Error("Has() reported wrong presence")
	}
	if got := params.Encode(); got != "status=hello+world&status=a%26b%3Dc&count=5" {
		t.Errorf("Unexpected encoding %q", got)
	}
	if (Parameters{}).Encode() != "" {
		t.Error("Expected empty encoding")
	}
}

func TestRequestDefaults(t *testing.T) {
	req := &Request{Path: "x"}
	if req.method() != http.MethodGet {
		t.Errorf("Expected GET, got %s", req.method())
	}

	req.Method = "post"
	if req.method() != http.MethodPost {
		t.Errorf("Expected method to be upper-cased, got %s", req.method())
	}

	withEntity := &Request{Path: "x", Entity: map[string]string{"a": "b"}}
	if withEntity.method() != http.MethodPost {
		t.Errorf("Expected POST for an entity without a method, got %s", withEntity.method())
	}
	withEntity.Method = http.MethodPut
	if withEntity.method() != http.MethodPut {
		t.Errorf("Expected explicit method to win, got %s", withEntity.method())
	}

	req.AddHeader("Only", "on this request")
	if req.Headers.Get("Only") != "on this request" {
		t.Error("Expected header on request")
	}
}

func TestFormEncoded(t *testing.T) {
	for method, want := range map[string]bool{
		http.MethodGet:     false,
		http.MethodHead:    false,
		http.MethodDelete:  false,
		http.MethodOptions: false,
		http.MethodPost:    true,
		http.MethodPut:     true,
		http.MethodPatch:   true,
	} {
		if formEncoded(method) != want {
			t.Errorf("formEncoded(%s) = %v", method, !want)
		}
	}
}

func TestBuildOutboundPlacesParameters(t *testing.T) {
	client := New(WithAuthority("http://api.twitter.com"), WithVersionPath("1"), WithJSON())
	client.AddParameter("client", "true")

	put := &Request{Path: "statuses/update.json", Method: http.MethodPut}
	put.AddParameter("status", "hi")
	out, err := client.buildOutbound(put)
	if err != nil {
		t.Fatalf("buildOutbound() error: %v", err)
	}
	if len(out.Query) != 0 || out.Form.Encode() != "client=true&status=hi" {
		t.Errorf("Expected form parameters, got query=%v form=%v", out.Query, out.Form)
	}

	withEntity := &Request{Path: "statuses/update.json", Method: http.MethodPost, Entity: map[string]string{"a": "b"}}
	out, err = client.buildOutbound(withEntity)
	if err != nil {
		t.Fatalf("buildOutbound() error: %v", err)
	}
	if out.Form != nil || out.Query.Encode() != "client=true" || !out.HasEntity {
		t.Errorf("Expected query parameters with an entity, got query=%v form=%v", out.Query, out.Form)
	}
	if got := out.fullURL(); got != "http://api.twitter.com/1/statuses/update.json?client=true" {
		t.Errorf("Unexpected URL %s", got)
	}
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{
		StatusCode: 204,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Content:    []byte("ok"),
		RequestURL: "http://example.com/x",
	}

	if !resp.IsSuccess() || resp.ContentString() != "ok" || resp.ContentType() != "text/plain" {
		t.Errorf("Unexpected helpers for %+v", resp)
	}
	if resp.String() != "204 http://example.com/x (2 bytes from network)" {
		t.Errorf("Unexpected String() %q", resp.String())
	}
	if (&Response{}).ContentType() != "" {
		t.Error("Expected empty content type without headers")
	}

	cached := responseFromCache(&CacheEntry{StatusCode: 200, Body: []byte("c"), StoredAt: time.Now()}, "http://example.com/x")
	if !cached.IsFromCache || cached.Status != "200 OK" {
		t.Errorf("Unexpected cached response %+v", cached)
	}
}

func TestRoundTripperFunc(t *testing.T) {
	callCount := 0

	roundTripper := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		callCount++
		return &http.Response{StatusCode: 200}, nil
	})

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	resp, err := roundTripper.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if callCount != 1 || resp.StatusCode != 200 {
		t.Errorf("Unexpected result: calls=%d status=%d", callCount, resp.StatusCode)
	}
}

func TestVersionStrings(t *testing.T) {
	if DefaultUserAgent() != "hammock/"+Version {
		t.Errorf("Unexpected user agent %s", DefaultUserAgent())
	}
	if GetVersion() == "" {
		t.Error("Expected version string")
	}
}
