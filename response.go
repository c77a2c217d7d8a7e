package hammock

import (
	"bytes"
	"fmt"
	"net/http"
)

// Response is the outcome of a single request. It is not modified after it
// is returned.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Content    []byte

	// IsFromCache is true when the response was rebuilt from the cache
	// without touching the network.
	IsFromCache bool

	RequestURL string
}

// TypedResponse carries the deserialized entity alongside the raw response.
// ContentEntity is nil when the response was not deserialized, for example
// on a non-2xx status.
type TypedResponse[T any] struct {
	*Response
	ContentEntity *T
}

// ContentString returns the raw content as a string.
func (r *Response) ContentString() string {
	return string(r.Content)
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

func (r *Response) String() string {
	if r == nil {
		return "<nil>"
	}
	source := "network"
	if r.IsFromCache {
		source = "cache"
	}
	return fmt.Sprintf("%d %s (%d bytes from %s)", r.StatusCode, r.RequestURL, len(r.Content), source)
}

func responseFromCache(entry *CacheEntry, requestURL string) *Response {
	status := http.StatusText(entry.StatusCode)
	if status != "" {
		status = fmt.Sprintf("%d %s", entry.StatusCode, status)
	}
	return &Response{
		StatusCode:  entry.StatusCode,
		Status:      status,
		Header:      entry.Header.Clone(),
		Content:     bytes.Clone(entry.Body),
		IsFromCache: true,
		RequestURL:  requestURL,
	}
}
