package hammock

import (
	"net/http"
	"net/url"
	"strings"
)

// Parameter is a single name/value pair sent in the query string or form body.
type Parameter struct {
	Name  string
	Value string
}

// Parameters is an ordered, multi-valued parameter collection. Adding a
// name twice keeps both values.
type Parameters []Parameter

// Add appends a parameter.
func (p *Parameters) Add(name, value string) {
	*p = append(*p, Parameter{Name: name, Value: value})
}

// Get returns the first value for name.
func (p Parameters) Get(name string) string {
	for _, param := range p {
		if param.Name == name {
			return param.Value
		}
	}
	return ""
}

// Has reports whether name is present.
func (p Parameters) Has(name string) bool {
	for _, param := range p {
		if param.Name == name {
			return true
		}
	}
	return false
}

// Encode renders the parameters as a URL-encoded string in insertion order.
func (p Parameters) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String()
}

// Request is the per-call half of the configuration: what to call and how
// to authenticate it. The zero Method means POST when an Entity is set
// and GET otherwise.
type Request struct {
	Path        string
	Method      string
	Headers     http.Header
	Parameters  Parameters
	Credentials Credentials

	// Entity is serialized into the request body by the client's Serializer.
	Entity any
}

// NewRequest creates a GET request for path.
func NewRequest(path string) *Request {
	return &Request{Path: path, Method: http.MethodGet}
}

// AddHeader appends a header sent only with this request.
func (r *Request) AddHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
	r.Headers.Add(name, value)
}

// AddParameter appends a parameter sent only with this request.
func (r *Request) AddParameter(name, value string) {
	r.Parameters.Add(name, value)
}

// method defaults to POST for requests carrying an entity and GET otherwise.
func (r *Request) method() string {
	if r.Method == "" {
		if r.Entity != nil {
			return http.MethodPost
		}
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Outbound is a request under assembly. Credentials receive it after the
// URL and parameters are resolved and before it is turned into an
// *http.Request.
type Outbound struct {
	Method string

	// URL is the target without a query string.
	URL *url.URL

	Query Parameters

	// Form holds body parameters when the body is form-encoded; it is nil
	// otherwise.
	Form Parameters

	Header http.Header

	// HasEntity reports whether the body carries a serialized entity.
	HasEntity bool
}

// formEncoded reports whether parameters for method travel in the body.
func formEncoded(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
