package hammock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client holds the configuration shared by every request: where to send
// it, default headers and parameters, caching and serialization. It is
// created once and reused. Header and parameter collections are not
// synchronised; do not mutate them while requests are in flight.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration

	authority   string
	versionPath string
	userAgent   string
	headers     http.Header
	parameters  Parameters
	credentials Credentials

	cache          Cache
	cacheKeyFunc   CacheKeyFunc
	cacheOptions   CacheOptions
	cacheCondition CacheCondition

	serializer   Serializer
	deserializer Deserializer

	middleware []Middleware
	limiter    *rate.Limiter

	metrics *MetricsCollector
	debug   *DebugConfig
	logger  Logger

	validationError error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors. The
// configuration is validated again on every request.
func New(options ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		timeout:    30 * time.Second,
		headers:    make(http.Header),
		middleware: []Middleware{},
		cacheOptions: CacheOptions{
			Duration: 5 * time.Minute,
			Mode:     AbsoluteExpiration,
		},
		debug: DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Authority returns the base URL the client targets.
func (c *Client) Authority() string {
	return c.authority
}

// AddHeader appends a header sent with every request.
func (c *Client) AddHeader(name, value string) {
	c.headers.Add(name, value)
}

// AddParameter appends a parameter sent with every request.
func (c *Client) AddParameter(name, value string) {
	c.parameters.Add(name, value)
}

// Request executes req and returns the raw response. Non-2xx statuses are
// returned as responses, not errors.
func (c *Client) Request(ctx context.Context, req *Request) (*Response, error) {
	resp, _, err := c.execute(ctx, req, nil)
	return resp, err
}

// RequestAs executes req and deserializes a 2xx response into T with the
// client's Deserializer. On a deserialization failure the response is
// returned together with the error.
func RequestAs[T any](ctx context.Context, c *Client, req *Request) (*TypedResponse[T], error) {
	if c.deserializer == nil {
		return nil, newConfigurationError("typed request requires a deserializer", ErrMissingDeserializer)
	}

	entity := new(T)
	resp, decoded, err := c.execute(ctx, req, entity)
	if resp == nil {
		return nil, err
	}

	typed := &TypedResponse[T]{Response: resp}
	if decoded {
		typed.ContentEntity = entity
	}
	return typed, err
}

func (c *Client) execute(ctx context.Context, req *Request, target any) (*Response, bool, error) {
	start := time.Now()

	if req == nil {
		return nil, false, newConfigurationError("request is nil", nil)
	}
	if err := c.ValidateConfiguration(); err != nil {
		return nil, false, err
	}
	if req.Entity != nil && c.serializer == nil {
		return nil, false, newConfigurationError("request entity requires a serializer", ErrMissingSerializer)
	}

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	out, err := c.buildOutbound(req)
	if err != nil {
		return nil, false, err
	}

	if err := c.authenticate(req, out, requestID); err != nil {
		return nil, false, err
	}

	endpoint := out.URL.Host + out.URL.Path
	fullURL := out.fullURL()

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Starting request", "requestID", requestID, "method", out.Method, "url", fullURL)
	}

	c.metrics.RecordRequestStart(out.Method, endpoint)
	defer c.metrics.RecordRequestEnd(out.Method, endpoint)

	cacheKey, cacheEnabled := c.cacheKey(req)
	if cacheEnabled {
		if entry, found := c.cache.Get(cacheKey); found {
			if c.debugEnabled() && c.debug.LogCache {
				c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", cacheKey)
			}
			c.metrics.RecordCacheHit(out.Method, endpoint)
			c.metrics.RecordRequest(out.Method, endpoint, entry.StatusCode, true, time.Since(start))

			resp := responseFromCache(entry, fullURL)
			decoded, err := c.decode(resp, target, requestID, out.Method, endpoint)
			return resp, decoded, err
		}

		c.metrics.RecordCacheMiss(out.Method, endpoint)
		if c.debugEnabled() && c.debug.LogCache {
			c.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", cacheKey)
		}
	}

	var body []byte
	if req.Entity != nil {
		body, err = c.serializer.Serialize(req.Entity)
		if err != nil {
			c.metrics.RecordError(ErrorTypeSerialization, out.Method, endpoint)
			return nil, false, c.clientError(ErrorTypeSerialization, "failed to serialize request entity", err, requestID, out.Method, fullURL, 0)
		}
		if out.Header.Get("Content-Type") == "" {
			out.Header.Set("Content-Type", c.serializer.ContentType())
		}
	}

	httpReq, err := out.httpRequest(ctx, body)
	if err != nil {
		return nil, false, c.clientError(ErrorTypeConfiguration, "failed to build request", err, requestID, out.Method, fullURL, 0)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.RecordError(ErrorTypeRateLimit, out.Method, endpoint)
			return nil, false, c.clientError(ErrorTypeRateLimit, "rate limiter wait failed", err, requestID, out.Method, fullURL, 0)
		}
	}

	httpResp, err := c.executeMiddleware(httpReq)
	if err != nil {
		c.metrics.RecordError(ErrorTypeTransport, out.Method, endpoint)
		if c.debugEnabled() && c.debug.LogRequests {
			c.logger.Warn("Request failed", "requestID", requestID, "error", err.Error())
		}
		return nil, false, c.clientError(ErrorTypeTransport, "request failed", err, requestID, out.Method, fullURL, 0)
	}

	content, err := io.ReadAll(httpResp.Body)
	_ = httpResp.Body.Close()
	if err != nil {
		c.metrics.RecordError(ErrorTypeTransport, out.Method, endpoint)
		return nil, false, c.clientError(ErrorTypeTransport, "failed to read response body", err, requestID, out.Method, fullURL, httpResp.StatusCode)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Content:    content,
		RequestURL: fullURL,
	}
	c.metrics.RecordRequest(out.Method, endpoint, resp.StatusCode, false, time.Since(start))

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Request completed", "requestID", requestID, "statusCode", resp.StatusCode, "bytes", len(content), "duration", time.Since(start))
	}

	decoded, decodeErr := c.decode(resp, target, requestID, out.Method, endpoint)

	if cacheEnabled && resp.IsSuccess() {
		c.cache.Set(cacheKey, cacheEntryFromResponse(resp), c.cacheOptions)
		if s, ok := c.cache.(sizer); ok {
			c.metrics.RecordCacheSize("default", s.Len())
		}
		if c.debugEnabled() && c.debug.LogCache {
			c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", cacheKey, "duration", c.cacheOptions.Duration, "mode", c.cacheOptions.Mode.String())
		}
	}

	return resp, decoded, decodeErr
}

// buildOutbound merges client and request configuration into an Outbound.
// Client values come first; request values are appended, never replacing.
func (c *Client) buildOutbound(req *Request) (*Outbound, error) {
	method := req.method()

	u, pathQuery, err := joinURL(c.authority, c.versionPath, req.Path)
	if err != nil {
		return nil, err
	}

	header := c.headers.Clone()
	if header == nil {
		header = make(http.Header)
	}
	for name, values := range req.Headers {
		for _, v := range values {
			header.Add(name, v)
		}
	}
	if c.userAgent != "" && header.Get("User-Agent") == "" {
		header.Set("User-Agent", c.userAgent)
	}

	params := make(Parameters, 0, len(c.parameters)+len(req.Parameters))
	params = append(params, c.parameters...)
	params = append(params, req.Parameters...)

	out := &Outbound{
		Method:    method,
		URL:       u,
		Query:     pathQuery,
		Header:    header,
		HasEntity: req.Entity != nil,
	}
	if formEncoded(method) && !out.HasEntity {
		out.Form = append(Parameters{}, params...)
	} else {
		out.Query = append(out.Query, params...)
	}
	return out, nil
}

func (c *Client) authenticate(req *Request, out *Outbound, requestID string) error {
	creds := req.Credentials
	if creds == nil {
		creds = c.credentials
	}
	if creds == nil {
		return nil
	}

	if err := creds.Authenticate(out); err != nil {
		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			clientErr = newConfigurationError("credentials failed to authenticate request", err)
		}
		clientErr.RequestID = requestID
		clientErr.Method = out.Method
		clientErr.URL = out.fullURL()
		return clientErr
	}

	scheme := "custom"
	if n, ok := creds.(schemeNamer); ok {
		scheme = n.scheme()
	}
	c.metrics.RecordAuth(scheme)
	if c.debugEnabled() && c.debug.LogAuth {
		c.logger.Debug("Request authenticated", "requestID", requestID, "scheme", scheme)
	}
	return nil
}

func (c *Client) cacheKey(req *Request) (string, bool) {
	if c.cache == nil || c.cacheKeyFunc == nil {
		return "", false
	}
	if c.cacheCondition != nil && !c.cacheCondition(req) {
		return "", false
	}
	return c.cacheKeyFunc(), true
}

// decode deserializes a 2xx response into target. Empty content decodes
// to nothing without error.
func (c *Client) decode(resp *Response, target any, requestID, method, endpoint string) (bool, error) {
	if target == nil || !resp.IsSuccess() || len(resp.Content) == 0 {
		return false, nil
	}
	if err := c.deserializer.Deserialize(resp.Content, resp.ContentType(), target); err != nil {
		c.metrics.RecordError(ErrorTypeSerialization, method, endpoint)
		return false, c.clientError(ErrorTypeSerialization, "failed to deserialize response content", err, requestID, method, resp.RequestURL, resp.StatusCode)
	}
	return true, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripperFunc(c.httpClient.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

func (c *Client) clientError(errorType, message string, cause error, requestID, method, target string, statusCode int) *ClientError {
	return &ClientError{
		Type:       errorType,
		Message:    message,
		Cause:      cause,
		RequestID:  requestID,
		Method:     method,
		URL:        target,
		StatusCode: statusCode,
		Timestamp:  time.Now(),
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// joinURL resolves authority + versionPath + path. A query string embedded
// in path is returned as parameters, in order.
func joinURL(authority, versionPath, path string) (*url.URL, Parameters, error) {
	base, err := url.Parse(authority)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, nil, newConfigurationError("authority must be an absolute URL", errors.Join(ErrMissingAuthority, err))
	}

	var rawQuery string
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, rawQuery = path[:i], path[i+1:]
	}

	if base.Path == "" {
		base.Path = "/"
	}
	u := base.JoinPath(versionPath, path)
	u.RawQuery = ""
	u.Fragment = ""

	return u, parseQuery(rawQuery), nil
}

func parseQuery(raw string) Parameters {
	var params Parameters
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		params.Add(name, value)
	}
	return params
}

func (o *Outbound) fullURL() string {
	u := *o.URL
	u.RawQuery = o.Query.Encode()
	return u.String()
}

func (o *Outbound) httpRequest(ctx context.Context, entity []byte) (*http.Request, error) {
	var body io.Reader
	switch {
	case entity != nil:
		body = bytes.NewReader(entity)
	case len(o.Form) > 0:
		body = strings.NewReader(o.Form.Encode())
		if o.Header.Get("Content-Type") == "" {
			o.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	req, err := http.NewRequestWithContext(ctx, o.Method, o.fullURL(), body)
	if err != nil {
		return nil, err
	}
	req.Header = o.Header
	return req, nil
}
