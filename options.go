package hammock

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// WithAuthority sets the base URL every request path is resolved against.
func WithAuthority(authority string) Option {
	return func(c *Client) {
		c.authority = authority
	}
}

// WithVersionPath sets the path segment inserted between the authority and
// the request path, e.g. "1" or "v2".
func WithVersionPath(versionPath string) Option {
	return func(c *Client) {
		c.versionPath = versionPath
	}
}

// WithUserAgent sets the User-Agent sent when no explicit header is given.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHeader adds a default header.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.headers.Add(name, value)
	}
}

// WithParameter adds a default parameter.
func WithParameter(name, value string) Option {
	return func(c *Client) {
		c.parameters.Add(name, value)
	}
}

// WithCredentials sets credentials used by requests that carry none.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		c.credentials = creds
	}
}

// WithCache sets the response cache. A cache key function is required.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithCacheKeyFunc sets the function producing the cache lookup key.
func WithCacheKeyFunc(fn CacheKeyFunc) Option {
	return func(c *Client) {
		c.cacheKeyFunc = fn
	}
}

// WithCacheOptions sets the expiration policy for stored responses.
func WithCacheOptions(opts CacheOptions) Option {
	return func(c *Client) {
		c.cacheOptions = opts
	}
}

// WithCacheCondition restricts caching to requests fn accepts.
func WithCacheCondition(fn CacheCondition) Option {
	return func(c *Client) {
		c.cacheCondition = fn
	}
}

// WithSerializer sets the request entity serializer.
func WithSerializer(s Serializer) Option {
	return func(c *Client) {
		c.serializer = s
	}
}

// WithDeserializer sets the response content deserializer.
func WithDeserializer(d Deserializer) Option {
	return func(c *Client) {
		c.deserializer = d
	}
}

// WithJSON uses a default JSONSerializer in both directions.
func WithJSON() Option {
	return func(c *Client) {
		s := NewJSONSerializer()
		c.serializer = s
		c.deserializer = s
	}
}

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		if c.httpClient != nil && c.timeout != 0 && c.httpClient.Timeout == 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithRateLimit limits outbound calls to r per second with the given burst.
// Cache hits do not consume tokens.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errs []error

	errs = append(errs, c.validateTargetConfig()...)
	errs = append(errs, c.validateCacheConfig()...)
	errs = append(errs, c.validateDebugConfig()...)
	errs = append(errs, c.validateMiddlewareConfig()...)
	errs = append(errs, c.validateHTTPClientConfig()...)

	if len(errs) > 0 {
		return newConfigurationError("configuration validation failed", errors.Join(errs...))
	}

	return nil
}

func (c *Client) validateTargetConfig() []error {
	var errs []error

	if c.authority == "" {
		errs = append(errs, ErrMissingAuthority)
	}

	return errs
}

func (c *Client) validateCacheConfig() []error {
	var errs []error

	if c.cache != nil {
		if c.cacheKeyFunc == nil {
			errs = append(errs, ErrMissingCacheKeyFunc)
		}
		if c.cacheOptions.Duration <= 0 {
			errs = append(errs, ErrInvalidCacheOptions)
		}
	}

	return errs
}

func (c *Client) validateDebugConfig() []error {
	var errs []error

	if c.debug != nil && c.debug.Enabled && c.logger == nil {
		errs = append(errs, errors.New("logger must be set when debug is enabled"))
	}

	return errs
}

func (c *Client) validateMiddlewareConfig() []error {
	var errs []error

	for i, middleware := range c.middleware {
		if middleware == nil {
			errs = append(errs, fmt.Errorf("middleware[%d] cannot be nil", i))
		}
	}

	return errs
}

func (c *Client) validateHTTPClientConfig() []error {
	var errs []error

	if c.httpClient == nil {
		errs = append(errs, errors.New("HTTP client cannot be nil"))
	}

	return errs
}
