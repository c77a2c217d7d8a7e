// Package hammock is a REST client SDK. A Client carries what is shared
// by every call (authority, version path, default headers and parameters,
// cache, serializers); a Request carries what is specific to one call
// (path, method, headers, parameters, credentials, entity). Executing a
// Request merges both into a single synchronous HTTP call.
//
//   - Credentials: basic auth and OAuth 1.0a (request token, access token,
//     protected resource, xAuth), signed with HMAC-SHA1, HMAC-SHA256,
//     PLAINTEXT or RSA-SHA1
//   - Response caching keyed by a caller-supplied function, with absolute
//     or sliding expiration
//   - Pluggable entity serialization (JSON and XML included)
//   - Middleware, an optional rate limiter, Prometheus metrics and
//     structured debug logging
//
// Client and request headers and parameters are unioned, never replaced:
// a name set at both levels is sent twice.
//
// Typical usage:
//
//	client := hammock.New(
//	    hammock.WithAuthority("https://api.twitter.com"),
//	    hammock.WithVersionPath("1"),
//	    hammock.WithCache(hammock.NewInMemoryCache()),
//	    hammock.WithCacheKeyFunc(func() string { return username }),
//	    hammock.WithCacheOptions(hammock.CacheOptions{Duration: 10 * time.Minute}),
//	)
//	resp, err := client.Request(ctx, &hammock.Request{
//	    Path:        "statuses/home_timeline.json",
//	    Credentials: &hammock.BasicAuthCredentials{Username: username, Password: password},
//	})
//
// Configuration errors (for example a cache without a key function) are
// reported before any network call. Non-2xx responses are returned as
// responses, not errors; there are no retries.
package hammock
