package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/codeinpeace/hammock"
)

var errMissingPath = errors.New("a request path is required")

// Options are the command line settings for a single request.
type Options struct {
	Authority   string
	VersionPath string
	Path        string
	Method      string
	UserAgent   string
	Headers     []string
	Parameters  []string
	Data        string
	Timeout     time.Duration
	Verbose     bool

	BasicUsername string
	BasicPassword string

	OAuthType           string
	OAuthConsumerKey    string
	OAuthConsumerSecret string
	OAuthToken          string
	OAuthTokenSecret    string
	OAuthVerifier       string
	OAuthCallback       string
	OAuthSignature      string
	OAuthInURL          bool
}

// AddFlags registers the options on f. Defaults for secrets are read from
// the environment so they stay off the command line.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.Authority, "authority", os.Getenv("HAMMOCK_AUTHORITY"), "Base URL requests are resolved against")
	f.StringVar(&o.VersionPath, "version-path", "", "Path segment between the authority and the request path")
	f.StringVarP(&o.Path, "path", "p", "", "Request path, may include a query string")
	f.StringVarP(&o.Method, "method", "X", http.MethodGet, "HTTP method")
	f.StringVar(&o.UserAgent, "user-agent", hammock.DefaultUserAgent(), "User-Agent header value")
	f.StringArrayVarP(&o.Headers, "header", "H", nil, "Request header as Name:Value, repeatable")
	f.StringArrayVarP(&o.Parameters, "param", "d", nil, "Request parameter as name=value, repeatable")
	f.StringVar(&o.Data, "json", "", "JSON entity sent as the request body")
	f.DurationVar(&o.Timeout, "timeout", 30*time.Second, "Request timeout")
	f.BoolVarP(&o.Verbose, "verbose", "v", false, "Log the request lifecycle to stderr")

	f.StringVar(&o.BasicUsername, "basic-username", os.Getenv("HAMMOCK_BASIC_USERNAME"), "Basic auth username")
	f.StringVar(&o.BasicPassword, "basic-password", os.Getenv("HAMMOCK_BASIC_PASSWORD"), "Basic auth password")

	f.StringVar(&o.OAuthType, "oauth", "", "OAuth flow: request-token, access-token or protected-resource")
	f.StringVar(&o.OAuthConsumerKey, "oauth-consumer-key", os.Getenv("OAUTH_CONSUMER_KEY"), "OAuth consumer key")
	f.StringVar(&o.OAuthConsumerSecret, "oauth-consumer-secret", os.Getenv("OAUTH_CONSUMER_SECRET"), "OAuth consumer secret")
	f.StringVar(&o.OAuthToken, "oauth-token", os.Getenv("OAUTH_TOKEN"), "OAuth token")
	f.StringVar(&o.OAuthTokenSecret, "oauth-token-secret", os.Getenv("OAUTH_TOKEN_SECRET"), "OAuth token secret")
	f.StringVar(&o.OAuthVerifier, "oauth-verifier", "", "OAuth verifier for access-token")
	f.StringVar(&o.OAuthCallback, "oauth-callback", "", "OAuth callback URL for request-token")
	f.StringVar(&o.OAuthSignature, "oauth-signature", "HMAC-SHA1", "OAuth signature method: HMAC-SHA1, HMAC-SHA256 or PLAINTEXT")
	f.BoolVar(&o.OAuthInURL, "oauth-in-url", false, "Send OAuth parameters in the URL or form body instead of the Authorization header")
}

// Client builds a Client from the options.
func (o *Options) Client() *hammock.Client {
	opts := []hammock.Option{
		hammock.WithAuthority(o.Authority),
		hammock.WithVersionPath(o.VersionPath),
		hammock.WithUserAgent(o.UserAgent),
		hammock.WithTimeout(o.Timeout),
		hammock.WithJSON(),
	}
	if o.Verbose {
		opts = append(opts, hammock.WithSimpleLogger())
	}
	return hammock.New(opts...)
}

// Request builds a Request from the options.
func (o *Options) Request() (*hammock.Request, error) {
	if o.Path == "" {
		return nil, errMissingPath
	}

	req := &hammock.Request{Path: o.Path, Method: strings.ToUpper(o.Method)}

	for _, h := range o.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("header %q: expected Name:Value", h)
		}
		req.AddHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	for _, p := range o.Parameters {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected name=value", p)
		}
		req.AddParameter(name, value)
	}

	if o.Data != "" {
		if !json.Valid([]byte(o.Data)) {
			return nil, errors.New("--json is not valid JSON")
		}
		req.Entity = json.RawMessage(o.Data)
	}

	creds, err := o.credentials()
	if err != nil {
		return nil, err
	}
	req.Credentials = creds

	return req, nil
}

func (o *Options) credentials() (hammock.Credentials, error) {
	if o.OAuthType == "" {
		if o.BasicUsername == "" {
			return nil, nil
		}
		return &hammock.BasicAuthCredentials{Username: o.BasicUsername, Password: o.BasicPassword}, nil
	}

	creds := &hammock.OAuthCredentials{
		ConsumerKey:    o.OAuthConsumerKey,
		ConsumerSecret: o.OAuthConsumerSecret,
		Token:          o.OAuthToken,
		TokenSecret:    o.OAuthTokenSecret,
		Verifier:       o.OAuthVerifier,
		CallbackURL:    o.OAuthCallback,
	}

	switch o.OAuthType {
	case "request-token":
		creds.Type = hammock.RequestToken
	case "access-token":
		creds.Type = hammock.AccessToken
	case "protected-resource":
		creds.Type = hammock.ProtectedResource
	default:
		return nil, fmt.Errorf("unknown oauth flow %q", o.OAuthType)
	}

	switch strings.ToUpper(o.OAuthSignature) {
	case "HMAC-SHA1":
		creds.SignatureMethod = hammock.HMACSHA1
	case "HMAC-SHA256":
		creds.SignatureMethod = hammock.HMACSHA256
	case "PLAINTEXT":
		creds.SignatureMethod = hammock.PlainText
	default:
		return nil, fmt.Errorf("unsupported oauth signature method %q", o.OAuthSignature)
	}

	if o.OAuthInURL {
		creds.ParameterHandling = hammock.URLOrPostParameters
	}

	return creds, creds.Validate()
}
