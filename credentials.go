package hammock

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gomodule/oauth1/oauth"
)

// Credentials authenticate an outbound request. Implementations add headers
// or parameters to the Outbound; they never perform network calls.
type Credentials interface {
	Authenticate(out *Outbound) error
}

// schemeNamer is implemented by credentials that report a scheme label for
// metrics and logs.
type schemeNamer interface {
	scheme() string
}

// BasicAuthCredentials sends "Authorization: Basic base64(user:pass)".
type BasicAuthCredentials struct {
	Username string
	Password string
}

// Authenticate sets the Basic Authorization header.
func (c *BasicAuthCredentials) Authenticate(out *Outbound) error {
	if c.Username == "" {
		return newConfigurationError("basic auth requires a username", ErrInvalidCredentials)
	}
	out.Header.Set("Authorization", BasicAuthHeader(c.Username, c.Password))
	return nil
}

func (c *BasicAuthCredentials) scheme() string { return "basic" }

// BasicAuthHeader renders the Authorization header value for basic auth.
func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// OAuthType selects which leg of the OAuth 1.0a flow the credentials sign.
type OAuthType int

const (
	// RequestToken signs the temporary credential request. No token is sent
	// and the token secret is empty.
	RequestToken OAuthType = iota
	// AccessToken exchanges an authorized request token and verifier.
	AccessToken
	// ProtectedResource signs a call made with an access token.
	ProtectedResource
	// ClientAuthentication exchanges a username and password for an access
	// token (xAuth).
	ClientAuthentication
)

func (t OAuthType) String() string {
	switch t {
	case RequestToken:
		return "request_token"
	case AccessToken:
		return "access_token"
	case ProtectedResource:
		return "protected_resource"
	case ClientAuthentication:
		return "client_authentication"
	default:
		return fmt.Sprintf("OAuthType(%d)", int(t))
	}
}

// OAuthSignatureMethod names the signature algorithm.
type OAuthSignatureMethod int

const (
	// HMACSHA1 signs with HMAC-SHA1 keyed by the consumer and token secrets.
	HMACSHA1 OAuthSignatureMethod = iota
	// HMACSHA256 signs with HMAC-SHA256 keyed like HMACSHA1.
	HMACSHA256
	// PlainText sends the signing key itself as the signature. Only safe
	// over TLS.
	PlainText
	// RSASHA1 signs with the consumer's PrivateKey; ConsumerSecret is unused.
	RSASHA1
)

func (m OAuthSignatureMethod) wire() oauth.SignatureMethod {
	switch m {
	case HMACSHA256:
		return oauth.HMACSHA256
	case PlainText:
		return oauth.PLAINTEXT
	case RSASHA1:
		return oauth.RSASHA1
	default:
		return oauth.HMACSHA1
	}
}

// OAuthParameterHandling selects where the protocol parameters are sent.
type OAuthParameterHandling int

const (
	// HTTPAuthorizationHeader sends the oauth_* parameters in an
	// "Authorization: OAuth ..." header.
	HTTPAuthorizationHeader OAuthParameterHandling = iota
	// URLOrPostParameters sends the oauth_* parameters in the form body when
	// the request is form-encoded and in the query string otherwise.
	URLOrPostParameters
)

const (
	paramCallback = "oauth_callback"
	paramVerifier = "oauth_verifier"
)

// OAuthCredentials sign requests with OAuth 1.0a. Nonce, timestamp and
// oauth_version "1.0" are generated per call.
type OAuthCredentials struct {
	Type              OAuthType
	SignatureMethod   OAuthSignatureMethod
	ParameterHandling OAuthParameterHandling

	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string

	CallbackURL string
	Verifier    string
	Realm       string

	// ClientUsername and ClientPassword are used by ClientAuthentication.
	ClientUsername string
	ClientPassword string

	// PrivateKey is required for RSASHA1.
	PrivateKey *rsa.PrivateKey
}

func (c *OAuthCredentials) scheme() string { return "oauth" }

// Validate checks the credential invariants for the configured flow.
func (c *OAuthCredentials) Validate() error {
	if c.ConsumerKey == "" {
		return newConfigurationError("oauth requires a consumer key", ErrInvalidCredentials)
	}
	if c.SignatureMethod == RSASHA1 {
		if c.PrivateKey == nil {
			return newConfigurationError("oauth RSA-SHA1 requires a private key", ErrInvalidCredentials)
		}
	} else if c.ConsumerSecret == "" {
		return newConfigurationError("oauth requires a consumer secret", ErrInvalidCredentials)
	}

	switch c.Type {
	case RequestToken:
	case AccessToken, ProtectedResource:
		if c.Token == "" {
			return newConfigurationError(fmt.Sprintf("oauth %s requires a token", c.Type), ErrInvalidCredentials)
		}
	case ClientAuthentication:
		if c.ClientUsername == "" || c.ClientPassword == "" {
			return newConfigurationError("oauth client authentication requires a username and password", ErrInvalidCredentials)
		}
	default:
		return newConfigurationError(fmt.Sprintf("unknown %s", c.Type), ErrInvalidCredentials)
	}
	return nil
}

// Authenticate signs out and places the protocol parameters according to
// ParameterHandling.
func (c *OAuthCredentials) Authenticate(out *Outbound) error {
	if err := c.Validate(); err != nil {
		return err
	}

	client := &oauth.Client{
		Credentials:     oauth.Credentials{Token: c.ConsumerKey, Secret: c.ConsumerSecret},
		SignatureMethod: c.SignatureMethod.wire(),
		PrivateKey:      c.PrivateKey,
	}
	token := c.token()

	extra := c.flowParameters()
	values := url.Values{}
	for _, p := range out.Query {
		values.Add(p.Name, p.Value)
	}
	for _, p := range out.Form {
		values.Add(p.Name, p.Value)
	}
	for _, p := range extra {
		values.Add(p.Name, p.Value)
	}

	// x_auth_* always travel as parameters, they are not oauth_ protocol
	// parameters and do not belong in the header.
	target := &out.Query
	if out.Form != nil {
		target = &out.Form
	}

	switch c.ParameterHandling {
	case URLOrPostParameters:
		before := make(map[string]bool, len(values))
		for k := range values {
			before[k] = true
		}
		if err := client.SignForm(token, out.Method, out.URL.String(), values); err != nil {
			return newConfigurationError("oauth signing failed", err)
		}
		for _, p := range extra {
			target.Add(p.Name, p.Value)
		}
		added := make([]string, 0, len(values)-len(before))
		for k := range values {
			if !before[k] {
				added = append(added, k)
			}
		}
		sort.Strings(added)
		for _, k := range added {
			target.Add(k, values.Get(k))
		}
	default:
		signed := make(http.Header)
		if err := client.SetAuthorizationHeader(signed, token, out.Method, out.URL, values); err != nil {
			return newConfigurationError("oauth signing failed", err)
		}
		for _, p := range extra {
			if !strings.HasPrefix(p.Name, "oauth_") {
				target.Add(p.Name, p.Value)
			}
		}
		out.Header.Set("Authorization", c.authorizationHeader(signed.Get("Authorization"), extra))
	}
	return nil
}

// authorizationHeader adds the realm and any oauth_ flow parameters to the
// header rendered by the signer. Both are already covered by the signature.
func (c *OAuthCredentials) authorizationHeader(signed string, extra Parameters) string {
	parts := make([]string, 0, 2+len(extra))
	if c.Realm != "" {
		parts = append(parts, fmt.Sprintf("realm=%q", oauthEncode(c.Realm)))
	}
	parts = append(parts, strings.TrimPrefix(signed, "OAuth "))
	for _, p := range extra {
		if strings.HasPrefix(p.Name, "oauth_") {
			parts = append(parts, fmt.Sprintf("%s=%q", p.Name, oauthEncode(p.Value)))
		}
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func (c *OAuthCredentials) token() *oauth.Credentials {
	switch c.Type {
	case AccessToken, ProtectedResource:
		return &oauth.Credentials{Token: c.Token, Secret: c.TokenSecret}
	default:
		return nil
	}
}

// flowParameters are the signed parameters the library does not add itself.
func (c *OAuthCredentials) flowParameters() Parameters {
	var params Parameters
	switch c.Type {
	case RequestToken:
		if c.CallbackURL != "" {
			params.Add(paramCallback, c.CallbackURL)
		}
	case AccessToken:
		if c.Verifier != "" {
			params.Add(paramVerifier, c.Verifier)
		}
	case ClientAuthentication:
		params.Add("x_auth_mode", "client_auth")
		params.Add("x_auth_password", c.ClientPassword)
		params.Add("x_auth_username", c.ClientUsername)
	}
	return params
}

// oauthEncode percent-encodes s per RFC 3986 unreserved characters.
func oauthEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
