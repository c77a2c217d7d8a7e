// Package oauth checks OAuth 1.0a signatures on the receiving side: it
// parses Authorization headers, rebuilds the signature base string from
// what arrived on the wire and verifies the signature against it. The
// fake servers and tests use it to check what the client signed.
package oauth

import (
	"crypto"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // mandated by OAuth 1.0a HMAC-SHA1 / RSA-SHA1
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"sort"
	"strings"
)

// Version is the only protocol version accepted in oauth_version.
const Version = "1.0"

// Protocol parameter names.
const (
	ParamConsumerKey     = "oauth_consumer_key"
	ParamNonce           = "oauth_nonce"
	ParamSignature       = "oauth_signature"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamVersion         = "oauth_version"
	ParamCallback        = "oauth_callback"
	ParamVerifier        = "oauth_verifier"
)

// Method names a signature method as it appears on the wire.
type Method string

const (
	HMACSHA1   Method = "HMAC-SHA1"
	HMACSHA256 Method = "HMAC-SHA256"
	PlainText  Method = "PLAINTEXT"
	RSASHA1    Method = "RSA-SHA1"
)

var (
	// ErrUnsupportedMethod is returned for an unknown signature method.
	ErrUnsupportedMethod = errors.New("oauth: unsupported signature method")

	// ErrMissingPublicKey is returned by Verify for RSA-SHA1 without a key.
	ErrMissingPublicKey = errors.New("oauth: RSA-SHA1 requires a public key")

	// ErrSignatureMismatch is returned by Verify when the signature is wrong.
	ErrSignatureMismatch = errors.New("oauth: signature mismatch")
)

// Param is a single name/value pair taking part in a signature.
type Param struct {
	Key   string
	Value string
}

// Encode percent-encodes s per RFC 5849 §3.6: every byte outside the
// unreserved set ALPHA / DIGIT / "-" / "." / "_" / "~" becomes %XX with
// upper-case hex digits.
func Encode(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// NormalizeURL renders the base string URI of u: lower-case scheme and
// host, default ports dropped, no query or fragment.
func NormalizeURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// NormalizeParameters encodes every pair, sorts by encoded key then encoded
// value and joins them as k=v separated by '&'. oauth_signature is skipped.
func NormalizeParameters(params []Param) string {
	encoded := make([]Param, 0, len(params))
	for _, p := range params {
		if p.Key == ParamSignature {
			continue
		}
		encoded = append(encoded, Param{Key: Encode(p.Key), Value: Encode(p.Value)})
	}

	sort.SliceStable(encoded, func(i, j int) bool {
		if encoded[i].Key != encoded[j].Key {
			return encoded[i].Key < encoded[j].Key
		}
		return encoded[i].Value < encoded[j].Value
	})

	parts := make([]string, len(encoded))
	for i, p := range encoded {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, "&")
}

// BaseString builds the signature base string
// METHOD&enc(normalized url)&enc(normalized parameters).
func BaseString(method string, u *url.URL, params []Param) string {
	return strings.ToUpper(method) + "&" + Encode(NormalizeURL(u)) + "&" + Encode(NormalizeParameters(params))
}

// SigningKey joins the encoded consumer and token secrets with '&'. The
// token secret is empty while obtaining a request token.
func SigningKey(consumerSecret, tokenSecret string) string {
	return Encode(consumerSecret) + "&" + Encode(tokenSecret)
}

// Sign produces the oauth_signature value for base under an HMAC or
// PLAINTEXT method. RSA-SHA1 signatures can only be checked, see Verify.
func Sign(method Method, base, consumerSecret, tokenSecret string) (string, error) {
	switch method {
	case HMACSHA1:
		return hmacSign(sha1.New, base, SigningKey(consumerSecret, tokenSecret)), nil
	case HMACSHA256:
		return hmacSign(sha256.New, base, SigningKey(consumerSecret, tokenSecret)), nil
	case PlainText:
		return SigningKey(consumerSecret, tokenSecret), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
}

// Verify checks signature against base. key is only consulted for RSA-SHA1.
func Verify(method Method, base, signature, consumerSecret, tokenSecret string, key *rsa.PublicKey) error {
	if method == RSASHA1 {
		if key == nil {
			return ErrMissingPublicKey
		}
		sig, err := base64.StdEncoding.DecodeString(signature)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
		}
		digest := sha1.Sum([]byte(base)) //nolint:gosec
		if err := rsa.VerifyPKCS1v15(key, crypto.SHA1, digest[:], sig); err != nil {
			return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
		}
		return nil
	}

	want, err := Sign(method, base, consumerSecret, tokenSecret)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

func hmacSign(h func() hash.Hash, base, key string) string {
	mac := hmac.New(h, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ParseAuthorizationHeader splits an "OAuth k="v", ..." header value into
// its decoded parameters. The realm is dropped. It reports false when v is not an OAuth header.
func ParseAuthorizationHeader(v string) ([]Param, bool) {
	const prefix = "OAuth "
	if !strings.HasPrefix(v, prefix) {
		return nil, false
	}

	var params []Param
	for _, part := range strings.Split(v[len(prefix):], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, false
		}
		key, err := url.PathUnescape(kv[0])
		if err != nil {
			return nil, false
		}
		value, err := url.PathUnescape(strings.Trim(kv[1], `"`))
		if err != nil {
			return nil, false
		}
		if key == "realm" {
			continue
		}
		params = append(params, Param{Key: key, Value: value})
	}
	return params, true
}
