package hammock

import (
	"errors"
	"fmt"
	"time"
)

// Error types carried by ClientError.Type.
const (
	ErrorTypeConfiguration = "Configuration"
	ErrorTypeTransport     = "Transport"
	ErrorTypeSerialization = "Serialization"
	ErrorTypeRateLimit     = "RateLimit"
)

// Sentinel causes for configuration failures.
var (
	// ErrMissingAuthority is returned when the client has no authority.
	ErrMissingAuthority = errors.New("hammock: missing authority")

	// ErrMissingCacheKeyFunc is returned when a cache is configured without a key function.
	ErrMissingCacheKeyFunc = errors.New("hammock: cache configured without a cache key function")

	// ErrInvalidCacheOptions is returned when a cache is configured with a non-positive duration.
	ErrInvalidCacheOptions = errors.New("hammock: cache duration must be positive")

	// ErrMissingSerializer is returned when a request carries an entity but the client has no serializer.
	ErrMissingSerializer = errors.New("hammock: entity set without a serializer")

	// ErrMissingDeserializer is returned by typed calls on a client without a deserializer.
	ErrMissingDeserializer = errors.New("hammock: typed request without a deserializer")

	// ErrInvalidCredentials is returned when credentials violate their invariants.
	ErrInvalidCredentials = errors.New("hammock: invalid credentials")
)

// ClientError is returned for every failure the client reports.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Timestamp  time.Time
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsConfigurationError reports whether err is a configuration failure.
func IsConfigurationError(err error) bool {
	return isType(err, ErrorTypeConfiguration)
}

// IsTransportError reports whether err is a network or transport failure.
func IsTransportError(err error) bool {
	return isType(err, ErrorTypeTransport)
}

// IsSerializationError reports whether err is an encode or decode failure.
func IsSerializationError(err error) bool {
	return isType(err, ErrorTypeSerialization)
}

func isType(err error, errorType string) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == errorType
	}
	return false
}

func newConfigurationError(message string, cause error) *ClientError {
	return &ClientError{
		Type:      ErrorTypeConfiguration,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
