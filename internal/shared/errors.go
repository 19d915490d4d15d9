package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"time"
)

// Kind identifies a repository-level failure.
type Kind int

const (
	// KindUnknown represents an error with no structural match
	KindUnknown Kind = iota
	// KindNetwork represents transport failures and timeouts
	KindNetwork
	// KindDecoding represents a malformed payload
	KindDecoding
	// KindEncoding represents a request that could not be serialized
	KindEncoding
	// KindNotFound represents a missing resource
	KindNotFound
	// KindUnauthorized represents missing or rejected credentials
	KindUnauthorized
	// KindServer represents a server-side failure
	KindServer
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "networkError"
	case KindDecoding:
		return "decodingError"
	case KindEncoding:
		return "encodingError"
	case KindNotFound:
		return "notFound"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "serverError"
	default:
		return "unknown"
	}
}

// Code returns the stable numeric code of the kind.
func (k Kind) Code() int {
	switch k {
	case KindNetwork:
		return 1001
	case KindDecoding:
		return 1002
	case KindEncoding:
		return 1003
	case KindNotFound:
		return 1004
	case KindUnauthorized:
		return 1005
	case KindServer:
		return 1006
	default:
		return 1099
	}
}

// Retryable reports whether an operation failing with this kind may succeed
// when attempted again unchanged.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindServer
}

func (k Kind) defaultMessage() string {
	switch k {
	case KindNetwork:
		return "network connection failed"
	case KindDecoding:
		return "response could not be decoded"
	case KindEncoding:
		return "request could not be encoded"
	case KindNotFound:
		return "resource not found"
	case KindUnauthorized:
		return "authentication required"
	case KindServer:
		return "server error"
	default:
		return "unknown error"
	}
}

// RepositoryError is the only error a repository adapter returns.
type RepositoryError struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.defaultMessage()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error { return e.Cause }

// Is matches any *RepositoryError of the same kind.
func (e *RepositoryError) Is(target error) bool {
	t, ok := target.(*RepositoryError)
	return ok && t.Kind == e.Kind
}

// Code returns the numeric code of the error kind.
func (e *RepositoryError) Code() int { return e.Kind.Code() }

// IsRetryable reports whether the UI may offer a retry.
func (e *RepositoryError) IsRetryable() bool { return e.Kind.Retryable() }

// Sentinels for use with errors.Is.
var (
	ErrNetwork      = &RepositoryError{Kind: KindNetwork}
	ErrDecoding     = &RepositoryError{Kind: KindDecoding}
	ErrEncoding     = &RepositoryError{Kind: KindEncoding}
	ErrNotFound     = &RepositoryError{Kind: KindNotFound}
	ErrUnauthorized = &RepositoryError{Kind: KindUnauthorized}
	ErrServer       = &RepositoryError{Kind: KindServer}
	ErrUnknown      = &RepositoryError{Kind: KindUnknown}
)

// NetworkError creates a networkError wrapping cause.
func NetworkError(cause error) *RepositoryError {
	return &RepositoryError{Kind: KindNetwork, Cause: cause}
}

// DecodingError creates a decodingError wrapping cause.
func DecodingError(cause error) *RepositoryError {
	return &RepositoryError{Kind: KindDecoding, Cause: cause}
}

// EncodingError creates an encodingError wrapping cause.
func EncodingError(cause error) *RepositoryError {
	return &RepositoryError{Kind: KindEncoding, Cause: cause}
}

// NotFound creates a notFound error.
func NotFound(msg string) *RepositoryError {
	return &RepositoryError{Kind: KindNotFound, Message: msg}
}

// NotFoundf creates a notFound error with formatted message.
func NotFoundf(format string, args ...any) *RepositoryError {
	return &RepositoryError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *RepositoryError {
	return &RepositoryError{Kind: KindUnauthorized, Message: msg}
}

// ServerError creates a serverError carrying the server's message.
func ServerError(msg string) *RepositoryError {
	return &RepositoryError{Kind: KindServer, Message: msg}
}

// Unknown creates an unknown error wrapping cause.
func Unknown(cause error) *RepositoryError {
	return &RepositoryError{Kind: KindUnknown, Cause: cause}
}

// StatusError describes a non-2xx response from an HTTP-like transport.
// RetryAfter carries a server supplied backoff hint, zero when absent.
type StatusError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// classifiers defines the deterministic order for error classification.
// Earlier entries win when an error chain matches several of them.
var classifiers = []struct {
	name  string
	match func(error) (*RepositoryError, bool)
}{
	{"repository", matchRepository},
	{"canceled", matchCanceled},
	{"status", matchStatus},
	{"encoding", matchEncoding},
	{"decoding", matchDecoding},
	{"network", matchNetwork},
}

// MapError returns the single most specific RepositoryError for err.
// It never panics; errors without a structural match become KindUnknown.
// A nil err maps to nil.
func MapError(err error) *RepositoryError {
	if err == nil {
		return nil
	}
	for _, c := range classifiers {
		if re, ok := c.match(err); ok {
			return re
		}
	}
	return Unknown(err)
}

// KindOf returns the repository kind err maps to. KindOf(nil) is KindUnknown.
func KindOf(err error) Kind {
	if re := MapError(err); re != nil {
		return re.Kind
	}
	return KindUnknown
}

// HasKind reports whether err maps to kind.
func HasKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether err maps to a retryable kind.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err).Retryable()
}

// IsNotFound reports whether err maps to KindNotFound.
func IsNotFound(err error) bool { return HasKind(err, KindNotFound) }

// IsUnauthorized reports whether err maps to KindUnauthorized.
func IsUnauthorized(err error) bool { return HasKind(err, KindUnauthorized) }

func matchRepository(err error) (*RepositoryError, bool) {
	var re *RepositoryError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Cancellation is not retryable: the caller abandoned the operation.
func matchCanceled(err error) (*RepositoryError, bool) {
	if errors.Is(err, context.Canceled) {
		return Unknown(err), true
	}
	return nil, false
}

func matchStatus(err error) (*RepositoryError, bool) {
	var se *StatusError
	if !errors.As(err, &se) {
		return nil, false
	}
	switch {
	case se.StatusCode == 404:
		return &RepositoryError{Kind: KindNotFound, Message: se.Message, Cause: err}, true
	case se.StatusCode == 401 || se.StatusCode == 403:
		return &RepositoryError{Kind: KindUnauthorized, Message: se.Message, Cause: err}, true
	case se.StatusCode >= 500:
		msg := se.Message
		if msg == "" {
			msg = fmt.Sprintf("server responded with status %d", se.StatusCode)
		}
		return &RepositoryError{Kind: KindServer, Message: msg, Cause: err}, true
	case se.StatusCode == 408 || se.StatusCode == 429:
		return NetworkError(err), true
	default:
		return Unknown(err), true
	}
}

func matchEncoding(err error) (*RepositoryError, bool) {
	var (
		ute *json.UnsupportedTypeError
		uve *json.UnsupportedValueError
		me  *json.MarshalerError
	)
	if errors.As(err, &ute) || errors.As(err, &uve) || errors.As(err, &me) {
		return EncodingError(err), true
	}
	return nil, false
}

func matchDecoding(err error) (*RepositoryError, bool) {
	var (
		se  *json.SyntaxError
		te  *json.UnmarshalTypeError
		iue *json.InvalidUnmarshalError
	)
	if errors.As(err, &se) || errors.As(err, &te) || errors.As(err, &iue) {
		return DecodingError(err), true
	}
	return nil, false
}

func matchNetwork(err error) (*RepositoryError, bool) {
	if IsTimeout(err) || isTransportError(err) {
		return NetworkError(err), true
	}
	return nil, false
}

// IsTimeout reports whether the error indicates a timeout.
// It checks for context.DeadlineExceeded and net.Error timeouts.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isTransportError matches connection level failures. A bare EOF is a short
// payload; one raised by the transport arrives inside a *url.Error.
func isTransportError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var (
		ue  *url.Error
		oe  *net.OpError
		dns *net.DNSError
		se  *os.SyscallError
	)
	if errors.As(err, &oe) || errors.As(err, &dns) || errors.As(err, &ue) {
		return true
	}
	if errors.As(err, &se) {
		switch se.Err {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED,
			syscall.ENETDOWN, syscall.ENETUNREACH, syscall.EPIPE,
			syscall.EHOSTUNREACH, syscall.ETIMEDOUT:
			return true
		}
	}
	return false
}

// Wrap prefixes err with the operation that failed. A nil err stays nil
// and an empty op returns err unchanged.
func Wrap(err error, op string) error {
	if err == nil || op == "" {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Wrapf is Wrap with a formatted op.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}
