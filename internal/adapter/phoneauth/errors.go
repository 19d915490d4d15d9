// Package phoneauth adapts the external phone verification service and maps
// its numeric error codes onto a closed set of kinds.
package phoneauth

import (
	"errors"
	"fmt"
)

// Kind is a phone authentication failure class.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidPhoneNumber
	KindQuotaExceeded
	KindNetwork
	KindInvalidVerificationCode
	KindVerificationCodeExpired
)

// Provider error codes.
const (
	CodeInvalidPhoneNumber      = 17010
	CodeQuotaExceeded           = 17042
	CodeNetwork                 = 17020
	CodeInvalidVerificationCode = 17044
	CodeVerificationCodeExpired = 17051
)

var codeKinds = map[int]Kind{
	CodeInvalidPhoneNumber:      KindInvalidPhoneNumber,
	CodeQuotaExceeded:           KindQuotaExceeded,
	CodeNetwork:                 KindNetwork,
	CodeInvalidVerificationCode: KindInvalidVerificationCode,
	CodeVerificationCodeExpired: KindVerificationCodeExpired,
}

// KindForCode looks up a provider code; unmapped codes are KindUnknown.
func KindForCode(code int) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindInvalidPhoneNumber:
		return "invalidPhoneNumber"
	case KindQuotaExceeded:
		return "quotaExceeded"
	case KindNetwork:
		return "networkError"
	case KindInvalidVerificationCode:
		return "invalidVerificationCode"
	case KindVerificationCodeExpired:
		return "verificationCodeExpired"
	default:
		return "unknownError"
	}
}

// Error is a provider failure. Code is the provider's numeric code, zero
// when the failure did not come with one.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

// FromCode builds an Error from a provider code.
func FromCode(code int, msg string, cause error) *Error {
	return &Error{Kind: KindForCode(code), Code: code, Message: msg, Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable is true only for transport failures.
func (e *Error) IsRetryable() bool { return e.Kind == KindNetwork }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
