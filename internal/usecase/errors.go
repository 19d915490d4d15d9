package usecase

import (
	"errors"
	"fmt"

	"nimli/internal/adapter/phoneauth"
	"nimli/internal/shared"
	"nimli/internal/validation"
)

// Kind identifies a use-case level failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidationFailed
	KindRepository
	KindBusinessLogic
	KindUnauthorized
	KindNotFound

	KindCreatorNotFound

	KindDuplicateApplication
	KindDuplicateRequest

	KindInvalidPhoneNumber
	KindInvalidVerificationCode
	KindVerificationCodeExpired
	KindQuotaExceeded
	KindNetwork
	KindResendCooldown
)

var kindInfo = map[Kind]struct {
	name string
	code int
}{
	KindUnknown:                 {"unknown", 2099},
	KindValidationFailed:        {"validationFailed", 2001},
	KindRepository:              {"repositoryError", 2002},
	KindBusinessLogic:           {"businessLogicError", 2003},
	KindUnauthorized:            {"unauthorized", 2004},
	KindNotFound:                {"notFound", 2005},
	KindCreatorNotFound:         {"creatorNotFound", 2101},
	KindDuplicateApplication:    {"duplicateApplication", 2201},
	KindDuplicateRequest:        {"duplicateRequest", 2202},
	KindInvalidPhoneNumber:      {"invalidPhoneNumber", 2301},
	KindInvalidVerificationCode: {"invalidVerificationCode", 2302},
	KindVerificationCodeExpired: {"verificationCodeExpired", 2303},
	KindQuotaExceeded:           {"quotaExceeded", 2304},
	KindNetwork:                 {"networkError", 2305},
	KindResendCooldown:          {"resendCooldown", 2306},
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindInfo))
	for k := KindUnknown; k <= KindResendCooldown; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if i, ok := kindInfo[k]; ok {
		return i.name
	}
	return kindInfo[KindUnknown].name
}

// Code returns the stable numeric code of the kind.
func (k Kind) Code() int {
	if i, ok := kindInfo[k]; ok {
		return i.code
	}
	return kindInfo[KindUnknown].code
}

// Error is the only error a use-case returns.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Code returns the numeric code of the error kind.
func (e *Error) Code() int { return e.Kind.Code() }

// IsRetryable reports whether the caller may offer a retry. Only transport
// and server failures qualify, whichever layer detected them.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindRepository:
		return shared.IsRetryable(e.Cause)
	}
	return false
}

// Sentinels for use with errors.Is.
var (
	ErrValidationFailed     = &Error{Kind: KindValidationFailed}
	ErrRepository           = &Error{Kind: KindRepository}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrCreatorNotFound      = &Error{Kind: KindCreatorNotFound}
	ErrDuplicateApplication = &Error{Kind: KindDuplicateApplication}
	ErrDuplicateRequest     = &Error{Kind: KindDuplicateRequest}
	ErrResendCooldown       = &Error{Kind: KindResendCooldown}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err carries a retryable use-case error.
func IsRetryable(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.IsRetryable()
}

// invalid translates a validator failure, keeping the most specific kind the
// taxonomy has for its reason.
func invalid(err error) *Error {
	kind := KindValidationFailed
	switch validation.ReasonOf(err) {
	case validation.ReasonInvalidPhoneNumber:
		kind = KindInvalidPhoneNumber
	case validation.ReasonInvalidVerificationCode:
		kind = KindInvalidVerificationCode
	}
	return &Error{Kind: kind, Message: err.Error(), Cause: err}
}

var phoneKinds = map[phoneauth.Kind]Kind{
	phoneauth.KindInvalidPhoneNumber:      KindInvalidPhoneNumber,
	phoneauth.KindQuotaExceeded:           KindQuotaExceeded,
	phoneauth.KindNetwork:                 KindNetwork,
	phoneauth.KindInvalidVerificationCode: KindInvalidVerificationCode,
	phoneauth.KindVerificationCodeExpired: KindVerificationCodeExpired,
	phoneauth.KindUnknown:                 KindUnknown,
}

// phoneFailure translates a provider failure. Errors that did not come from
// the provider adapter are unknown.
func phoneFailure(err error) *Error {
	var pe *phoneauth.Error
	if !errors.As(err, &pe) {
		return &Error{Kind: KindUnknown, Cause: err}
	}
	kind, ok := phoneKinds[pe.Kind]
	if !ok {
		kind = KindUnknown
	}
	return &Error{Kind: kind, Message: pe.Kind.String(), Cause: err}
}
