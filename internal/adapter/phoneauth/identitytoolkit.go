package phoneauth

import (
	"context"
	"errors"
	"strings"

	"nimli/internal/shared"
)

// Transport is the JSON client used to reach the identity service.
type Transport interface {
	PostJSON(ctx context.Context, path string, in, out any, idempotent bool) error
}

// IdentityToolkit talks to an identitytoolkit-compatible REST service.
// The API key travels in the transport's default headers.
type IdentityToolkit struct {
	t Transport
}

// NewIdentityToolkit creates a REST provider.
func NewIdentityToolkit(t Transport) *IdentityToolkit {
	return &IdentityToolkit{t: t}
}

// Service error message prefixes mapped to provider codes.
var messageCodes = map[string]int{
	"INVALID_PHONE_NUMBER":        CodeInvalidPhoneNumber,
	"MISSING_PHONE_NUMBER":        CodeInvalidPhoneNumber,
	"QUOTA_EXCEEDED":              CodeQuotaExceeded,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeQuotaExceeded,
	"INVALID_CODE":                CodeInvalidVerificationCode,
	"MISSING_CODE":                CodeInvalidVerificationCode,
	"INVALID_SESSION_INFO":        CodeInvalidVerificationCode,
	"SESSION_EXPIRED":             CodeVerificationCodeExpired,
	"CODE_EXPIRED":                CodeVerificationCodeExpired,
}

func (p *IdentityToolkit) SendVerificationCode(ctx context.Context, phone string) (string, error) {
	in := map[string]string{"phoneNumber": phone}
	var out struct {
		SessionInfo string `json:"sessionInfo"`
	}
	if err := p.t.PostJSON(ctx, "./accounts:sendVerificationCode", in, &out, false); err != nil {
		return "", translate(err)
	}
	if out.SessionInfo == "" {
		return "", FromCode(0, "empty session info", nil)
	}
	return out.SessionInfo, nil
}

func (p *IdentityToolkit) VerifyCode(ctx context.Context, verificationID, code string) (string, error) {
	in := map[string]string{"sessionInfo": verificationID, "code": code}
	var out struct {
		LocalID string `json:"localId"`
	}
	if err := p.t.PostJSON(ctx, "./accounts:signInWithPhoneNumber", in, &out, false); err != nil {
		return "", translate(err)
	}
	if out.LocalID == "" {
		return "", FromCode(0, "empty user id", nil)
	}
	return out.LocalID, nil
}

// translate maps a transport failure onto a provider code.
func translate(err error) *Error {
	if shared.IsRetryable(err) && !shared.HasKind(err, shared.KindServer) {
		return FromCode(CodeNetwork, "network error", err)
	}
	var se *shared.StatusError
	if errors.As(err, &se) {
		key, _, _ := strings.Cut(se.Message, " ")
		if code, ok := messageCodes[key]; ok {
			return FromCode(code, se.Message, err)
		}
	}
	return FromCode(0, "", err)
}
