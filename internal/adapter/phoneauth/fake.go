package phoneauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FakeProvider verifies any number with a fixed code. It is meant for local
// development and tests.
type FakeProvider struct {
	mu       sync.Mutex
	code     string
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]fakeSession
	// Reject maps E.164 numbers to provider codes returned on send.
	Reject map[string]int
}

type fakeSession struct {
	phone   string
	expires time.Time
}

// FakeOption configures FakeProvider.
type FakeOption func(*FakeProvider)

// WithCode sets the accepted verification code.
func WithCode(code string) FakeOption { return func(p *FakeProvider) { p.code = code } }

// WithTTL sets how long a verification session lives.
func WithTTL(d time.Duration) FakeOption { return func(p *FakeProvider) { p.ttl = d } }

// WithClock injects the time source.
func WithClock(now func() time.Time) FakeOption { return func(p *FakeProvider) { p.now = now } }

// NewFakeProvider creates a provider accepting code 123456 for five minutes.
func NewFakeProvider(opts ...FakeOption) *FakeProvider {
	p := &FakeProvider{
		code:     "123456",
		ttl:      5 * time.Minute,
		now:      time.Now,
		sessions: make(map[string]fakeSession),
		Reject:   make(map[string]int),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *FakeProvider) SendVerificationCode(ctx context.Context, phone string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", translate(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if code, ok := p.Reject[phone]; ok {
		return "", FromCode(code, "rejected by provider", nil)
	}
	id := uuid.NewString()
	p.sessions[id] = fakeSession{phone: phone, expires: p.now().Add(p.ttl)}
	return id, nil
}

// VerifyCode returns a stable user id derived from the phone number.
func (p *FakeProvider) VerifyCode(ctx context.Context, verificationID, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", translate(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[verificationID]
	if !ok {
		return "", FromCode(CodeInvalidVerificationCode, "unknown verification session", nil)
	}
	if p.now().After(s.expires) {
		delete(p.sessions, verificationID)
		return "", FromCode(CodeVerificationCodeExpired, "verification code expired", nil)
	}
	if code != p.code {
		return "", FromCode(CodeInvalidVerificationCode, "code mismatch", nil)
	}
	delete(p.sessions, verificationID)
	sum := sha256.Sum256([]byte(s.phone))
	return "fake-" + hex.EncodeToString(sum[:8]), nil
}
