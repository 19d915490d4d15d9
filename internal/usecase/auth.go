package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nimli/internal/repository"
	"nimli/internal/validation"
)

// DefaultResendCooldown is the wait between two codes sent to one number.
const DefaultResendCooldown = 60 * time.Second

// Cooldown is a countdown per key. A key is blocked from the moment it is
// acquired until the period elapses or it is released.
type Cooldown struct {
	period time.Duration
	now    func() time.Time

	mu    sync.Mutex
	until map[string]time.Time
}

// NewCooldown creates a cooldown using the wall clock.
func NewCooldown(period time.Duration) *Cooldown {
	return NewCooldownWithClock(period, time.Now)
}

func NewCooldownWithClock(period time.Duration, now func() time.Time) *Cooldown {
	return &Cooldown{period: period, now: now, until: make(map[string]time.Time)}
}

// Remaining is how long key stays blocked, zero when it is free.
func (c *Cooldown) Remaining(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining(key, c.now())
}

func (c *Cooldown) remaining(key string, now time.Time) time.Duration {
	u, ok := c.until[key]
	if !ok {
		return 0
	}
	if d := u.Sub(now); d > 0 {
		return d
	}
	delete(c.until, key)
	return 0
}

// Acquire starts the countdown for key if it is free. Otherwise it returns
// the time left and false.
func (c *Cooldown) Acquire(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if d := c.remaining(key, now); d > 0 {
		return d, false
	}
	c.until[key] = now.Add(c.period)
	return 0, true
}

// Release frees key early.
func (c *Cooldown) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.until, key)
}

// Period returns the configured countdown length.
func (c *Cooldown) Period() time.Duration { return c.period }

// AuthService runs phone number sign-in.
type AuthService struct {
	provider repository.PhoneAuthProvider
	cooldown *Cooldown
	base
}

// NewAuthService creates a phone auth service.
func NewAuthService(provider repository.PhoneAuthProvider, cooldown *Cooldown, log *slog.Logger, obs Observer) *AuthService {
	return &AuthService{provider: provider, cooldown: cooldown, base: newBase(log, obs, "auth")}
}

// VerificationSession is returned after a code was sent.
type VerificationSession struct {
	VerificationID string        `json:"verificationId"`
	PhoneNumber    string        `json:"phoneNumber"`
	ResendAfter    time.Duration `json:"-"`
}

// SendPhoneVerification sends a code to phone, which may be national or
// E.164. A second request for the same number inside the cooldown fails
// with KindResendCooldown.
func (s *AuthService) SendPhoneVerification(ctx context.Context, phone string) (VerificationSession, error) {
	return call(ctx, s.base, OpSendPhoneVerification, func() (VerificationSession, error) {
		if err := validation.PhoneNumber(phone); err != nil {
			return VerificationSession{}, err
		}
		e164 := validation.FormatToE164(phone)
		if left, ok := s.cooldown.Acquire(e164); !ok {
			return VerificationSession{}, &Error{
				Kind:    KindResendCooldown,
				Message: fmt.Sprintf("retry in %ds", int(left.Round(time.Second)/time.Second)),
			}
		}
		id, err := s.provider.SendVerificationCode(ctx, e164)
		if err != nil {
			s.cooldown.Release(e164)
			return VerificationSession{}, phoneFailure(err)
		}
		return VerificationSession{VerificationID: id, PhoneNumber: e164, ResendAfter: s.cooldown.Period()}, nil
	})
}

// VerifyPhoneCode exchanges a session id and code for the user id.
func (s *AuthService) VerifyPhoneCode(ctx context.Context, verificationID, code string) (string, error) {
	return call(ctx, s.base, OpVerifyPhoneCode, func() (string, error) {
		if err := validation.VerificationCode(verificationID, code); err != nil {
			return "", err
		}
		uid, err := s.provider.VerifyCode(ctx, verificationID, code)
		if err != nil {
			return "", phoneFailure(err)
		}
		return uid, nil
	})
}
