package phoneauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/platform/httpclient"
)

func TestKindForCode(t *testing.T) {
	tests := map[int]Kind{
		17010: KindInvalidPhoneNumber,
		17042: KindQuotaExceeded,
		17020: KindNetwork,
		17044: KindInvalidVerificationCode,
		17051: KindVerificationCodeExpired,
		17999: KindUnknown,
		0:     KindUnknown,
	}
	for code, want := range tests {
		assert.Equal(t, want, KindForCode(code), code)
	}
}

func TestError(t *testing.T) {
	e := FromCode(17044, "", nil)
	assert.Equal(t, "invalidVerificationCode (code 17044)", e.Error())
	assert.False(t, e.IsRetryable())
	assert.True(t, FromCode(17020, "offline", nil).IsRetryable())
	assert.Equal(t, "unknownError", KindUnknown.String())
	assert.Equal(t, KindQuotaExceeded, KindOf(FromCode(17042, "", nil)))
}

func TestFakeProvider(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewFakeProvider(WithClock(func() time.Time { return now }), WithTTL(time.Minute))
	ctx := context.Background()

	id, err := p.SendVerificationCode(ctx, "+819012345678")
	require.NoError(t, err)

	_, err = p.VerifyCode(ctx, id, "000000")
	assert.Equal(t, KindInvalidVerificationCode, KindOf(err))

	uid, err := p.VerifyCode(ctx, id, "123456")
	require.NoError(t, err)
	assert.Contains(t, uid, "fake-")

	_, err = p.VerifyCode(ctx, id, "123456")
	assert.Equal(t, KindInvalidVerificationCode, KindOf(err), "sessions are single use")

	id2, err := p.SendVerificationCode(ctx, "+819012345678")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = p.VerifyCode(ctx, id2, "123456")
	assert.Equal(t, KindVerificationCodeExpired, KindOf(err))
}

func TestFakeProvider_StableUserID(t *testing.T) {
	p := NewFakeProvider()
	ctx := context.Background()
	verify := func() string {
		id, err := p.SendVerificationCode(ctx, "+819011112222")
		require.NoError(t, err)
		uid, err := p.VerifyCode(ctx, id, "123456")
		require.NoError(t, err)
		return uid
	}
	assert.Equal(t, verify(), verify())
}

func TestFakeProvider_Reject(t *testing.T) {
	p := NewFakeProvider()
	p.Reject["+819000000000"] = CodeQuotaExceeded

	_, err := p.SendVerificationCode(context.Background(), "+819000000000")
	assert.Equal(t, KindQuotaExceeded, KindOf(err))
}

func newToolkit(t *testing.T, h http.HandlerFunc) *IdentityToolkit {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := httpclient.New(srv.URL+"/v1",
		httpclient.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		httpclient.WithHeaders(map[string]string{"X-Goog-Api-Key": "k"}),
	)
	require.NoError(t, err)
	return NewIdentityToolkit(c)
}

func TestIdentityToolkit_Flow(t *testing.T) {
	p := newToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-Goog-Api-Key"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		switch r.URL.Path {
		case "/v1/accounts:sendVerificationCode":
			assert.Equal(t, "+819012345678", in["phoneNumber"])
			_, _ = io.WriteString(w, `{"sessionInfo":"sess-1"}`)
		case "/v1/accounts:signInWithPhoneNumber":
			assert.Equal(t, "sess-1", in["sessionInfo"])
			_, _ = io.WriteString(w, `{"localId":"user-1","idToken":"x"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	id, err := p.SendVerificationCode(context.Background(), "+819012345678")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)

	uid, err := p.VerifyCode(context.Background(), id, "123456")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestIdentityToolkit_ErrorMessages(t *testing.T) {
	tests := []struct {
		status int
		msg    string
		kind   Kind
		code   int
	}{
		{400, "INVALID_PHONE_NUMBER : Invalid format.", KindInvalidPhoneNumber, 17010},
		{400, "TOO_MANY_ATTEMPTS_TRY_LATER", KindQuotaExceeded, 17042},
		{400, "INVALID_CODE", KindInvalidVerificationCode, 17044},
		{400, "SESSION_EXPIRED", KindVerificationCodeExpired, 17051},
		{400, "SOMETHING_NEW", KindUnknown, 0},
		{500, "INTERNAL", KindUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			p := newToolkit(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": tt.status, "message": tt.msg}})
			})
			_, err := p.SendVerificationCode(context.Background(), "+819012345678")

			var pe *Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.code, pe.Code)
		})
	}
}

func TestIdentityToolkit_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c, err := httpclient.New(srv.URL, httpclient.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	_, err = NewIdentityToolkit(c).VerifyCode(context.Background(), "s", "123456")
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestProviders_AgreeOnAbandonedCalls(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	toolkit := newToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	providers := map[string]interface {
		SendVerificationCode(context.Context, string) (string, error)
	}{
		"fake":            NewFakeProvider(),
		"identitytoolkit": toolkit,
	}
	for name, p := range providers {
		t.Run(name, func(t *testing.T) {
			_, err := p.SendVerificationCode(canceled, "+819012345678")
			var pe *Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, KindUnknown, pe.Kind)
			assert.False(t, pe.IsRetryable())
		})
	}
}

func TestFakeProvider_DeadlineIsNetwork(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Unix(0, 0))
	defer cancel()

	_, err := NewFakeProvider().VerifyCode(ctx, "s", "123456")
	assert.Equal(t, KindNetwork, KindOf(err))
}
