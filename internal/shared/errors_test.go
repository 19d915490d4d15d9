package shared_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/shared"
)

func decodeErr() error {
	var v struct{ A int }
	return json.Unmarshal([]byte(`{"A":"x"}`), &v)
}

func syntaxErr() error {
	var v map[string]any
	return json.Unmarshal([]byte(`{`), &v)
}

func encodeErr() error {
	_, err := json.Marshal(make(chan int))
	return err
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      shared.Kind
		retryable bool
	}{
		{"plain error", errors.New("boom"), shared.KindUnknown, false},
		{"context canceled", context.Canceled, shared.KindUnknown, false},
		{"deadline exceeded", context.DeadlineExceeded, shared.KindNetwork, true},
		{"wrapped deadline", fmt.Errorf("get creators: %w", context.DeadlineExceeded), shared.KindNetwork, true},
		{"url error", &url.Error{Op: "Get", URL: "http://api", Err: errors.New("connection refused")}, shared.KindNetwork, true},
		{"dns error", &net.DNSError{Err: "no such host", Name: "api"}, shared.KindNetwork, true},
		{"closed connection", fmt.Errorf("read body: %w", errors.Join(errors.New("short"), net.ErrClosed)), shared.KindNetwork, true},
		{"short payload", fmt.Errorf("decode: %w", io.ErrUnexpectedEOF), shared.KindUnknown, false},
		{"bare eof", io.EOF, shared.KindUnknown, false},
		{"eof from transport", &url.Error{Op: "Get", URL: "http://api", Err: io.EOF}, shared.KindNetwork, true},
		{"syntax error", syntaxErr(), shared.KindDecoding, false},
		{"type error", decodeErr(), shared.KindDecoding, false},
		{"marshal error", encodeErr(), shared.KindEncoding, false},
		{"status 404", &shared.StatusError{StatusCode: 404}, shared.KindNotFound, false},
		{"status 401", &shared.StatusError{StatusCode: 401}, shared.KindUnauthorized, false},
		{"status 403", &shared.StatusError{StatusCode: 403}, shared.KindUnauthorized, false},
		{"status 500", &shared.StatusError{StatusCode: 500, Message: "boom"}, shared.KindServer, true},
		{"status 503", &shared.StatusError{StatusCode: 503}, shared.KindServer, true},
		{"status 429", &shared.StatusError{StatusCode: 429}, shared.KindNetwork, true},
		{"status 400", &shared.StatusError{StatusCode: 400}, shared.KindUnknown, false},
		{"repository error passes through", shared.NotFound("creator not found"), shared.KindNotFound, false},
		{"wrapped repository error", shared.Wrap(shared.ServerError("down"), "popular"), shared.KindServer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shared.MapError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.retryable, got.IsRetryable())
			assert.Equal(t, tt.kind.Code(), got.Code())
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, shared.MapError(nil))
	assert.Equal(t, shared.KindUnknown, shared.KindOf(nil))
	assert.False(t, shared.IsRetryable(nil))
}

func TestMapError_Deterministic(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", context.DeadlineExceeded)
	first := shared.MapError(err)
	for range 10 {
		assert.Equal(t, first.Kind, shared.MapError(err).Kind)
	}
}

func TestMapError_PreservesRepositoryError(t *testing.T) {
	original := shared.NotFound("tag not found")
	wrapped := shared.Wrap(original, "get tag")

	got := shared.MapError(wrapped)
	assert.Same(t, original, got)
}

func TestMapError_RepositoryErrorWinsOverJoin(t *testing.T) {
	err := errors.Join(context.DeadlineExceeded, shared.Unauthorized("expired"))
	assert.Equal(t, shared.KindUnauthorized, shared.KindOf(err))
}

func TestMapError_KeepsCause(t *testing.T) {
	cause := &shared.StatusError{StatusCode: 502, Message: "bad gateway"}
	got := shared.MapError(cause)

	assert.Equal(t, "bad gateway", got.Message)
	var se *shared.StatusError
	require.True(t, errors.As(got, &se))
	assert.Equal(t, 502, se.StatusCode)
}

func TestKind_Codes(t *testing.T) {
	kinds := []shared.Kind{
		shared.KindUnknown, shared.KindNetwork, shared.KindDecoding, shared.KindEncoding,
		shared.KindNotFound, shared.KindUnauthorized, shared.KindServer,
	}
	seen := make(map[int]shared.Kind)
	for _, k := range kinds {
		prev, dup := seen[k.Code()]
		assert.False(t, dup, "code %d shared by %s and %s", k.Code(), prev, k)
		seen[k.Code()] = k
	}
}

func TestKind_Retryable(t *testing.T) {
	retryable := map[shared.Kind]bool{
		shared.KindNetwork: true,
		shared.KindServer:  true,
	}
	for _, k := range []shared.Kind{
		shared.KindUnknown, shared.KindNetwork, shared.KindDecoding, shared.KindEncoding,
		shared.KindNotFound, shared.KindUnauthorized, shared.KindServer,
	} {
		assert.Equal(t, retryable[k], k.Retryable(), k.String())
	}
}

func TestRepositoryError_Is(t *testing.T) {
	err := shared.Wrap(shared.NotFound("creator c001 not found"), "detail")

	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.False(t, errors.Is(err, shared.ErrServer))
}

func TestRepositoryError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *shared.RepositoryError
		want string
	}{
		{"message only", shared.NotFound("creator not found"), "creator not found"},
		{"default message", &shared.RepositoryError{Kind: shared.KindServer}, "server error"},
		{"with cause", shared.NetworkError(errors.New("dial tcp")), "network connection failed: dial tcp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, shared.Wrap(nil, "ctx"))

	orig := errors.New("original")
	assert.Same(t, orig, shared.Wrap(orig, ""))

	got := shared.Wrapf(orig, "load tag %s", "tag_001")
	assert.Equal(t, "load tag tag_001: original", got.Error())
	assert.True(t, errors.Is(got, orig))
}
