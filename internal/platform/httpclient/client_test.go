package httpclient_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/platform/httpclient"
	"nimli/internal/shared"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func instantSleep(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func newClient(t *testing.T, srv *httptest.Server, opts ...httpclient.Option) *httpclient.Client {
	t.Helper()
	opts = append([]httpclient.Option{httpclient.WithLogger(quiet), httpclient.WithSleep(instantSleep)}, opts...)
	c, err := httpclient.New(srv.URL+"/v1", opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	_, err := httpclient.New("/just/a/path")
	assert.Error(t, err)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tags/popular", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[{"id":"tag_001"}]}`))
	}))
	defer srv.Close()

	var out struct {
		Data []struct{ ID string } `json:"data"`
	}
	err := newClient(t, srv).GetJSON(context.Background(), "/tags/popular", url.Values{"limit": {"5"}}, &out)
	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "tag_001", out.Data[0].ID)
}

func TestPostJSON_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, []string{"a", "b"}, in["tagIds"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newClient(t, srv).PostJSON(context.Background(), "tags/by-ids", map[string][]string{"tagIds": {"a", "b"}}, nil, true)
	require.NoError(t, err)
}

func TestGetJSON_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   shared.Kind
		msg    string
	}{
		{http.StatusNotFound, `{"error":{"message":"creator not found"}}`, shared.KindNotFound, "creator not found"},
		{http.StatusUnauthorized, `{"error":"token expired"}`, shared.KindUnauthorized, "token expired"},
		{http.StatusForbidden, `{"message":"forbidden"}`, shared.KindUnauthorized, "forbidden"},
		{http.StatusInternalServerError, `boom`, shared.KindServer, "boom"},
		{http.StatusTeapot, ``, shared.KindUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := newClient(t, srv).GetJSON(context.Background(), "x", nil, &struct{}{})
			require.Error(t, err)
			assert.Equal(t, tt.kind, shared.KindOf(err))

			var se *shared.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.msg, se.Message)
		})
	}
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := newClient(t, srv, httpclient.WithRetries(2, time.Millisecond)).GetJSON(context.Background(), "x", nil, &struct{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGetJSON_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := newClient(t, srv, httpclient.WithRetries(3, time.Millisecond)).GetJSON(context.Background(), "x", nil, nil)
	assert.True(t, shared.IsNotFound(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestPostJSON_NonIdempotentSentOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newClient(t, srv, httpclient.WithRetries(3, time.Millisecond)).
		PostJSON(context.Background(), "tag-applications", map[string]string{"a": "b"}, nil, false)
	assert.Equal(t, shared.KindServer, shared.KindOf(err))
	assert.True(t, shared.IsRetryable(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetJSON_HonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var waits []time.Duration
	sleep := func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		return instantSleep(d)
	}
	c := newClient(t, srv, httpclient.WithRetries(1, time.Millisecond), httpclient.WithSleep(sleep))
	require.NoError(t, c.GetJSON(context.Background(), "x", nil, &struct{}{}))
	assert.Equal(t, []time.Duration{2 * time.Second}, waits)
}

func TestGetJSON_DecodingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": 5}`))
	}))
	defer srv.Close()

	var out struct {
		Data []string `json:"data"`
	}
	err := newClient(t, srv).GetJSON(context.Background(), "x", nil, &out)
	assert.Equal(t, shared.KindDecoding, shared.KindOf(err))
	assert.False(t, shared.IsRetryable(err))
}

func TestGetJSON_TruncatedBodyIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data": [1, 2`))
	}))
	defer srv.Close()

	var out struct {
		Data []int `json:"data"`
	}
	err := newClient(t, srv, httpclient.WithRetries(2, time.Millisecond)).GetJSON(context.Background(), "x", nil, &out)
	assert.Equal(t, shared.KindDecoding, shared.KindOf(err))
	assert.False(t, shared.IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_OversizedBodyIsDecodingError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":"` + strings.Repeat("x", 500) + `"}`))
	}))
	defer srv.Close()

	var out struct {
		Data string `json:"data"`
	}
	c := newClient(t, srv, httpclient.WithMaxBodySize(100), httpclient.WithRetries(2, time.Millisecond))
	err := c.GetJSON(context.Background(), "x", nil, &out)
	assert.Equal(t, shared.KindDecoding, shared.KindOf(err))
	assert.False(t, shared.IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	err := newClient(t, srv).GetJSON(context.Background(), "x", nil, &struct{}{})
	assert.Equal(t, shared.KindDecoding, shared.KindOf(err))
}

func TestGetJSON_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := httpclient.New(srv.URL, httpclient.WithLogger(quiet))
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "x", nil, nil)
	assert.Equal(t, shared.KindNetwork, shared.KindOf(err))
	assert.True(t, shared.IsRetryable(err))
}

func TestGetJSON_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newClient(t, srv).GetJSON(ctx, "x", nil, nil)
	assert.Equal(t, shared.KindUnknown, shared.KindOf(err))
	assert.False(t, shared.IsRetryable(err))
}

func TestEncodingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	}))
	defer srv.Close()

	err := newClient(t, srv).PostJSON(context.Background(), "x", make(chan int), nil, true)
	assert.Equal(t, shared.KindEncoding, shared.KindOf(err))
}

func TestWithHeadersAndRedactor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var redacted atomic.Bool
	c := newClient(t, srv,
		httpclient.WithHeaders(map[string]string{"Authorization": "Bearer abc"}),
		httpclient.WithURLRedactor(func(u *url.URL) string { redacted.Store(true); return u.Path }),
		httpclient.WithLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)
	require.NoError(t, c.GetJSON(context.Background(), "x", nil, nil))
	assert.True(t, redacted.Load())
}

func TestWithErrorHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var seen []shared.Kind
	c := newClient(t, srv, httpclient.WithErrorHook(func(re *shared.RepositoryError) { seen = append(seen, re.Kind) }))
	_ = c.GetJSON(context.Background(), "x", nil, nil)
	assert.Equal(t, []shared.Kind{shared.KindUnauthorized}, seen)
}
