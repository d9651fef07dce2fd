package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/metrics"
	"github.com/proximodev/releasepass/internal/qa"
)

func TestClient_Fetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Robots-Tag", "noindex")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><head><title>ok</title></head><body></body></html>")
	}))
	defer srv.Close()

	c := New(Config{UserAgent: "releasepass-test", Timeout: 5 * time.Second})
	page, err := c.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Equal(t, 200, page.StatusCode)
	require.Equal(t, "noindex", page.Headers.Get("X-Robots-Tag"))
	require.Contains(t, string(page.Body), "<title>ok</title>")
	require.Equal(t, srv.URL+"/", page.FinalURL)
	require.Equal(t, "http", page.Scheme())
}

func TestClient_FetchFollowsRedirects(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>landed</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second})
	page, err := c.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/final", page.FinalURL)
	require.Contains(t, string(page.Body), "landed")
}

func TestClient_FetchStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second})
	_, err := c.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)

	var statusErr *qa.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 404, statusErr.Code)
}

func TestClient_FetchRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>counted</body></html>")
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second})
	_, err := c.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `qa_fetches_total{result="success",site="127.0.0.1"}`)
	require.Contains(t, body, `qa_fetches_total{result="error",site="127.0.0.1"}`)
}

func TestRetrying_RecoversFromServerErrors(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "<html><body>recovered</body></html>")
	}))
	defer srv.Close()

	inner := New(Config{Timeout: 5 * time.Second})
	policy := qa.NewExponentialRetryPolicy(3, time.Millisecond, 5*time.Millisecond)
	r := NewRetrying(inner, policy, nil)

	page, err := r.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Contains(t, string(page.Body), "recovered")
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRetrying_ClientErrorIsTerminal(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	inner := New(Config{Timeout: 5 * time.Second})
	policy := qa.NewExponentialRetryPolicy(5, time.Millisecond, 5*time.Millisecond)
	r := NewRetrying(inner, policy, nil)

	_, err := r.Fetch(context.Background(), srv.URL+"/")
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	var statusErr *qa.StatusError
	require.True(t, errors.As(err, &statusErr))
}
