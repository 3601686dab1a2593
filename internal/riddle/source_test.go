package riddle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSource(t *testing.T, handler http.HandlerFunc, opts ...Option) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPSource(append([]Option{WithURL(srv.URL), WithAPIKey("test-key")}, opts...)...)
}

func TestFetchRiddle_Success(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"title":"Towel","question":"What gets wetter the more it dries?","answer":"A towel"}]`))
	})

	r, err := src.FetchRiddle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Question != "What gets wetter the more it dries?" || r.Answer != "A towel" {
		t.Errorf("unexpected riddle: %+v", r)
	}
}

func TestFetchRiddle_FailureClasses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `oops`, ErrUnreachable},
		{"not json", http.StatusOK, `<html>`, ErrMalformed},
		{"empty body", http.StatusOK, ``, ErrMalformed},
		{"empty list", http.StatusOK, `[]`, ErrMalformed},
		{"object not list", http.StatusOK, `{"question":"q","answer":"a"}`, ErrMalformed},
		{"missing answer", http.StatusOK, `[{"question":"q"}]`, ErrIncomplete},
		{"blank question", http.StatusOK, `[{"question":"  ","answer":"a"}]`, ErrIncomplete},
		{"list of strings", http.StatusOK, `["q"]`, ErrIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := src.FetchRiddle(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFetchRiddle_MissingAPIKey(t *testing.T) {
	src := NewHTTPSource(WithURL("http://127.0.0.1:0"))
	if _, err := src.FetchRiddle(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFetchRiddle_Timeout(t *testing.T) {
	release := make(chan struct{})
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := src.FetchRiddle(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable on timeout, got %v", err)
	}
}
