// Package testutil provides common test helpers for MoodPipe's HTTP and
// storage tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// DoJSON sends a request to h and decodes the API envelope when the reply is
// JSON. A string body is sent verbatim; anything else is JSON encoded.
func DoJSON(t *testing.T, h http.Handler, method, url string, body interface{}) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		buf.Write(MustMarshalJSON(t, b))
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, url, &buf))

	var resp models.APIResponse
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		MustUnmarshalJSON(t, rr.Body.Bytes(), &resp)
	}
	return rr, resp
}

// DecodeResult converts the untyped Result of an API envelope into target.
func DecodeResult(t *testing.T, resp models.APIResponse, target interface{}) {
	t.Helper()
	MustUnmarshalJSON(t, MustMarshalJSON(t, resp.Result), target)
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected int, rr *httptest.ResponseRecorder, context string) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("%s: expected status %d, got %d (body %q)", context, expected, rr.Code, rr.Body.String())
	}
}

// AssertEntryReasons checks the reasons of diagnostic entries in order.
func AssertEntryReasons(t *testing.T, entries []models.UserStateEntry, want ...string) {
	t.Helper()
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i, e := range entries {
		if e.Reason != want[i] {
			t.Errorf("entry %d: reason %q, want %q", i, e.Reason, want[i])
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
