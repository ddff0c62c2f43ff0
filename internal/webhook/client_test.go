package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendAddsSigningHeaders(t *testing.T) {
	var (
		gotSig  string
		gotTS   string
		gotEvt  string
		gotBody []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(HeaderSignature)
		gotTS = r.Header.Get(HeaderTimestamp)
		gotEvt = r.Header.Get(HeaderEvent)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{
		SigningSecret:  "test-secret",
		Timeout:        2 * time.Second,
		MaxAttempts:    1,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	})

	err := client.Send(context.Background(), srv.URL, EventConversionCompleted, map[string]any{"job_id": "job-1"})
	if err != nil {
		t.Fatalf("send returned error: %v", err)
	}

	if gotTS == "" {
		t.Fatal("expected timestamp header")
	}
	if gotEvt != EventConversionCompleted {
		t.Fatalf("expected event header %s, got %q", EventConversionCompleted, gotEvt)
	}
	if !Verify("test-secret", gotTS, gotSig, gotBody) {
		t.Fatalf("signature %q did not verify", gotSig)
	}
	if Verify("other-secret", gotTS, gotSig, gotBody) {
		t.Fatal("expected signature to fail with a different secret")
	}
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})

	if err := client.Send(context.Background(), srv.URL, EventConversionFailed, map[string]string{}); err != nil {
		t.Fatalf("send returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestSendGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	})

	if err := client.Send(context.Background(), srv.URL, EventConversionFailed, nil); err == nil {
		t.Fatal("expected delivery error")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestSendEmptyEndpointIsNoop(t *testing.T) {
	client := NewClient(Config{})
	if err := client.Send(context.Background(), "  ", EventConversionCompleted, nil); err != nil {
		t.Fatalf("expected no error for empty endpoint, got %v", err)
	}
}
