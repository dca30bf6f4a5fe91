package netx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPostJSON(t *testing.T) {
	payload := map[string]string{"to": "whatsapp:+15551234567", "body": "hi"}

	t.Run("success 200 OK", func(t *testing.T) {
		var gotBody map[string]string
		var gotCT, gotAuth, gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotAuth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			_ = json.Unmarshal(body, &gotBody)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := PostJSON(context.Background(), ts.Client(), ts.URL+"/messages", "tok", payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodPost {
			t.Fatalf("method = %q, want POST", gotMethod)
		}
		if gotCT != "application/json" {
			t.Fatalf("Content-Type = %q, want application/json", gotCT)
		}
		if gotAuth != "Bearer tok" {
			t.Fatalf("Authorization = %q, want Bearer tok", gotAuth)
		}
		if gotBody["to"] != payload["to"] || gotBody["body"] != payload["body"] {
			t.Fatalf("body = %v, want %v", gotBody, payload)
		}
	})

	t.Run("201 without bearer", func(t *testing.T) {
		var gotAuth string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusCreated)
		}))
		defer ts.Close()

		if err := PostJSON(context.Background(), nil, ts.URL, "", payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAuth != "" {
			t.Fatalf("Authorization = %q, want empty", gotAuth)
		}
	})

	t.Run("non-2xx -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("nope"))
		}))
		defer ts.Close()

		err := PostJSON(context.Background(), nil, ts.URL, "", payload)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "request failed: 403") || !strings.Contains(err.Error(), "nope") {
			t.Fatalf("error = %q, want 403 with body", err.Error())
		}
	})

	t.Run("bad payload -> encode error", func(t *testing.T) {
		err := PostJSON(context.Background(), nil, "http://127.0.0.1:1", "", make(chan int))
		if err == nil || !strings.Contains(err.Error(), "encode payload") {
			t.Fatalf("expected encode error, got %v", err)
		}
	})

	t.Run("bad URL -> NewRequest error", func(t *testing.T) {
		if err := PostJSON(context.Background(), nil, "http://[::1", "", payload); err == nil {
			t.Fatal("expected error for bad URL, got nil")
		}
	})

	t.Run("client timeout -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer ts.Close()

		c := &http.Client{Timeout: 20 * time.Millisecond}
		if err := PostJSON(context.Background(), c, ts.URL, "", payload); err == nil {
			t.Fatal("expected timeout error, got nil")
		}
	})
}
