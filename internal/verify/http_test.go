package verify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPClientSendPushChallenge(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "request_id": "req-42"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "api-key-1")
	requestID, err := client.SendPushChallenge(context.Background(), PushChallenge{
		ProviderID: "prov-1",
		Message:    "Please authorize payment to alice@example.com",
		Expiry:     1200 * time.Second,
		Details:    map[string]string{"Sending to": "alice@example.com"},
	})
	if err != nil {
		t.Fatalf("send push challenge: %v", err)
	}
	if requestID != "req-42" {
		t.Fatalf("expected req-42, got %s", requestID)
	}
	if gotPath != "/protected/push/requests" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotKey != "api-key-1" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotBody["seconds_to_expire"] != "1200" {
		t.Fatalf("expected advisory expiry 1200, got %v", gotBody["seconds_to_expire"])
	}
}

func TestHTTPClientSurfacesProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "user has no registered device"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "api-key-1")
	_, err := client.SendPushChallenge(context.Background(), PushChallenge{ProviderID: "prov-1"})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if providerErr.Message != "user has no registered device" {
		t.Fatalf("provider message lost: %q", providerErr.Message)
	}
	if providerErr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", providerErr.Status)
	}
}

func TestHTTPClientCheckVerificationRejectedCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "incorrect code"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "api-key-1")
	ok, err := client.CheckVerification(context.Background(), 1, "4155552671", "000000")
	if err != nil {
		t.Fatalf("rejected code is not an error: %v", err)
	}
	if ok {
		t.Fatalf("expected rejection")
	}
}

func TestHTTPClientRegisterUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "prov-77"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "api-key-1")
	id, err := client.RegisterUser(context.Background(), "bob@example.com", 1, "4155552671")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	if id != "prov-77" {
		t.Fatalf("expected prov-77, got %s", id)
	}
}

func TestHTTPClientUnreachableProvider(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", "api-key-1")
	err := client.StartVerification(context.Background(), 1, "4155552671", ChannelSMS)
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError for transport failure, got %v", err)
	}
}
