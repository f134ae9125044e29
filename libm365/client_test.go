package libm365

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET request, got %s", r.Method)
		}

		if r.URL.Path != "/me" {
			t.Errorf("Expected path /me, got %s", r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Expected Authorization header with Bearer token")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"displayName":"Test User","userPrincipalName":"test@example.com"}`))
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     server.URL,
		accessToken: "test-token",
	}

	ctx := context.Background()
	me, err := client.GetMe(ctx)
	if err != nil {
		t.Fatalf("GetMe failed: %v", err)
	}

	if me["displayName"] != "Test User" {
		t.Errorf("Expected display name 'Test User', got %v", me["displayName"])
	}
}

func TestGetFollowsAbsoluteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/next-page" {
			t.Errorf("Expected path /next-page, got %s", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     "http://unused.invalid",
		accessToken: "test-token",
	}

	ctx := context.Background()
	if _, err := client.Get(ctx, server.URL+"/next-page"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestGetErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken"}}`))
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     server.URL,
		accessToken: "expired",
	}

	ctx := context.Background()
	_, err := client.Get(ctx, "/me")
	if err == nil {
		t.Error("Expected error for 401 response")
	}
}
