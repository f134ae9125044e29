package libm365

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListJoinedTeams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET request, got %s", r.Method)
		}

		if r.URL.Path != "/me/joinedTeams" {
			t.Errorf("Expected path /me/joinedTeams, got %s", r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Expected Authorization header with Bearer token")
		}

		response := TeamList{
			Value: []*Team{
				{
					ID:          "team1",
					DisplayName: "Engineering",
					Visibility:  "private",
				},
				{
					ID:          "team2",
					DisplayName: "All Company",
					Visibility:  "public",
					IsArchived:  true,
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     server.URL,
		accessToken: "test-token",
	}

	ctx := context.Background()
	resp, err := client.ListJoinedTeams(ctx, nil)
	if err != nil {
		t.Fatalf("ListJoinedTeams failed: %v", err)
	}

	if resp.Count != 2 {
		t.Errorf("Expected 2 teams, got %d", resp.Count)
	}

	if resp.Teams[0].DisplayName != "Engineering" {
		t.Errorf("Expected name 'Engineering', got '%s'", resp.Teams[0].DisplayName)
	}

	if !resp.Teams[1].IsArchived {
		t.Error("Expected second team to be archived")
	}
}

func TestListJoinedTeamsWithPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$top") != "5" {
			t.Errorf("Expected $top=5, got %s", r.URL.Query().Get("$top"))
		}
		if r.URL.Query().Get("$skiptoken") != "abc" {
			t.Errorf("Expected $skiptoken=abc, got %s", r.URL.Query().Get("$skiptoken"))
		}

		response := TeamList{
			Value: []*Team{
				{ID: "team3", DisplayName: "Sales"},
			},
			NextLink: "https://graph.microsoft.com/v1.0/me/joinedTeams?$skiptoken=def",
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     server.URL,
		accessToken: "test-token",
	}

	ctx := context.Background()
	resp, err := client.ListJoinedTeams(ctx, &ListTeamsOptions{Top: 5, PageToken: "abc"})
	if err != nil {
		t.Fatalf("ListJoinedTeams failed: %v", err)
	}

	if resp.NextPageToken != "def" {
		t.Errorf("Expected NextPageToken='def', got '%s'", resp.NextPageToken)
	}
}

func TestGetTeam(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams/team1" {
			t.Errorf("Expected path /teams/team1, got %s", r.URL.Path)
		}

		team := Team{
			ID:          "team1",
			DisplayName: "Engineering",
			GuestSettings: &TeamGuestSettings{
				AllowCreateUpdateChannels: true,
				AllowDeleteChannels:       false,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(team)
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     server.URL,
		accessToken: "test-token",
	}

	ctx := context.Background()
	team, err := client.GetTeam(ctx, "team1")
	if err != nil {
		t.Fatalf("GetTeam failed: %v", err)
	}

	if team.DisplayName != "Engineering" {
		t.Errorf("Expected name 'Engineering', got '%s'", team.DisplayName)
	}
}

func TestGetTeamEmptyID(t *testing.T) {
	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     "http://localhost",
		accessToken: "test-token",
	}

	ctx := context.Background()
	_, err := client.GetTeam(ctx, "")
	if err == nil {
		t.Error("Expected error for empty team ID")
	}
}

func TestGetTeamGuestSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		team := Team{
			ID: "team1",
			GuestSettings: &TeamGuestSettings{
				AllowCreateUpdateChannels: true,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(team)
	}))
	defer server.Close()

	client := &Client{
		httpClient:  &http.Client{},
		baseURL:     server.URL,
		accessToken: "test-token",
	}

	ctx := context.Background()
	settings, err := client.GetTeamGuestSettings(ctx, "team1")
	if err != nil {
		t.Fatalf("GetTeamGuestSettings failed: %v", err)
	}

	if !settings.AllowCreateUpdateChannels {
		t.Error("Expected AllowCreateUpdateChannels=true")
	}
	if settings.AllowDeleteChannels {
		t.Error("Expected AllowDeleteChannels=false")
	}
}

func TestExtractSkipToken(t *testing.T) {
	token := extractSkipToken("https://graph.microsoft.com/v1.0/me/joinedTeams?$skiptoken=xyz")
	if token != "xyz" {
		t.Errorf("Expected token 'xyz', got '%s'", token)
	}

	if token := extractSkipToken(""); token != "" {
		t.Errorf("Expected empty token, got '%s'", token)
	}
}
