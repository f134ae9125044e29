package libm365

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Team represents a Microsoft Teams team from Microsoft Graph
type Team struct {
	ID            string             `json:"id,omitempty"`
	DisplayName   string             `json:"displayName,omitempty"`
	Description   string             `json:"description,omitempty"`
	Visibility    string             `json:"visibility,omitempty"`
	IsArchived    bool               `json:"isArchived,omitempty"`
	GuestSettings *TeamGuestSettings `json:"guestSettings,omitempty"`
}

// TeamGuestSettings controls what guests can do in a team
type TeamGuestSettings struct {
	AllowCreateUpdateChannels bool `json:"allowCreateUpdateChannels"`
	AllowDeleteChannels       bool `json:"allowDeleteChannels"`
}

// TeamList represents a list of teams returned by Graph API
type TeamList struct {
	Value    []*Team `json:"value"`
	NextLink string  `json:"@odata.nextLink,omitempty"`
}

// ListTeamsOptions represents options for listing joined teams
type ListTeamsOptions struct {
	Top       int
	PageToken string
}

// ListTeamsResponse is a page of joined teams
type ListTeamsResponse struct {
	Teams         []*Team
	Count         int
	NextPageToken string
}

// ListJoinedTeams retrieves the teams the signed-in user is a member of
func (c *Client) ListJoinedTeams(ctx context.Context, opts *ListTeamsOptions) (*ListTeamsResponse, error) {
	path := "/me/joinedTeams"

	params := url.Values{}
	if opts != nil {
		if opts.Top > 0 {
			params.Set("$top", fmt.Sprintf("%d", opts.Top))
		}
		if opts.PageToken != "" {
			params.Set("$skiptoken", opts.PageToken)
		}
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	data, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var teamList TeamList
	if err := json.Unmarshal(data, &teamList); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teams: %w", err)
	}

	return &ListTeamsResponse{
		Teams:         teamList.Value,
		Count:         len(teamList.Value),
		NextPageToken: extractSkipToken(teamList.NextLink),
	}, nil
}

// GetTeam retrieves a team by ID including its guest settings
func (c *Client) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	if teamID == "" {
		return nil, fmt.Errorf("team ID is required")
	}

	data, err := c.Get(ctx, fmt.Sprintf("/teams/%s", teamID))
	if err != nil {
		return nil, err
	}

	var team Team
	if err := json.Unmarshal(data, &team); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team: %w", err)
	}

	return &team, nil
}

// GetTeamGuestSettings retrieves the guest settings of a team
func (c *Client) GetTeamGuestSettings(ctx context.Context, teamID string) (*TeamGuestSettings, error) {
	team, err := c.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.GuestSettings == nil {
		return nil, fmt.Errorf("team %s has no guest settings", teamID)
	}
	return team.GuestSettings, nil
}

// extractSkipToken pulls the $skiptoken value out of an @odata.nextLink so it
// can be handed back to the user as an opaque page token.
func extractSkipToken(nextLink string) string {
	if nextLink == "" {
		return ""
	}
	parsed, err := url.Parse(nextLink)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("$skiptoken")
}
