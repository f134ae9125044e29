package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sebastienlevert/cli-microsoft365/internal/output"
	"github.com/sebastienlevert/cli-microsoft365/libm365"
	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Manage Microsoft Teams",
	Long:  `List the teams you are a member of and inspect team settings`,
}

// newGraphClient acquires a Microsoft Graph token and builds a client with it.
func newGraphClient(ctx context.Context) (*libm365.Client, error) {
	token, err := accessToken(ctx, libm365.ResourceGraph)
	if err != nil {
		return nil, err
	}
	return libm365.NewClient(ctx, token), nil
}

var teamsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List joined teams",
	Long:  `List the Microsoft Teams teams the signed-in user is a member of`,
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		pageToken, _ := cmd.Flags().GetString("page-token")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		ctx := context.Background()
		client, err := newGraphClient(ctx)
		if err != nil {
			return err
		}

		resp, err := client.ListJoinedTeams(ctx, &libm365.ListTeamsOptions{
			Top:       top,
			PageToken: pageToken,
		})
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatListResponse(resp.Teams, resp.Count, resp.NextPageToken))
		}

		if len(resp.Teams) == 0 {
			fmt.Println("No teams found")
			return nil
		}

		var rows [][]string
		for _, team := range resp.Teams {
			rows = append(rows, []string{
				team.ID,
				team.DisplayName,
				team.Visibility,
				strconv.FormatBool(team.IsArchived),
			})
		}
		output.WriteTable(os.Stdout, []string{"ID", "Name", "Visibility", "Archived"}, rows)
		output.PrintNextPageHint(os.Stdout, resp.NextPageToken)

		return nil
	},
}

var teamsGuestSettingsCmd = &cobra.Command{
	Use:   "guestsettings <team-id>",
	Short: "Show guest settings of a team",
	Long:  `Show what guests are allowed to do in the given team`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		ctx := context.Background()
		client, err := newGraphClient(ctx)
		if err != nil {
			return err
		}

		settings, err := client.GetTeamGuestSettings(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get guest settings: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, settings)
		}

		fmt.Printf("Guests can create and update channels: %t\n", settings.AllowCreateUpdateChannels)
		fmt.Printf("Guests can delete channels: %t\n", settings.AllowDeleteChannels)
		return nil
	},
}

func init() {
	teamsListCmd.Flags().Int("top", 0, "Maximum number of teams to return")
	teamsListCmd.Flags().String("page-token", "", "Token for the next page of results")
	teamsListCmd.Flags().Bool("json", false, "Output as JSON")
	teamsGuestSettingsCmd.Flags().Bool("json", false, "Output as JSON")

	teamsCmd.AddCommand(teamsListCmd)
	teamsCmd.AddCommand(teamsGuestSettingsCmd)
}
