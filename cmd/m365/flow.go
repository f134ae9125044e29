package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sebastienlevert/cli-microsoft365/internal/dateparse"
	"github.com/sebastienlevert/cli-microsoft365/internal/output"
	"github.com/sebastienlevert/cli-microsoft365/libm365"
	"github.com/spf13/cobra"
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Manage Power Automate flows",
	Long:  `List Power Automate environments, flows and flow runs`,
}

var flowEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage Power Automate environments",
}

// newFlowClient acquires a Flow service token and builds a client with it.
func newFlowClient(ctx context.Context) (*libm365.FlowClient, error) {
	token, err := accessToken(ctx, libm365.ResourceFlow)
	if err != nil {
		return nil, err
	}
	return libm365.NewFlowClient(ctx, token), nil
}

// resolveEnvironment returns the environment from --environment or the
// configured default.
func resolveEnvironment(cmd *cobra.Command) (string, error) {
	environment, _ := cmd.Flags().GetString("environment")
	if environment == "" {
		config, err := configMgr.Load()
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		environment = config.Environment
	}
	if environment == "" {
		return "", fmt.Errorf("no environment: pass --environment or run 'm365 config set --environment'")
	}
	return environment, nil
}

var flowEnvListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	Long:  `List the Power Automate environments available to the signed-in user`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		ctx := context.Background()
		client, err := newFlowClient(ctx)
		if err != nil {
			return err
		}

		environments, err := client.ListEnvironments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list environments: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatListResponse(environments, len(environments), ""))
		}

		if len(environments) == 0 {
			fmt.Println("No environments found")
			return nil
		}

		var rows [][]string
		for _, env := range environments {
			displayName := ""
			isDefault := ""
			if env.Properties != nil {
				displayName = env.Properties.DisplayName
				if env.Properties.IsDefault {
					isDefault = "yes"
				}
			}
			rows = append(rows, []string{env.Name, displayName, isDefault})
		}
		output.WriteTable(os.Stdout, []string{"Name", "Display Name", "Default"}, rows)

		return nil
	},
}

var flowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flows",
	Long:  `List the Power Automate flows in an environment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		environment, err := resolveEnvironment(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		client, err := newFlowClient(ctx)
		if err != nil {
			return err
		}

		flows, err := client.ListFlows(ctx, environment)
		if err != nil {
			return fmt.Errorf("failed to list flows: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatListResponse(flows, len(flows), ""))
		}

		if len(flows) == 0 {
			fmt.Println("No flows found")
			return nil
		}

		var rows [][]string
		for _, flow := range flows {
			displayName := ""
			state := ""
			if flow.Properties != nil {
				displayName = flow.Properties.DisplayName
				state = flow.Properties.State
			}
			rows = append(rows, []string{flow.Name, displayName, state})
		}
		output.WriteTable(os.Stdout, []string{"Name", "Display Name", "State"}, rows)

		return nil
	},
}

var flowRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Manage flow runs",
}

var flowRunListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flow runs",
	Long: `List the runs of a flow, optionally restricted to a time window.

--since and --until accept ISO 8601 dates as well as natural language like
"2 days ago" or "last monday".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flowName, _ := cmd.Flags().GetString("flow")
		sinceStr, _ := cmd.Flags().GetString("since")
		untilStr, _ := cmd.Flags().GetString("until")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if flowName == "" {
			return fmt.Errorf("--flow is required")
		}

		environment, err := resolveEnvironment(cmd)
		if err != nil {
			return err
		}

		var since, until *time.Time
		if sinceStr != "" {
			t, err := dateparse.ParsePast(sinceStr, time.Time{})
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			since = &t
		}
		if untilStr != "" {
			t, err := dateparse.ParsePast(untilStr, time.Time{})
			if err != nil {
				return fmt.Errorf("invalid --until: %w", err)
			}
			until = &t
		}

		ctx := context.Background()
		client, err := newFlowClient(ctx)
		if err != nil {
			return err
		}

		runs, err := client.ListFlowRuns(ctx, &libm365.ListFlowRunsOptions{
			Environment: environment,
			FlowName:    flowName,
			Since:       since,
			Until:       until,
		})
		if err != nil {
			return fmt.Errorf("failed to list flow runs: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatListResponse(runs, len(runs), ""))
		}

		if len(runs) == 0 {
			fmt.Println("No runs found")
			return nil
		}

		var rows [][]string
		for _, run := range runs {
			status := ""
			started := ""
			if run.Properties != nil {
				status = run.Properties.Status
				if t := run.Properties.Started(); !t.IsZero() {
					started = dateparse.FormatISO8601(t)
				}
			}
			rows = append(rows, []string{run.Name, status, started})
		}
		output.WriteTable(os.Stdout, []string{"Name", "Status", "Started"}, rows)

		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{flowEnvListCmd, flowListCmd, flowRunListCmd} {
		cmd.Flags().Bool("json", false, "Output as JSON")
	}
	for _, cmd := range []*cobra.Command{flowListCmd, flowRunListCmd} {
		cmd.Flags().String("environment", "", "Environment name (default: configured environment)")
	}
	flowRunListCmd.Flags().String("flow", "", "Flow name (required)")
	flowRunListCmd.Flags().String("since", "", "Only show runs started at or after this time")
	flowRunListCmd.Flags().String("until", "", "Only show runs started before this time")

	flowEnvCmd.AddCommand(flowEnvListCmd)
	flowRunCmd.AddCommand(flowRunListCmd)
	flowCmd.AddCommand(flowEnvCmd)
	flowCmd.AddCommand(flowListCmd)
	flowCmd.AddCommand(flowRunCmd)
}
