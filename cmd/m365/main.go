package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sebastienlevert/cli-microsoft365/internal/plugin"
	"github.com/sebastienlevert/cli-microsoft365/libm365"
	"github.com/spf13/cobra"
)

var (
	configMgr *libm365.ConfigManager
	rootCmd   = &cobra.Command{
		Use:   "m365",
		Short: "Microsoft 365 CLI",
		Long:  `m365 is a CLI tool for managing Microsoft 365 services: SharePoint Online, Microsoft Teams and Power Automate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no subcommand is provided, show help
			if len(args) == 0 {
				return cmd.Help()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	var err error
	configMgr, err = libm365.NewConfigManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config manager: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(spoCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(flowCmd)
}

// newAuthenticator loads the stored configuration and builds an
// authenticator from it. Every command goes through here.
func newAuthenticator() (*libm365.Authenticator, *libm365.Config, error) {
	config, err := configMgr.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.ClientID == "" || config.TenantID == "" {
		return nil, nil, fmt.Errorf("client ID and tenant ID must be configured. Use 'm365 config set' to configure")
	}

	auth, err := libm365.NewAuthenticator(libm365.AuthConfig{
		TenantID: config.TenantID,
		ClientID: config.ClientID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	return auth, config, nil
}

// accessToken acquires a token for a resource, failing with a login hint
// when no account is signed in.
func accessToken(ctx context.Context, resource string) (string, error) {
	auth, _, err := newAuthenticator()
	if err != nil {
		return "", err
	}

	if !auth.IsAuthenticated(ctx) {
		return "", fmt.Errorf("not authenticated. Please run 'm365 login' first")
	}

	return auth.GetAccessToken(ctx, resource)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Microsoft 365",
	Long:  `Authenticate with Microsoft 365 using device code flow`,
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, _, err := newAuthenticator()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := auth.LoginWithDeviceCode(ctx, libm365.ResourceGraph); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}

		fmt.Println("Successfully authenticated!")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out from Microsoft 365",
	Long:  `Remove stored accounts and tokens`,
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, _, err := newAuthenticator()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := auth.Logout(ctx); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}

		fmt.Println("Successfully logged out!")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Display current authentication status and user information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, _, err := newAuthenticator()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if !auth.IsAuthenticated(ctx) {
			fmt.Println("Status: Not authenticated")
			return nil
		}

		fmt.Println("Status: Authenticated")

		token, err := auth.GetAccessToken(ctx, libm365.ResourceGraph)
		if err != nil {
			return err
		}

		client := libm365.NewClient(ctx, token)
		userInfo, err := client.GetMe(ctx)
		if err != nil {
			fmt.Printf("Warning: Could not retrieve user info: %v\n", err)
			return nil
		}

		if displayName, ok := userInfo["displayName"].(string); ok {
			fmt.Printf("User: %s\n", displayName)
		}
		if userPrincipalName, ok := userInfo["userPrincipalName"].(string); ok {
			fmt.Printf("Email: %s\n", userPrincipalName)
		}

		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage m365 configuration settings`,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	Long:  `Set configuration values like tenant ID, client ID and default site URL`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configMgr.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		tenantID, _ := cmd.Flags().GetString("tenant-id")
		clientID, _ := cmd.Flags().GetString("client-id")
		siteURL, _ := cmd.Flags().GetString("site-url")
		environment, _ := cmd.Flags().GetString("environment")

		if tenantID != "" {
			config.TenantID = tenantID
		}
		if clientID != "" {
			config.ClientID = clientID
		}
		if siteURL != "" {
			config.SiteURL = siteURL
		}
		if environment != "" {
			config.Environment = environment
		}

		if err := configMgr.Save(config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Println("Configuration saved successfully!")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display current configuration settings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configMgr.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Printf("Tenant ID: %s\n", config.TenantID)
		fmt.Printf("Client ID: %s\n", config.ClientID)
		fmt.Printf("Site URL: %s\n", config.SiteURL)
		fmt.Printf("Environment: %s\n", config.Environment)

		return nil
	},
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List available plugins",
	Long:  `List all available m365-* plugins in PATH`,
	RunE: func(cmd *cobra.Command, args []string) error {
		plugins, err := plugin.ListPlugins()
		if err != nil {
			return fmt.Errorf("failed to list plugins: %w", err)
		}

		if len(plugins) == 0 {
			fmt.Println("No plugins found in PATH")
			return nil
		}

		fmt.Println("Available plugins:")
		for _, p := range plugins {
			fmt.Printf("  - %s\n", p)
		}

		return nil
	},
}

func init() {
	configSetCmd.Flags().String("tenant-id", "", "Azure AD tenant ID")
	configSetCmd.Flags().String("client-id", "", "Azure AD client ID")
	configSetCmd.Flags().String("site-url", "", "Default SharePoint site URL")
	configSetCmd.Flags().String("environment", "", "Default Power Automate environment")

	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}

func main() {
	// Check if we should try to execute a plugin
	if len(os.Args) > 1 {
		// Check if this is a known command
		cmdName := os.Args[1]
		isKnownCmd := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == cmdName || cmd.HasAlias(cmdName) {
				isKnownCmd = true
				break
			}
		}

		// If not a known command and not a flag, try plugin
		if !isKnownCmd && cmdName != "" && !strings.HasPrefix(cmdName, "-") {
			if err := plugin.ExecutePlugin(cmdName, os.Args[2:]); err == nil {
				return
			}
			// If plugin fails, fall through to normal cobra execution
			// which will show the "unknown command" error
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
