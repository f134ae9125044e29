package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sebastienlevert/cli-microsoft365/internal/output"
	"github.com/sebastienlevert/cli-microsoft365/libm365"
	"github.com/spf13/cobra"
)

var spoCmd = &cobra.Command{
	Use:   "spo",
	Short: "Manage SharePoint Online",
	Long:  `Manage SharePoint Online sites, pages and navigation`,
}

var spoPageCmd = &cobra.Command{
	Use:   "page",
	Short: "Manage modern site pages",
	Long:  `View modern site pages and manage the web parts on them`,
}

var spoNavCmd = &cobra.Command{
	Use:   "nav",
	Short: "Manage site navigation",
	Long:  `List, add and remove site navigation nodes`,
}

// newSPOClient builds a SharePoint client for the site given via --site or
// the configured default, acquiring a token for that site's tenant host.
func newSPOClient(ctx context.Context, cmd *cobra.Command) (*libm365.SPOClient, error) {
	site, _ := cmd.Flags().GetString("site")
	if site == "" {
		config, err := configMgr.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		site = config.SiteURL
	}
	if site == "" {
		return nil, fmt.Errorf("no site URL: pass --site or run 'm365 config set --site-url'")
	}

	resource, err := libm365.SharePointResource(site)
	if err != nil {
		return nil, err
	}

	token, err := accessToken(ctx, resource)
	if err != nil {
		return nil, err
	}

	return libm365.NewSPOClient(ctx, token, site), nil
}

var spoPageGetCmd = &cobra.Command{
	Use:   "get <page-name>",
	Short: "Get a modern page",
	Long:  `Retrieve a modern page and show its section and column structure`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := newSPOClient(ctx, cmd)
		if err != nil {
			return err
		}

		page, err := client.GetPage(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get page: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return output.WriteJSON(os.Stdout, page)
		}

		fmt.Printf("Title: %s\n", page.Title)
		fmt.Printf("File: %s\n", page.FileName)
		fmt.Printf("Layout: %s\n", page.PageLayoutType)
		fmt.Printf("Checked out to you: %t\n", page.IsPageCheckedOutToCurrentUser)

		if strings.TrimSpace(page.CanvasContent1) == "" {
			fmt.Println("Sections: none")
			return nil
		}

		layout, err := libm365.ParseLayout(page.CanvasContent1)
		if err != nil {
			return err
		}

		zones := layout.SectionZones()
		fmt.Printf("Sections: %d\n", len(zones))
		for i, zone := range zones {
			columns := map[int]int{}
			for _, c := range layout.Controls {
				if c.Position != nil && c.Position.ZoneIndex == zone && c.IsWebPart() {
					columns[c.Position.SectionIndex]++
				}
			}
			fmt.Printf("  Section %d: %d web part(s)\n", i+1, sumValues(columns))
		}

		return nil
	},
}

func sumValues(m map[int]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

var spoPageControlCmd = &cobra.Command{
	Use:   "control",
	Short: "Manage canvas controls",
}

var spoPageControlListCmd = &cobra.Command{
	Use:   "list <page-name>",
	Short: "List controls on a modern page",
	Long:  `List the canvas controls of a modern page with their derived section number, column and control index`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := newSPOClient(ctx, cmd)
		if err != nil {
			return err
		}

		page, err := client.GetPage(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get page: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		markdownOutput, _ := cmd.Flags().GetBool("markdown")

		layout := &libm365.Layout{}
		if strings.TrimSpace(page.CanvasContent1) != "" {
			layout, err = libm365.ParseLayout(page.CanvasContent1)
			if err != nil {
				return err
			}
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatListResponse(layout.Controls, len(layout.Controls), ""))
		}

		var rows [][]string
		for _, c := range layout.Controls {
			if !c.IsWebPart() {
				continue
			}
			title, _ := c.WebPartData["title"].(string)
			rows = append(rows, []string{
				strconv.Itoa(layout.SectionNumber(c.Position.ZoneIndex)),
				strconv.Itoa(c.Position.SectionIndex),
				strconv.Itoa(c.Position.ControlIndex),
				c.WebPartID,
				title,
			})
		}

		if len(rows) == 0 {
			fmt.Println("No web parts found")
			return nil
		}

		output.WriteTable(os.Stdout, []string{"Section", "Column", "Index", "Web Part ID", "Title"}, rows)

		if markdownOutput {
			printTextContent(layout)
		}

		return nil
	},
}

// printTextContent renders the HTML content of text web parts as Markdown.
func printTextContent(layout *libm365.Layout) {
	for _, c := range layout.Controls {
		if !c.IsWebPart() {
			continue
		}
		props, _ := c.WebPartData["properties"].(map[string]any)
		text, _ := props["Text"].(string)
		if text == "" {
			continue
		}
		fmt.Printf("\nText content (section %d, column %d):\n%s\n",
			layout.SectionNumber(c.Position.ZoneIndex), c.Position.SectionIndex,
			output.HTMLToMarkdown(text))
	}
}

var spoPageWebPartCmd = &cobra.Command{
	Use:   "webpart",
	Short: "Manage web parts on a page",
}

var spoPageWebPartAddCmd = &cobra.Command{
	Use:   "add <page-name>",
	Short: "Add a web part to a modern page",
	Long: `Add a client-side web part to a modern page.

The web part is specified either by standard name (e.g. Text, Image, Hero)
via --webpart, or by manifest id via --webpart-id. Target placement is
controlled by --section, --column and --order; defaults place the web part
at the end of the first column of the last section.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		webpart, _ := cmd.Flags().GetString("webpart")
		webpartID, _ := cmd.Flags().GetString("webpart-id")
		section, _ := cmd.Flags().GetInt("section")
		column, _ := cmd.Flags().GetInt("column")
		order, _ := cmd.Flags().GetInt("order")
		propertiesStr, _ := cmd.Flags().GetString("webpart-properties")
		dataStr, _ := cmd.Flags().GetString("webpart-data")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if (webpart == "") == (webpartID == "") {
			return fmt.Errorf("specify either --webpart or --webpart-id")
		}
		if propertiesStr != "" && dataStr != "" {
			return fmt.Errorf("--webpart-properties and --webpart-data are mutually exclusive")
		}

		identifier := webpart
		if webpartID != "" {
			identifier = webpartID
		}

		var properties, data map[string]any
		var err error
		if propertiesStr != "" {
			properties, err = libm365.ParseJSONObject(propertiesStr)
			if err != nil {
				return fmt.Errorf("invalid --webpart-properties: %w", err)
			}
		}
		if dataStr != "" {
			data, err = libm365.ParseJSONObject(dataStr)
			if err != nil {
				return fmt.Errorf("invalid --webpart-data: %w", err)
			}
		}

		ctx := context.Background()
		client, err := newSPOClient(ctx, cmd)
		if err != nil {
			return err
		}

		err = client.AddWebPart(ctx, &libm365.AddWebPartOptions{
			PageName:   args[0],
			WebPart:    identifier,
			Section:    section,
			Column:     column,
			Order:      order,
			Properties: properties,
			Data:       data,
		})
		if err != nil {
			return fmt.Errorf("failed to add web part: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatActionResponse(true, "Web part added successfully"))
		}

		fmt.Println("Web part added successfully!")
		return nil
	},
}

var spoNavListCmd = &cobra.Command{
	Use:   "list",
	Short: "List navigation nodes",
	Long:  `List the navigation nodes of a menu location`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := newSPOClient(ctx, cmd)
		if err != nil {
			return err
		}

		location, _ := cmd.Flags().GetString("location")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		nodes, err := client.ListNavigationNodes(ctx, location)
		if err != nil {
			return fmt.Errorf("failed to list navigation nodes: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatListResponse(nodes, len(nodes), ""))
		}

		if len(nodes) == 0 {
			fmt.Println("No navigation nodes found")
			return nil
		}

		var rows [][]string
		for _, node := range nodes {
			rows = append(rows, []string{
				strconv.Itoa(node.ID),
				node.Title,
				node.URL,
				strconv.FormatBool(node.IsExternal),
			})
		}
		output.WriteTable(os.Stdout, []string{"ID", "Title", "URL", "External"}, rows)

		return nil
	},
}

var spoNavAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a navigation node",
	Long:  `Add a node to a navigation menu location`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		url, _ := cmd.Flags().GetString("url")
		external, _ := cmd.Flags().GetBool("external")
		location, _ := cmd.Flags().GetString("location")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if title == "" {
			return fmt.Errorf("--title is required")
		}

		ctx := context.Background()
		client, err := newSPOClient(ctx, cmd)
		if err != nil {
			return err
		}

		node, err := client.AddNavigationNode(ctx, location, &libm365.NavigationNode{
			Title:      title,
			URL:        url,
			IsExternal: external,
		})
		if err != nil {
			return fmt.Errorf("failed to add navigation node: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, node)
		}

		fmt.Printf("Added navigation node '%s' (ID: %d)\n", node.Title, node.ID)
		return nil
	},
}

var spoNavRemoveCmd = &cobra.Command{
	Use:   "remove <node-id>",
	Short: "Remove a navigation node",
	Long:  `Remove a node from a navigation menu location`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid node ID %q", args[0])
		}

		location, _ := cmd.Flags().GetString("location")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		ctx := context.Background()
		client, err := newSPOClient(ctx, cmd)
		if err != nil {
			return err
		}

		if err := client.RemoveNavigationNode(ctx, location, id); err != nil {
			return fmt.Errorf("failed to remove navigation node: %w", err)
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, output.FormatActionResponse(true, "Navigation node removed successfully"))
		}

		fmt.Println("Navigation node removed successfully!")
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{spoPageGetCmd, spoPageControlListCmd, spoPageWebPartAddCmd, spoNavListCmd, spoNavAddCmd, spoNavRemoveCmd} {
		cmd.Flags().String("site", "", "SharePoint site URL (default: configured site_url)")
		cmd.Flags().Bool("json", false, "Output as JSON")
	}

	spoPageControlListCmd.Flags().Bool("markdown", false, "Render text web part HTML content as Markdown")

	spoPageWebPartAddCmd.Flags().String("webpart", "", "Standard web part name (e.g. Text, Image, Hero)")
	spoPageWebPartAddCmd.Flags().String("webpart-id", "", "Web part manifest ID")
	spoPageWebPartAddCmd.Flags().Int("section", 0, "Target section, 1-based (default: last section)")
	spoPageWebPartAddCmd.Flags().Int("column", 0, "Target column, 1-based (default: 1)")
	spoPageWebPartAddCmd.Flags().Int("order", 0, "Position among existing web parts in the column, 1-based (default: append)")
	spoPageWebPartAddCmd.Flags().String("webpart-properties", "", "JSON object merged over the web part's default properties")
	spoPageWebPartAddCmd.Flags().String("webpart-data", "", "JSON object merged over the web part's default data")

	for _, cmd := range []*cobra.Command{spoNavListCmd, spoNavAddCmd, spoNavRemoveCmd} {
		cmd.Flags().String("location", libm365.NavigationQuickLaunch, "Menu location (QuickLaunch or TopNavigationBar)")
	}
	spoNavAddCmd.Flags().String("title", "", "Node title (required)")
	spoNavAddCmd.Flags().String("url", "", "Node URL")
	spoNavAddCmd.Flags().Bool("external", false, "URL points outside the site")

	spoPageControlCmd.AddCommand(spoPageControlListCmd)
	spoPageWebPartCmd.AddCommand(spoPageWebPartAddCmd)
	spoPageCmd.AddCommand(spoPageGetCmd)
	spoPageCmd.AddCommand(spoPageControlCmd)
	spoPageCmd.AddCommand(spoPageWebPartCmd)
	spoNavCmd.AddCommand(spoNavListCmd)
	spoNavCmd.AddCommand(spoNavAddCmd)
	spoNavCmd.AddCommand(spoNavRemoveCmd)
	spoCmd.AddCommand(spoPageCmd)
	spoCmd.AddCommand(spoNavCmd)
}
