package libm365

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SPOClient is a SharePoint Online REST client scoped to one site.
type SPOClient struct {
	httpClient  *http.Client
	siteURL     string
	accessToken string
}

// NewSPOClient creates a SharePoint client for the given site URL.
func NewSPOClient(ctx context.Context, accessToken, siteURL string) *SPOClient {
	return &SPOClient{
		httpClient:  &http.Client{},
		siteURL:     strings.TrimRight(siteURL, "/"),
		accessToken: accessToken,
	}
}

// Get performs a GET request against the site's REST API.
func (c *SPOClient) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, "GET", path, nil, nil)
}

// Post performs a POST request against the site's REST API.
func (c *SPOClient) Post(ctx context.Context, path string, data interface{}) ([]byte, error) {
	return c.do(ctx, "POST", path, data, nil)
}

func (c *SPOClient) do(ctx context.Context, method, path string, data interface{}, headers map[string]string) ([]byte, error) {
	url := c.siteURL + path

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		body = strings.NewReader(string(jsonData))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json;odata=nometadata")
	if data != nil {
		req.Header.Set("Content-Type", "application/json;odata=nometadata")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("SharePoint API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Page represents a modern site page as returned by the site pages API.
type Page struct {
	ID                            int    `json:"Id,omitempty"`
	Title                         string `json:"Title,omitempty"`
	FileName                      string `json:"FileName,omitempty"`
	PageLayoutType                string `json:"PageLayoutType,omitempty"`
	CanvasContent1                string `json:"CanvasContent1,omitempty"`
	IsPageCheckedOutToCurrentUser bool   `json:"IsPageCheckedOutToCurrentUser,omitempty"`
}

// NormalizePageName ensures a page name carries the .aspx extension and no
// leading path separators.
func NormalizePageName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if !strings.HasSuffix(strings.ToLower(name), ".aspx") {
		name += ".aspx"
	}
	return name
}

func pagePath(name string) string {
	// Single quotes in REST literals are escaped by doubling.
	escaped := strings.ReplaceAll(NormalizePageName(name), "'", "''")
	return fmt.Sprintf("/_api/sitepages/pages/GetByUrl('sitepages/%s')", escaped)
}

// GetPage retrieves a modern page including its canvas content.
func (c *SPOClient) GetPage(ctx context.Context, name string) (*Page, error) {
	if name == "" {
		return nil, fmt.Errorf("page name is required")
	}

	data, err := c.Get(ctx, pagePath(name))
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}

	return &page, nil
}

// CheckoutPage checks the page out to the current user and returns the
// checked-out page state.
func (c *SPOClient) CheckoutPage(ctx context.Context, name string) (*Page, error) {
	data, err := c.Post(ctx, pagePath(name)+"/checkoutpage", nil)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checked out page: %w", err)
	}

	return &page, nil
}

// SavePage persists the full canvas content of the page. The server replaces
// the previous layout wholesale.
func (c *SPOClient) SavePage(ctx context.Context, name, canvasContent string) error {
	body := map[string]string{
		"CanvasContent1": canvasContent,
	}
	_, err := c.Post(ctx, pagePath(name)+"/savepage", body)
	return err
}

// ListWebParts retrieves the site's client-side web part catalog.
func (c *SPOClient) ListWebParts(ctx context.Context) (*WebPartDefinitionList, error) {
	data, err := c.Get(ctx, "/_api/web/GetClientSideWebParts()")
	if err != nil {
		return nil, err
	}

	var list WebPartDefinitionList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal web part catalog: %w", err)
	}

	return &list, nil
}

// AddWebPartOptions describes a web part insertion into a page.
type AddWebPartOptions struct {
	PageName   string
	WebPart    string         // standard web part name or manifest id
	Section    int            // 1-based, 0 selects the last section
	Column     int            // 1-based, 0 defaults to 1
	Order      int            // 1-based among existing controls, 0 appends
	Properties map[string]any // shallow-merged over the template's properties
	Data       map[string]any // shallow-merged over the template's webPartData
}

// AddWebPart inserts a web part into a page: fetch the layout, check the page
// out if needed, resolve the web part template from the site catalog, mutate
// the layout in memory, and persist it. Every step blocks on the previous one
// and any failure aborts the chain; nothing partial is ever persisted.
func (c *SPOClient) AddWebPart(ctx context.Context, opts *AddWebPartOptions) error {
	if opts == nil || opts.PageName == "" {
		return fmt.Errorf("page name is required")
	}
	if opts.WebPart == "" {
		return fmt.Errorf("web part identifier is required")
	}

	page, err := c.GetPage(ctx, opts.PageName)
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}

	if !page.IsPageCheckedOutToCurrentUser {
		checkedOut, err := c.CheckoutPage(ctx, opts.PageName)
		if err != nil {
			return fmt.Errorf("failed to check out page: %w", err)
		}
		if checkedOut.CanvasContent1 != "" {
			page.CanvasContent1 = checkedOut.CanvasContent1
		}
	}

	layout, err := parsePageLayout(page.CanvasContent1)
	if err != nil {
		return err
	}
	layout.EnsureDefaultSection()

	zoneIndex, err := layout.ResolveSection(opts.Section)
	if err != nil {
		return err
	}

	catalog, err := c.ListWebParts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get web part catalog: %w", err)
	}

	def, err := catalog.FindWebPart(opts.WebPart)
	if err != nil {
		return err
	}

	wp, err := def.DefaultControl()
	if err != nil {
		return err
	}
	wp.ID = uuid.NewString()
	applyWebPartPayload(wp, opts.Properties, opts.Data)

	if err := layout.InsertWebPart(zoneIndex, opts.Column, opts.Order, wp); err != nil {
		return err
	}

	canvasContent, err := layout.Serialize()
	if err != nil {
		return err
	}

	if err := c.SavePage(ctx, opts.PageName, canvasContent); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

// parsePageLayout parses canvas content, treating a page that has no canvas
// yet as one holding only the page-settings marker.
func parsePageLayout(canvasContent string) (*Layout, error) {
	if strings.TrimSpace(canvasContent) == "" {
		marker := ControlTypePageSettings
		return &Layout{Controls: []*Control{{ControlType: &marker}}}, nil
	}
	return ParseLayout(canvasContent)
}

// applyWebPartPayload stamps the control's identity into its webPartData and
// overlays caller-supplied properties and data, caller winning key by key.
func applyWebPartPayload(wp *Control, properties, data map[string]any) {
	if wp.WebPartData == nil {
		wp.WebPartData = map[string]any{}
	}
	wp.WebPartData["id"] = wp.WebPartID
	wp.WebPartData["instanceId"] = wp.ID

	if len(properties) > 0 {
		defaults, _ := wp.WebPartData["properties"].(map[string]any)
		wp.WebPartData["properties"] = MergeProperties(defaults, properties)
	}
	if len(data) > 0 {
		wp.WebPartData = MergeProperties(wp.WebPartData, data)
	}
}

// Navigation node locations on a site.
const (
	NavigationQuickLaunch      = "QuickLaunch"
	NavigationTopNavigationBar = "TopNavigationBar"
)

// NavigationNode is one entry of a site navigation menu.
type NavigationNode struct {
	ID         int    `json:"Id,omitempty"`
	Title      string `json:"Title,omitempty"`
	URL        string `json:"Url,omitempty"`
	IsExternal bool   `json:"IsExternal,omitempty"`
}

// NavigationNodeList is the navigation collection envelope.
type NavigationNodeList struct {
	Value []*NavigationNode `json:"value"`
}

func navigationPath(location string) (string, error) {
	switch location {
	case NavigationQuickLaunch:
		return "/_api/web/navigation/quicklaunch", nil
	case NavigationTopNavigationBar:
		return "/_api/web/navigation/topnavigationbar", nil
	default:
		return "", fmt.Errorf("invalid navigation location %q: use %s or %s", location, NavigationQuickLaunch, NavigationTopNavigationBar)
	}
}

// ListNavigationNodes retrieves the navigation nodes for a menu location.
func (c *SPOClient) ListNavigationNodes(ctx context.Context, location string) ([]*NavigationNode, error) {
	path, err := navigationPath(location)
	if err != nil {
		return nil, err
	}

	data, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var list NavigationNodeList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal navigation nodes: %w", err)
	}

	return list.Value, nil
}

// AddNavigationNode appends a node to a navigation menu location.
func (c *SPOClient) AddNavigationNode(ctx context.Context, location string, node *NavigationNode) (*NavigationNode, error) {
	if node == nil || node.Title == "" {
		return nil, fmt.Errorf("navigation node title is required")
	}

	path, err := navigationPath(location)
	if err != nil {
		return nil, err
	}

	data, err := c.Post(ctx, path, node)
	if err != nil {
		return nil, err
	}

	var created NavigationNode
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal navigation node: %w", err)
	}

	return &created, nil
}

// RemoveNavigationNode deletes a node from a navigation menu location.
func (c *SPOClient) RemoveNavigationNode(ctx context.Context, location string, id int) error {
	path, err := navigationPath(location)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, "POST", fmt.Sprintf("%s/GetById(%d)", path, id), nil, map[string]string{
		"X-HTTP-Method": "DELETE",
	})
	return err
}
