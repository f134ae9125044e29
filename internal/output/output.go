// Package output provides formatting utilities for agent-friendly CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/jedib0t/go-pretty/v6/table"
)

// HTMLToMarkdown converts HTML content to Markdown.
// Returns the original content if conversion fails or content is empty.
func HTMLToMarkdown(html string) string {
	if html == "" {
		return ""
	}

	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		// Fall back to original content on error
		return html
	}

	return strings.TrimSpace(md)
}

// ListResponse represents a paginated list response matching Graph API structure.
type ListResponse struct {
	Value         any     `json:"value"`
	Count         int     `json:"@odata.count,omitempty"`
	HasMore       bool    `json:"hasMore"`
	NextPageToken *string `json:"nextPageToken,omitempty"`
}

// ActionResponse represents the response from an action command (e.g., webpart add).
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes a value as JSON to the writer.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatListResponse creates a ListResponse with the given values.
func FormatListResponse(value any, count int, nextPageToken string) *ListResponse {
	resp := &ListResponse{
		Value:   value,
		Count:   count,
		HasMore: nextPageToken != "",
	}
	if nextPageToken != "" {
		resp.NextPageToken = &nextPageToken
	}
	return resp
}

// FormatActionResponse creates an ActionResponse.
func FormatActionResponse(success bool, message string) *ActionResponse {
	return &ActionResponse{
		Success: success,
		Message: message,
	}
}

// PrintNextPageHint prints the pagination hint for human-readable output.
func PrintNextPageHint(w io.Writer, token string) {
	if token != "" {
		fmt.Fprintf(w, "\nNext page: --page-token %s\n", token)
	}
}

// WriteTable renders rows as a table for human-readable list output.
func WriteTable(w io.Writer, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = cell
		}
		t.AppendRow(tableRow)
	}

	t.Render()
}
