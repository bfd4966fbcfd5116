// Package tools exposes the dashboard to MCP clients over stdio.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/report"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/utils"
)

// Tools serves MCP tool calls from the current table of a store.
type Tools struct {
	store  *dataset.Store
	dash   *dashboard.Dashboard
	render report.Config
}

// New creates the tool set.
func New(store *dataset.Store, dash *dashboard.Dashboard, render report.Config) *Tools {
	return &Tools{store: store, dash: dash, render: render}
}

// NewServer returns an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("agridash", version)
	t.Register(s)
	return s
}

// Register registers all tools with the MCP server.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_crops",
		mcp.WithDescription("Lists the crops present in the agriculture statistics table, one per line, in file order."),
	), t.listCrops)

	s.AddTool(mcp.NewTool("render_view",
		mcp.WithDescription("Renders one dashboard view for a crop. Text output is a terminal table of every chart series; html output is the interactive chart page."),
		mcp.WithString("view",
			mcp.Required(),
			mcp.Description("View key or label: production, trade or selfsufficiency"),
		),
		mcp.WithString("crop",
			mcp.Required(),
			mcp.Description("Crop name, matched case-insensitively"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text (default) or html"),
		),
		mcp.WithBoolean("show_data",
			mcp.Description("Include the filtered rows (text format only)"),
		),
	), t.renderView)

	s.AddTool(mcp.NewTool("export_data",
		mcp.WithDescription("Exports the full statistics table as CSV text or as a base64 data URI."),
		mcp.WithString("format",
			mcp.Description("csv (default) or datauri"),
		),
	), t.exportData)
}

func (t *Tools) listCrops(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crops := t.store.Table().Crops()
	if len(crops) == 0 {
		return newToolResultError("the table has no crops"), nil
	}
	return mcp.NewToolResultText(strings.Join(crops, "\n")), nil
}

func (t *Tools) renderView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	rawView, _ := args["view"].(string)
	view, err := dashboard.ParseView(rawView)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	crop, _ := args["crop"].(string)
	if strings.TrimSpace(crop) == "" {
		return newToolResultError("crop is required"), nil
	}
	format := report.FormatText
	if f, ok := args["format"].(string); ok && f != "" {
		format, err = report.ParseFormat(f)
		if err != nil {
			return newToolResultError(err.Error()), nil
		}
	}
	if format != report.FormatText && format != report.FormatHTML {
		return newToolResultError(fmt.Sprintf("format %q is not available here; use text or html", format)), nil
	}
	showData, _ := args["show_data"].(bool)

	table := t.store.Table()
	sel := dashboard.Selection{
		View:     view,
		Crop:     utils.MatchCrop(crop, table.Crops()),
		ShowData: showData,
	}
	panel, err := t.dash.Render(table, sel)
	if err != nil {
		var empty *dashboard.EmptySelectionError
		if errors.As(err, &empty) {
			return newToolResultError(fmt.Sprintf("%v; available crops: %s", err, strings.Join(table.Crops(), ", "))), nil
		}
		return nil, err
	}

	var buf bytes.Buffer
	if format == report.FormatText {
		err = report.GenerateText(&buf, panel)
	} else {
		for _, c := range panel.Charts {
			if err = report.Chart(&buf, c, format, t.render); err != nil {
				break
			}
		}
	}
	if err != nil {
		return newToolResultError(fmt.Sprintf("failed to render %s: %v", view, err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (t *Tools) exportData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, _ := request.Params.Arguments["format"].(string)
	table := t.store.Table()

	switch strings.ToLower(format) {
	case "", "csv":
		data, err := dataset.ExportCSV(table)
		if err != nil {
			return newToolResultError(fmt.Sprintf("failed to export: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	case "datauri":
		uri, err := dataset.DataURI(table)
		if err != nil {
			return newToolResultError(fmt.Sprintf("failed to export: %v", err)), nil
		}
		return mcp.NewToolResultText(uri), nil
	}
	return newToolResultError(fmt.Sprintf("unknown export format %q (want csv or datauri)", format)), nil
}

func newToolResultError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: message,
			},
		},
		IsError: true,
	}
}
