package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) planOverview(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	settings, err := h.ds.Settings(ctx)
	if err != nil {
		return nil, err
	}

	countdown, err := h.ds.Countdown(ctx, "")
	if err != nil {
		h.log.Warn("plan overview: countdown failed", "error", err)
	}

	phases, err := h.ds.Phases(ctx, "")
	if err != nil {
		h.log.Warn("plan overview: phases failed", "error", err)
	}

	overview := map[string]any{
		"settings":  settings,
		"countdown": countdown,
		"phases":    phases.Phases,
	}

	data, err := json.Marshal(overview)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
