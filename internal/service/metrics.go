package service

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// Placeholder dashboard figures. Only the active ad count is real.
const (
	placeholderListens = 12543
	placeholderCTR     = 8.3
	placeholderRevenue = 2847
)

// Metrics returns the dashboard stat cards for the workspace.
func (s *AdService) Metrics(ctx context.Context, ws *workspace.Workspace) ([]model.Stat, error) {
	ads, err := s.List(ctx, ws)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, ad := range ads {
		if ad.IsActive {
			active++
		}
	}

	p := message.NewPrinter(language.AmericanEnglish)
	return []model.Stat{
		{Title: "Active Ads", Value: p.Sprintf("%d", active), Color: "blue"},
		{Title: "Total Listens", Value: p.Sprintf("%d", placeholderListens), Color: "emerald"},
		{Title: "Click-Through Rate", Value: p.Sprintf("%.1f%%", placeholderCTR), Color: "orange"},
		{Title: "Revenue", Value: p.Sprintf("$%d", placeholderRevenue), Color: "purple"},
	}, nil
}
