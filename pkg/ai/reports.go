package ai

import (
	"context"
	"time"

	"metitejidos.com.ar/storefront/pkg/models"
)

// InsightsReport is the admin sales overview, with AI commentary when
// available.
type InsightsReport struct {
	Stats       *models.OrderStats    `json:"stats"`
	TopProducts []models.ProductSales `json:"topProducts"`
	AIInsights  string                `json:"aiInsights,omitempty"`
	AIEnabled   bool                  `json:"aiEnabled"`
	Summary     string                `json:"summary"`
	Error       string                `json:"error,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// SalesInsights never fails: a disabled or failing model yields the raw
// figures with an explanatory summary.
func (c *Client) SalesInsights(ctx context.Context, stats *models.OrderStats, top []models.ProductSales) *InsightsReport {
	if top == nil {
		top = []models.ProductSales{}
	}
	report := &InsightsReport{
		Stats:       stats,
		TopProducts: top,
		AIEnabled:   c.Enabled(),
		GeneratedAt: time.Now().UTC(),
	}

	if !c.Enabled() {
		report.Summary = "Raw sales data (AI insights unavailable)"
		return report
	}

	insights, err := c.complete(ctx, SalesInsightsSystemPrompt, formatSalesPrompt(stats, top, c.unit))
	if err != nil {
		report.Summary = "Raw sales data (AI analysis failed)"
		report.Error = err.Error()
		return report
	}

	report.AIInsights = insights
	report.Summary = "AI-generated sales insights and recommendations"
	return report
}
