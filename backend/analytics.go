package backend

import (
	"context"

	"github.com/ortelius/sbom-finder-dashboard/model"
)

// Analytics fetches one pre-aggregated series (GET /api/analytics/{series}) into out
func (c *Client) Analytics(ctx context.Context, series model.Series, out any) error {
	return c.getJSON(ctx, "/api/analytics/"+string(series), nil, out)
}
