package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
)

// Stats prints the table, reservation and queue summaries of the service.
func Stats(ctx context.Context, config *apt.Config, logger apt.Logger, out io.Writer) error {
	client := newClient(config)

	reservationsPath := "/reservations/stats"
	if date := config.GetStringOrDef("date", ""); date != "" {
		reservationsPath += "?date=" + date
	}

	sections := []struct {
		name string
		path string
	}{
		{"tables", "/tables/stats"},
		{"reservations", reservationsPath},
		{"queue", "/queue/stats"},
	}

	report := make(map[string]any, len(sections))
	for _, s := range sections {
		resp, err := client.Request(ctx, http.MethodGet, s.path, nil)
		if err != nil {
			return fmt.Errorf("fetch %s stats: %w", s.name, err)
		}
		report[s.name] = resp.Data
	}

	logger.Debug("Stats fetched", "sections", len(report))
	return printJSON(out, report)
}
