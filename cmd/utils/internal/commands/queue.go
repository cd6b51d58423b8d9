package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/seating/internal/seating"
)

type reapResult struct {
	Removed []seating.QueueEntry `json:"removed"`
	Count   int                  `json:"count"`
}

// ReapStale asks the service to drop called parties that never confirmed.
// An empty timeout leaves the service default in place.
func ReapStale(ctx context.Context, config *apt.Config, logger apt.Logger, out io.Writer) error {
	path := "/queue/reap-stale"
	if raw := config.GetStringOrDef("timeout", ""); raw != "" {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", raw, err)
		}
		path += "?timeout=" + url.QueryEscape(raw)
	}

	resp, err := newClient(config).Request(ctx, http.MethodPost, path, nil)
	if err != nil {
		return fmt.Errorf("reap stale parties: %w", err)
	}
	result, err := decodeData[reapResult](resp)
	if err != nil {
		return err
	}

	for _, e := range result.Removed {
		fmt.Fprintf(out, "removed #%d %s (party of %d)\n", e.ID, e.Name, e.PartySize)
	}
	logger.Info("Stale parties removed", "count", result.Count)
	return nil
}

// CallNext calls the earliest waiting party.
func CallNext(ctx context.Context, config *apt.Config, logger apt.Logger, out io.Writer) error {
	resp, err := newClient(config).Request(ctx, http.MethodPost, "/queue/call-next", nil)
	if hasStatus(err, http.StatusNotFound) {
		fmt.Fprintln(out, "no parties are waiting")
		return nil
	}
	if err != nil {
		return fmt.Errorf("call next party: %w", err)
	}

	entry, err := decodeData[seating.QueueEntry](resp)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "called #%d %s (party of %d, phone %s)\n", entry.ID, entry.Name, entry.PartySize, entry.Phone)
	logger.Debug("Party called", "entry_id", formatID(entry.ID))
	return nil
}
