package notify

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestChannelFilter(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{name: "none", values: nil, want: nil},
		{name: "single", values: []string{"queue"}, want: []string{"queue"}},
		{name: "commaSeparated", values: []string{"queue, tables"}, want: []string{"queue", "tables"}},
		{name: "repeated", values: []string{"queue", "reservations", ""}, want: []string{"queue", "reservations"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := channelFilter(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("channelFilter() = %v, want %v", got, tt.want)
			}
			for _, c := range tt.want {
				if !got[c] {
					t.Errorf("channelFilter() missing %q", c)
				}
			}
		})
	}
}

func TestSSEHandlerStreamsFilteredEvents(t *testing.T) {
	broadcaster := NewBroadcaster(nil)
	handler := NewSSEHandler(broadcaster, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()
	defer broadcaster.Stop(context.Background())

	resp, err := http.Get(srv.URL + "/events/stream?channel=queue")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	reader := bufio.NewReader(resp.Body)
	readLine := func() string {
		t.Helper()
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		return strings.TrimRight(line, "\n")
	}

	// The preamble is written after the subscription is registered.
	for _, want := range []string{": connected", "", "retry: 2000", ""} {
		if got := readLine(); got != want {
			t.Fatalf("preamble line = %q, want %q", got, want)
		}
	}

	ctx := context.Background()
	broadcaster.Publish(ctx, "seating.tables", []byte(`{"type":"table.created"}`))
	broadcaster.Publish(ctx, "seating.queue", []byte(`{"type":"queue.party_joined"}`))

	if got := readLine(); got != "event: queue" {
		t.Fatalf("event line = %q, want event: queue", got)
	}
	if got := readLine(); got != `data: {"type":"queue.party_joined"}` {
		t.Errorf("data line = %q", got)
	}
}
