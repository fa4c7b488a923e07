package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contentnode/internal/domain"
	"contentnode/internal/event"
)

func TestParseTypes(t *testing.T) {
	tests := []struct {
		query   string
		want    []domain.ObjectType
		wantErr bool
	}{
		{"", nil, false},
		{"page", []domain.ObjectType{domain.TypePage}, false},
		{"page, folder", []domain.ObjectType{domain.TypePage, domain.TypeFolder}, false},
		{"page,unknown", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := parseTypes(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for _, typ := range tt.want {
				if !got[typ] {
					t.Errorf("expected %s in %v", typ, got)
				}
			}
		})
	}
}

func TestHubStreamsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(nil)
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	defer srv.Close()

	reqCtx, reqCancel := context.WithTimeout(ctx, 5*time.Second)
	defer reqCancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"?type=page", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": connected" {
		t.Fatalf("expected connected comment, got %q", lines.Text())
	}

	events := make(chan event.ObjectEvent, 2)
	go h.Listen(ctx, events)
	events <- event.ObjectEvent{Action: event.ActionUpdate, Type: domain.TypeFolder, ID: 1}
	events <- event.ObjectEvent{Action: event.ActionUpdate, Type: domain.TypePage, ID: 2}

	var name, data string
	for lines.Scan() {
		line := lines.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if data != "" {
			break
		}
	}

	if name != "page.update" {
		t.Errorf("expected only the page event, got %q", name)
	}
	var ev event.ObjectEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("invalid event payload %q: %v", data, err)
	}
	if ev.ID != 2 {
		t.Errorf("expected page 2, got %+v", ev)
	}
	if h.ClientCount() != 1 {
		t.Errorf("expected one client, got %d", h.ClientCount())
	}
}

func TestServeHTTPRejectsUnknownType(t *testing.T) {
	h := New(nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?type=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
