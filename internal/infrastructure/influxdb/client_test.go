package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/novaprops-core/internal/infrastructure/config"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	query  []string
}

func (f *fakeInflux) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		f.query = append(f.query, r.URL.RawQuery)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "novaprops",
		Bucket:        "actuation",
		BatchSize:     100,
		FlushInterval: 60,
	}
}

func fieldMap(p *write.Point) map[string]any {
	out := make(map[string]any)
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagMap(p *write.Point) map[string]string {
	out := make(map[string]string)
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

func TestActuationPoint(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		kind       string
		payload    map[string]any
		wantTags   map[string]string
		wantFields map[string]any
	}{
		{
			name:       "dc",
			kind:       "dc",
			payload:    map[string]any{"name": "dc-1", "value": -1200, "direction": "rev"},
			wantTags:   map[string]string{"kind": "dc", "subdevice": "dc-1"},
			wantFields: map[string]any{"value": int64(-1200), "direction": "rev"},
		},
		{
			name:       "stepper",
			kind:       "stepper",
			payload:    map[string]any{"name": "pan", "targetDegrees": 180.003},
			wantTags:   map[string]string{"kind": "stepper", "subdevice": "pan"},
			wantFields: map[string]any{"targetDegrees": 180.003},
		},
		{
			name:       "pixels",
			kind:       "pixels",
			payload:    map[string]any{"name": "ring", "rgb": []int{1, 2, 3}, "count": 30},
			wantTags:   map[string]string{"kind": "pixels", "subdevice": "ring"},
			wantFields: map[string]any{"red": int64(1), "green": int64(2), "blue": int64(3), "count": int64(30)},
		},
		{
			name:       "relay",
			kind:       "relay",
			payload:    map[string]any{"name": "smoke", "on": true},
			wantTags:   map[string]string{"kind": "relay", "subdevice": "smoke"},
			wantFields: map[string]any{"on": true},
		},
		{
			name:       "name only",
			kind:       "custom",
			payload:    map[string]any{"name": "x"},
			wantTags:   map[string]string{"kind": "custom", "subdevice": "x"},
			wantFields: map[string]any{"count": int64(1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ActuationPoint(tt.kind, tt.payload, ts)
			if p.Name() != MeasurementActuation {
				t.Errorf("Name() = %q", p.Name())
			}
			if !p.Time().Equal(ts) {
				t.Errorf("Time() = %v", p.Time())
			}
			tags := tagMap(p)
			for k, v := range tt.wantTags {
				if tags[k] != v {
					t.Errorf("tag %s = %q, want %q", k, tags[k], v)
				}
			}
			fields := fieldMap(p)
			if len(fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", fields, tt.wantFields)
			}
			for k, v := range tt.wantFields {
				if fields[k] != v {
					t.Errorf("field %s = %v (%T), want %v (%T)", k, fields[k], fields[k], v, v)
				}
			}
		})
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := Connect(testConfig(srv.URL)); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_WriteAndFlush(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.WriteActuation("relay", map[string]any{"name": "smoke", "on": true}, time.Now())
	client.WriteFrameStats(12, 3, true)
	client.Flush()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(fake.body(), "frames") {
		time.Sleep(20 * time.Millisecond)
	}

	body := fake.body()
	for _, want := range []string{
		"actuation,kind=relay,subdevice=smoke on=",
		"frames ",
		"last_universe=3i",
		"packets=12i",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("write body = %q, missing %q", body, want)
		}
	}
	fake.mu.Lock()
	query := strings.Join(fake.query, "&")
	fake.mu.Unlock()
	if !strings.Contains(query, "bucket=actuation") || !strings.Contains(query, "org=novaprops") {
		t.Errorf("write query = %q", query)
	}
}

func TestClient_AfterClose(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	// No-ops after close.
	client.WriteActuation("led", map[string]any{"on": true}, time.Now())
	client.Flush()
}

func TestClose_NeverConnected(t *testing.T) {
	var c Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
