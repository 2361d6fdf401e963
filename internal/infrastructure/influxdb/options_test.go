package influxdb

import (
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/modi-core/internal/infrastructure/config"
)

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		wantBatch uint
		wantFlush uint
	}{
		{name: "configured", cfg: config.InfluxDBConfig{BatchSize: 500, FlushInterval: 2}, wantBatch: 500, wantFlush: 2000},
		{name: "defaults", cfg: config.InfluxDBConfig{BatchSize: -1}, wantBatch: 100, wantFlush: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(tt.cfg)
			if opts.BatchSize() != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", opts.BatchSize(), tt.wantBatch)
			}
			if opts.FlushInterval() != tt.wantFlush {
				t.Errorf("FlushInterval() = %d ms, want %d", opts.FlushInterval(), tt.wantFlush)
			}
			if opts.Precision() != time.Millisecond {
				t.Errorf("Precision() = %v, want 1ms", opts.Precision())
			}
			if opts.HTTPRequestTimeout() != requestTimeoutSeconds {
				t.Errorf("HTTPRequestTimeout() = %d", opts.HTTPRequestTimeout())
			}
		})
	}
}

func TestHistoryQuery(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		properties []string
		want       string
	}{
		{name: "single", properties: []string{"clicked"}, want: `and (r.property == "clicked"))`},
		{
			name:       "components",
			properties: []string{"red", "green", "blue"},
			want:       `and (r.property == "red" or r.property == "green" or r.property == "blue"))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := historyQuery("telemetry", 7, tt.properties, start, start.Add(time.Hour))
			for _, want := range []string{
				`from(bucket: "telemetry")`,
				`range(start: 2026-01-01T00:00:00Z, stop: 2026-01-01T01:00:00Z)`,
				`r.module_id == "7"`,
				`"property"]`,
				tt.want,
			} {
				if !strings.Contains(q, want) {
					t.Errorf("query missing %s:\n%s", want, q)
				}
			}
		})
	}
}
