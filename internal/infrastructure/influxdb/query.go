package influxdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidQuery is returned for a history request that cannot be run.
var ErrInvalidQuery = errors.New("influxdb: invalid history query")

// HistoryPoint is one recorded value of one property.
type HistoryPoint struct {
	Time     time.Time `json:"time"`
	Property string    `json:"property"`
	Field    string    `json:"field"`
	Value    float64   `json:"value"`
}

// History returns the recorded values of the named properties of one
// module between start and end, oldest first.
//
// Only properties that telemetry reports are stored, so a composite is
// read by passing its component names.
func (c *Client) History(ctx context.Context, moduleID uint16, properties []string, start, end time.Time) ([]HistoryPoint, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if len(properties) == 0 {
		return nil, fmt.Errorf("%w: no properties", ErrInvalidQuery)
	}
	for _, p := range properties {
		if !validName(p) {
			return nil, fmt.Errorf("%w: property name %q", ErrInvalidQuery, p)
		}
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidQuery)
	}

	query := historyQuery(c.bucket, moduleID, properties, start, end)
	result, err := c.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer result.Close()

	var points []HistoryPoint
	for result.Next() {
		rec := result.Record()
		v, ok := rec.Value().(float64)
		if !ok {
			continue
		}
		prop, _ := rec.ValueByKey("property").(string)
		points = append(points, HistoryPoint{Time: rec.Time(), Property: prop, Field: rec.Field(), Value: v})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return points, nil
}

func historyQuery(bucket string, moduleID uint16, properties []string, start, end time.Time) string {
	match := make([]string, len(properties))
	for i, p := range properties {
		match[i] = "r.property == " + strconv.Quote(p)
	}

	return fmt.Sprintf(`from(bucket: %s)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %s and r.module_id == %s and (%s))
  |> keep(columns: ["_time", "_field", "_value", "property"])
  |> group()
  |> sort(columns: ["_time", "property"])`,
		strconv.Quote(bucket),
		start.UTC().Format(time.RFC3339Nano),
		end.UTC().Format(time.RFC3339Nano),
		strconv.Quote(Measurement),
		strconv.Quote(strconv.FormatUint(uint64(moduleID), 10)),
		strings.Join(match, " or "),
	)
}

// validName accepts property names as the registry defines them.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
