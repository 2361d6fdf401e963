package influxdb

import (
	"fmt"
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/modi-core/internal/module"
)

// Measurement is the InfluxDB measurement holding property history.
const Measurement = "module_property"

// Record queues one telemetry sample. It never blocks and drops the sample
// when the client is closed. *Client satisfies module.Recorder.
func (c *Client) Record(s module.Sample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(SamplePoint(s))
}

// SamplePoint converts a sample to a module_property point.
//
// The point is tagged with the module's bus ID, UUID and kind and the
// property name. Telemetry only carries properties with a wire kind, never
// composites. A single value is the "value" field, and a multi-valued
// property gets value_0, value_1 and so on.
func SamplePoint(s module.Sample) *write.Point {
	tags := map[string]string{
		"module_id":   strconv.FormatUint(uint64(s.Identity.ID), 10),
		"module_uuid": s.Identity.UUID.String(),
		"module_kind": string(s.Module),
		"property":    s.Property.Name,
	}

	fields := make(map[string]any, len(s.Values))
	for i, v := range s.Values {
		fields[fieldName(s, i)] = v
	}

	return write.NewPoint(Measurement, tags, fields, s.At)
}

func fieldName(s module.Sample, i int) string {
	if len(s.Values) == 1 {
		return "value"
	}
	return fmt.Sprintf("value_%d", i)
}

var _ module.Recorder = (*Client)(nil)
