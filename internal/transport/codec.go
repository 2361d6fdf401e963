package transport

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/nerrad567/modi-core/internal/module"
	"github.com/nerrad567/modi-core/internal/property"
)

// Frame categories.
const (
	CategorySetProperty uint16 = 0x04
	CategoryProperty    uint16 = 0x1F
)

// Frame is the JSON envelope exchanged with modules.
type Frame struct {
	Category    uint16 `json:"c"`
	Source      uint16 `json:"s"`
	Destination uint16 `json:"d"`
	Data        string `json:"b"`
	Length      int    `json:"l"`
}

// ParseFrame decodes the JSON envelope and checks the data length.
func ParseFrame(raw []byte) (Frame, []byte, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	data, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return Frame{}, nil, fmt.Errorf("%w: data: %w", ErrMalformedFrame, err)
	}
	if len(data) != f.Length {
		return Frame{}, nil, fmt.Errorf("%w: length %d, data has %d bytes", ErrMalformedFrame, f.Length, len(data))
	}
	return f, data, nil
}

func marshalFrame(category, source, destination uint16, data []byte) ([]byte, error) {
	return json.Marshal(Frame{
		Category:    category,
		Source:      source,
		Destination: destination,
		Data:        base64.StdEncoding.EncodeToString(data),
		Length:      len(data),
	})
}

// EncodeCommand renders a command as a set-property frame.
// Components are rounded to the nearest integer.
func EncodeCommand(cmd module.Command) ([]byte, error) {
	data := make([]byte, 2*len(cmd.Payload))
	for i, v := range cmd.Payload {
		r := math.Round(v)
		if math.IsNaN(r) || r < 0 || r > math.MaxUint16 {
			return nil, fmt.Errorf("%w: component %d is %g", ErrPayloadRange, i, v)
		}
		binary.LittleEndian.PutUint16(data[2*i:], uint16(r))
	}
	return marshalFrame(CategorySetProperty, uint16(cmd.Kind), cmd.Destination, data)
}

// DecodeCommand parses a set-property frame.
func DecodeCommand(raw []byte) (module.Command, error) {
	f, data, err := ParseFrame(raw)
	if err != nil {
		return module.Command{}, err
	}
	if f.Category != CategorySetProperty {
		return module.Command{}, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrUnexpectedCategory, f.Category, CategorySetProperty)
	}
	if len(data)%2 != 0 {
		return module.Command{}, fmt.Errorf("%w: %d bytes is not a whole number of uint16", ErrMalformedFrame, len(data))
	}

	payload := make([]float64, len(data)/2)
	for i := range payload {
		payload[i] = float64(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return module.Command{
		Destination: f.Destination,
		Kind:        property.CommandKind(f.Source),
		Payload:     payload,
	}, nil
}

// EncodeTelemetry renders property values as a telemetry frame, the way a
// module reports them.
func EncodeTelemetry(source uint16, kind property.Kind, values []float64) ([]byte, error) {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(float32(v)))
	}
	return marshalFrame(CategoryProperty, source, uint16(kind), data)
}

// DecodeTelemetry parses a telemetry frame. The sample carries no
// timestamp; the caller stamps it on arrival.
func DecodeTelemetry(raw []byte) (module.Telemetry, error) {
	f, data, err := ParseFrame(raw)
	if err != nil {
		return module.Telemetry{}, err
	}
	if f.Category != CategoryProperty {
		return module.Telemetry{}, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrUnexpectedCategory, f.Category, CategoryProperty)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return module.Telemetry{}, fmt.Errorf("%w: %d bytes is not a whole number of float32", ErrMalformedFrame, len(data))
	}

	values := make([]float64, len(data)/4)
	for i := range values {
		values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])))
	}
	return module.Telemetry{
		Destination: f.Source,
		Property:    property.Kind(f.Destination),
		Values:      values,
	}, nil
}
