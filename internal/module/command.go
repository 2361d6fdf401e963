package module

import (
	"slices"

	"github.com/nerrad567/modi-core/internal/property"
)

// Command is an addressed set-property instruction waiting for the bus.
type Command struct {
	Destination uint16               `json:"destination"`
	Kind        property.CommandKind `json:"kind"`
	Payload     []float64            `json:"payload"`
}

// Encode builds the command for an already validated value.
// The payload is copied.
func Encode(id Identity, d property.Descriptor, validated []float64) Command {
	return Command{
		Destination: id.ID,
		Kind:        d.Command,
		Payload:     slices.Clone(validated),
	}
}
