package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/modi-core/internal/property"
)

// Record is one module as remembered by the inventory.
type Record struct {
	UUID       uuid.UUID           `json:"uuid"`
	BusID      uint16              `json:"bus_id"`
	Kind       property.ModuleKind `json:"kind"`
	FirstSeen  time.Time           `json:"first_seen"`
	LastSeen   time.Time           `json:"last_seen"`
	Connected  bool                `json:"connected"`
	Reconnects int                 `json:"reconnects"`
}
