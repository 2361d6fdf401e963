package module

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity addresses one physical module.
//
// ID is the bus address used in command and telemetry frames. It can change
// when a module reconnects; UUID is stable for the hardware.
type Identity struct {
	ID   uint16    `json:"id"`
	UUID uuid.UUID `json:"uuid"`
}

// ParseIdentity builds an Identity from a bus ID and a textual UUID.
func ParseIdentity(id uint16, raw string) (Identity, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	ident := Identity{ID: id, UUID: u}
	if err := ident.Validate(); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

// Validate rejects identities with a nil UUID.
func (i Identity) Validate() error {
	if i.UUID == uuid.Nil {
		return fmt.Errorf("%w: uuid is required", ErrInvalidIdentity)
	}
	return nil
}

func (i Identity) String() string {
	return fmt.Sprintf("%d/%s", i.ID, i.UUID)
}
