package module

import "errors"

// Domain errors for the module package.
//
//	if errors.Is(err, module.ErrModuleNotFound) {
//	    // module was never announced or has detached
//	}
var (
	// ErrModuleNotFound is returned when no module is bound to an ID.
	ErrModuleNotFound = errors.New("module: not found")

	// ErrModuleExists is returned when an ID is already bound to a module
	// with a different UUID.
	ErrModuleExists = errors.New("module: already exists")

	// ErrInvalidIdentity is returned for identities without a UUID.
	ErrInvalidIdentity = errors.New("module: invalid identity")

	// ErrUnknownModuleKind is returned when attaching a kind the registry
	// has no property table for.
	ErrUnknownModuleKind = errors.New("module: unknown module kind")

	// ErrNoColor is returned by TurnOn and TurnOff on modules whose kind
	// declares no rgb property.
	ErrNoColor = errors.New("module: kind has no rgb property")
)
