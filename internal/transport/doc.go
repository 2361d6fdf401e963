// Package transport connects the dispatch queue and the module manager to
// the MQTT bus.
//
// The Worker is the single consumer of the dispatch queue: it encodes each
// command as a MODI frame and publishes it on modi/command/{id}. The
// Subscriber is the inbound side: it decodes telemetry frames into the
// manager's caches and turns announce messages into Attach/Detach calls.
//
// # Frame format
//
//	{"c": category, "s": source, "d": destination, "b": base64(data), "l": len(data)}
//
// Set-property commands use category 0x04 with s = command number and
// d = module id; each payload component is a little-endian uint16.
// Property telemetry uses category 0x1F with s = module id and
// d = property number; each component is a little-endian float32.
package transport
