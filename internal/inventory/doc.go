// Package inventory persists every module announced on the bus.
//
// Each module UUID has one row recording its current bus ID, kind, when it
// was first and last seen, and whether it is connected. A UUID that comes
// back under a different bus ID is a reconnect: the row is updated in place,
// the reconnect counter incremented and the move logged.
//
// SQLiteRepository implements module.Inventory so the module manager can
// record attachments and detachments directly.
package inventory
