// Package module binds physical MODI modules to the property registry, the
// telemetry cache and the shared dispatch queue.
//
// A Module is a handle to one hardware block addressed by its Identity. Reads
// come from its Cache, which only the telemetry path writes. Writes are
// validated against the property Descriptor, encoded into a Command and
// handed to the Sender (normally a *dispatch.Queue[Command]).
//
// # Architecture
//
//	  announce ──▶ Manager.Attach ──▶ Module ◀── Manager.Ingest ◀── telemetry
//	                                   │
//	             Get / GetProperty ◀── Cache
//	                                   │
//	             Set / SetProperty ──▶ Validate ──▶ Encode ──▶ Sender
//
// # Reads never block
//
// GetProperty and Get return whatever the cache holds. A property that has
// never reported is returned with Valid=false. Callers that need a fresh
// value poll with WaitValid or WaitConverged.
//
// # Usage
//
//	mgr := module.NewManager(property.DefaultRegistry(), queue, module.ManagerOptions{})
//	led, err := mgr.Attach(ctx, module.Event{Identity: id, Kind: property.ModuleLED})
//	if err != nil {
//	    return err
//	}
//	if err := led.Set(ctx, "rgb", 255, 0, 0); err != nil {
//	    return err
//	}
package module
