// Package influxdb records module property history in InfluxDB.
//
// Every telemetry sample accepted by the module manager becomes one
// module_property point tagged with the module and property it came from.
// Writes use the non-blocking batched write API of influxdb-client-go, so
// recording never slows the telemetry path. Batch size and flush interval
// come from the influxdb section of the configuration.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	manager := module.NewManager(registry, queue, module.ManagerOptions{Recorder: client})
package influxdb
