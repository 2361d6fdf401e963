// Package mqtt provides the MQTT client used as the MODI bus transport.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees
//   - Wildcard subscriptions restored after reconnect
//   - Last Will and Testament on modi/core/status
//
// # Topics
//
//	modi/command/{id}     core → module   set-property frames
//	modi/telemetry/{id}   module → core   property value frames
//	modi/module/{id}      module → core   announce / withdraw events
//	modi/core/status      core            retained Status JSON
//
// Published topics are checked for wildcards; subscription filters for
// well-formed + and # levels.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllTelemetry(), 1, handler)
package mqtt
