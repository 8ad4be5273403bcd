// Package mqtt provides MQTT connectivity for Nova Props Core.
//
// The controller uses the broker in two directions:
//
//	Probe ──▶ {prefix}/probe/{kind}        every actuation event, as JSON
//	Engine ◀── {prefix}/command/frame      frames from a show controller
//
// A retained {prefix}/system/status message reports online/offline, with a
// Last Will covering crashes.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().ProbeEvent("dc")
//	err = client.PublishJSON(topic, ev, false)
//
// Use TLS (broker.tls) and credentials outside a bench setup.
package mqtt
