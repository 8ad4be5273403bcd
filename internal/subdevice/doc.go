// Package subdevice provides the actuator configuration model and the
// Subdevice Registry for Nova Props Core.
//
// A controller drives up to MaxSubdevices actuators. Each one is described
// by a Config: an enabled flag, a display name, a Type tag, a DMX Mapping and
// one runtime-parameter block per actuator family. All five blocks are always
// stored and persisted; Type alone decides which one is consulted.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                      Subdevice Registry                      │
//	│                                                              │
//	│  ┌──────────────────┐   ┌──────────────────┐   ┌──────────┐  │
//	│  │     Registry     │   │    FileStore     │   │  sanity  │  │
//	│  │  (registry.go)   │──▶│    (store.go)    │──▶│ (sanity) │  │
//	│  │ • add/update/del │   │ • JSON document  │   │ • clamps │  │
//	│  │ • RWMutex        │   │ • key coercion   │   │ • swaps  │  │
//	│  └──────────────────┘   └──────────────────┘   └──────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// # Persistence
//
// The whole AppConfig is written after every successful mutation. A mutation
// is applied to a copy and only becomes visible once Save has succeeded.
//
// # Usage
//
//	store := subdevice.NewFileStore("/var/lib/novaprops/config.json")
//	reg, err := subdevice.NewRegistry(store)
//	if err != nil {
//	    return err
//	}
//	if err := reg.Add(subdevice.TypeRelay, ""); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Readers receive deep copies.
package subdevice
