// Package api provides the HTTP REST API and WebSocket stream for Nova Props
// Core.
//
// The REST surface edits the subdevice list and controller settings, accepts
// DMX frames, triggers test actions and exposes the probe event log and the
// configuration audit trail. The WebSocket endpoint streams probe events live
// on the "probe.event" channel.
//
// # Lifecycle
//
//	srv, err := api.New(deps)
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Close()
//
// # Errors
//
// Every error response has the shape {"status":..., "code":..., "message":...}.
// Domain errors map to status codes in writeDomainError.
package api
