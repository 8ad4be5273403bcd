package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/novaprops-core/internal/actuation"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/mqtt"
)

// framePayload is the JSON body accepted on the frame command topic.
type framePayload struct {
	Universe int            `json:"universe"`
	Slots    map[string]any `json:"slots"`
}

// frameCommandHandler applies frames received over MQTT. Invalid payloads
// are returned as errors for the client to log.
func frameCommandHandler(engine *actuation.Engine) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()

		var msg framePayload
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("decoding frame: %w", err)
		}
		if err := actuation.ValidateUniverse(msg.Universe); err != nil {
			return err
		}
		slots, err := actuation.ParseSlots(msg.Slots)
		if err != nil {
			return err
		}
		engine.ApplyFrame(msg.Universe, slots)
		return nil
	}
}
