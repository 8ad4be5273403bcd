package api

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

func TestSubdevices_PartialUpdateKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)
	before, err := env.registry.Get(1)
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPut, "/api/v1/subdevices/1", `{"name":"pan"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d body = %s", rec.Code, rec.Body)
	}
	got, _ := env.registry.Get(1) //nolint:errcheck // index 1 exists
	if got.Name != "pan" {
		t.Errorf("Name = %q, want pan", got.Name)
	}
	if !got.Enabled || got.Type != before.Type || got.Map != before.Map || got.Stepper != before.Stepper {
		t.Errorf("omitted fields changed: before %+v, after %+v", before, got)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/subdevices/1", `{"enabled":false,"map":{"startAddr":20}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d body = %s", rec.Code, rec.Body)
	}
	got, _ = env.registry.Get(1) //nolint:errcheck // index 1 exists
	if got.Enabled || got.Map.StartAddr != 20 || got.Map.Universe != before.Map.Universe {
		t.Errorf("after disable and move = %+v", got)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"map of wrong shape", `{"map":{"universe":"two"}}`, http.StatusBadRequest},
		{"params of wrong shape", `{"params":{"stepsPerRev":"many"}}`, http.StatusBadRequest},
		{"type change to unknown", `{"type":8}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, http.MethodPut, "/api/v1/subdevices/1", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// Two clients editing different fields of one subdevice at the same time
// must both see their change stored.
func TestSubdevices_ConcurrentPartialUpdates(t *testing.T) {
	env := newTestEnv(t)

	for round := 0; round < 100; round++ {
		deadband := 100 + round
		maxPWM := 1 + round
		bodies := []string{
			fmt.Sprintf(`{"params":{"deadband":%d}}`, deadband),
			fmt.Sprintf(`{"params":{"maxPwm":%d}}`, maxPWM),
		}

		var wg sync.WaitGroup
		for _, body := range bodies {
			body := body
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rec := env.do(t, http.MethodPut, "/api/v1/subdevices/0", body); rec.Code != http.StatusOK {
					t.Errorf("PUT %s status = %d", body, rec.Code)
				}
			}()
		}
		wg.Wait()

		got, _ := env.registry.Get(0) //nolint:errcheck // index 0 exists
		if got.DC.Deadband != deadband || got.DC.MaxPWM != maxPWM {
			t.Fatalf("round %d: deadband=%d maxPwm=%d, want %d and %d",
				round, got.DC.Deadband, got.DC.MaxPWM, deadband, maxPWM)
		}
	}
}

func TestSettings_ConcurrentPartialUpdates(t *testing.T) {
	env := newTestEnv(t)

	for round := 0; round < 50; round++ {
		ssid := fmt.Sprintf("stage-%d", round)
		buffer := 10 + round
		bodies := []string{
			fmt.Sprintf(`{"ssid":%q}`, ssid),
			fmt.Sprintf(`{"sacnBufferMs":%d}`, buffer),
		}

		var wg sync.WaitGroup
		for _, body := range bodies {
			body := body
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rec := env.do(t, http.MethodPut, "/api/v1/settings", body); rec.Code != http.StatusOK {
					t.Errorf("PUT %s status = %d", body, rec.Code)
				}
			}()
		}
		wg.Wait()

		got := env.registry.Settings()
		if got.SSID != ssid || got.SACNBufferMs != buffer {
			t.Fatalf("round %d: settings = %+v", round, got)
		}
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/settings", `{"ssid":5}`); rec.Code != http.StatusBadRequest {
		t.Errorf("wrong-typed field status = %d, want 400", rec.Code)
	}
	if got := env.registry.Settings().SSID; got != "stage-49" {
		t.Errorf("rejected PUT changed SSID to %q", got)
	}
}

func TestSubdevices_AddAndDeleteAuditNamesEntry(t *testing.T) {
	trail := &memAudit{}
	env := newTestEnv(t, func(d *Deps) { d.Audit = trail })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.do(t, http.MethodPost, "/api/v1/subdevices", fmt.Sprintf(`{"type":2,"name":"relay-%d"}`, i))
		}()
	}
	wg.Wait()

	list := env.registry.List()
	for _, e := range trail.entries {
		var idx int
		if _, err := fmt.Sscanf(e.TargetID, "%d", &idx); err != nil {
			t.Fatalf("TargetID %q: %v", e.TargetID, err)
		}
		if list[idx].Name != e.Details["name"] {
			t.Errorf("audit entry for index %d names %v, registry has %q", idx, e.Details["name"], list[idx].Name)
		}
	}
	if len(trail.entries) != 4 || len(list) != len(subdevice.DefaultSubdevices())+4 {
		t.Errorf("entries = %d, subdevices = %d", len(trail.entries), len(list))
	}
}

func TestSubdevices_ListTypes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/subdevices/types", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	body := decode[struct {
		Types []typeView `json:"types"`
	}](t, rec)

	want := []typeView{
		{Type: 0, Name: "Stepper", SlotWidth: 2},
		{Type: 1, Name: "DC Motor", SlotWidth: 2},
		{Type: 2, Name: "Relay", SlotWidth: 1},
		{Type: 3, Name: "LED", SlotWidth: 1},
		{Type: 4, Name: "Pixel Strip", SlotWidth: 3},
	}
	if len(body.Types) != len(want) {
		t.Fatalf("types = %+v", body.Types)
	}
	for i := range want {
		if body.Types[i] != want[i] {
			t.Errorf("types[%d] = %+v, want %+v", i, body.Types[i], want[i])
		}
	}
}
