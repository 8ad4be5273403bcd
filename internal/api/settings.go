package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nerrad567/novaprops-core/internal/audit"
	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// settingsView hides the Wi-Fi password.
type settingsView struct {
	SSID          string             `json:"ssid"`
	PasswordSet   bool               `json:"passwordSet"`
	UseStatic     bool               `json:"useStatic"`
	IP            string             `json:"ip"`
	Gateway       string             `json:"gw"`
	Mask          string             `json:"mask"`
	SACNMode      subdevice.SACNMode `json:"sacnMode"`
	SACNBufferMs  int                `json:"sacnBufferMs"`
	LossMode      subdevice.LossMode `json:"lossMode"`
	LossTimeoutMs int                `json:"lossTimeoutMs"`
}

func viewSettings(st subdevice.Settings) settingsView {
	return settingsView{
		SSID:          st.SSID,
		PasswordSet:   st.Password != "",
		UseStatic:     st.UseStatic,
		IP:            st.IP,
		Gateway:       st.Gateway,
		Mask:          st.Mask,
		SACNMode:      st.SACNMode,
		SACNBufferMs:  st.SACNBufferMs,
		LossMode:      st.LossMode,
		LossTimeoutMs: st.LossTimeoutMs,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewSettings(s.registry.Settings()))
}

// handleUpdateSettings overlays the body onto the stored settings, so
// omitted fields (including password) keep their values. The overlay runs
// inside the registry's write section.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if err := decodeBody(r, &patch); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	updated, err := s.registry.UpdateSettingsWith(func(current subdevice.Settings) (subdevice.Settings, error) {
		if err := json.Unmarshal(patch, &current); err != nil {
			return current, fmt.Errorf("%w: %w", errInvalidBody, err)
		}
		return current, nil
	})
	if errors.Is(err, errInvalidBody) {
		writeBadRequest(w, err.Error())
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	view := viewSettings(updated)
	s.recordChange(r, audit.ActionSettings, audit.TargetSettings, "", map[string]any{
		"ssid":      view.SSID,
		"useStatic": view.UseStatic,
		"sacnMode":  int(view.SACNMode),
		"lossMode":  int(view.LossMode),
	})
	writeJSON(w, http.StatusOK, view)
}
