package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/novaprops-core/internal/audit"
	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// subdeviceView is one list entry with its position and slot footprint.
type subdeviceView struct {
	Index int `json:"index"`
	subdevice.Config
	TypeName  string `json:"typeName"`
	SlotWidth int    `json:"slotWidth"`
}

func viewOf(index int, c subdevice.Config) subdeviceView {
	return subdeviceView{Index: index, Config: c, TypeName: c.Type.DisplayName(), SlotWidth: c.SlotWidth()}
}

type addSubdeviceRequest struct {
	Type subdevice.Type `json:"type"`
	Name string         `json:"name"`
}

// updateSubdeviceRequest is a partial update. Omitted fields keep their
// stored values. Map and params merge key by key onto the stored mapping and
// onto the runtime block of the resulting type.
type updateSubdeviceRequest struct {
	Enabled *bool           `json:"enabled"`
	Name    *string         `json:"name"`
	Type    *subdevice.Type `json:"type"`
	Map     json.RawMessage `json:"map"`
	Params  json.RawMessage `json:"params"`
}

// apply builds the full replacement for current. It runs inside the
// registry's write section.
func (req updateSubdeviceRequest) apply(current subdevice.Config) (subdevice.UpdateRequest, error) {
	out := subdevice.UpdateRequest{
		Enabled: current.Enabled,
		Name:    current.Name,
		Type:    current.Type,
		Map:     current.Map,
	}
	if req.Enabled != nil {
		out.Enabled = *req.Enabled
	}
	if req.Name != nil {
		out.Name = *req.Name
	}
	if req.Type != nil {
		out.Type = *req.Type
	}
	if present(req.Map) {
		if err := json.Unmarshal(req.Map, &out.Map); err != nil {
			return out, fmt.Errorf("%w: map: %w", errInvalidBody, err)
		}
	}
	if present(req.Params) {
		params, err := mergeParams(current, out.Type, req.Params)
		if err != nil {
			return out, err
		}
		out.Params = params
	}
	return out, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func (s *Server) listView() map[string]any {
	list := s.registry.List()
	views := make([]subdeviceView, len(list))
	for i, c := range list {
		views[i] = viewOf(i, c)
	}
	return map[string]any{
		"subdevices": views,
		"count":      len(views),
		"max":        subdevice.MaxSubdevices,
	}
}

func (s *Server) handleListSubdevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.listView())
}

type typeView struct {
	Type      int    `json:"type"`
	Name      string `json:"name"`
	SlotWidth int    `json:"slotWidth"`
}

// handleListTypes lists the subdevice kinds the controller can drive and
// how many DMX slots each one reads.
func (s *Server) handleListTypes(w http.ResponseWriter, _ *http.Request) {
	all := subdevice.AllTypes()
	types := make([]typeView, 0, len(all))
	for _, t := range all {
		types = append(types, typeView{Type: int(t), Name: t.DisplayName(), SlotWidth: t.SlotWidth()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": types})
}

func (s *Server) handleAddSubdevice(w http.ResponseWriter, r *http.Request) {
	var req addSubdeviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	index, added, err := s.registry.Append(req.Type, req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.recordChange(r, audit.ActionAdd, audit.TargetSubdevice, strconv.Itoa(index),
		map[string]any{"name": added.Name, "type": int(added.Type)})
	writeJSON(w, http.StatusCreated, s.listView())
}

func (s *Server) handleGetSubdevice(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	c, err := s.registry.Get(index)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(index, c))
}

func (s *Server) handleUpdateSubdevice(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req updateSubdeviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	c, err := s.registry.UpdateWith(index, req.apply)
	if errors.Is(err, errInvalidBody) {
		writeBadRequest(w, err.Error())
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.recordChange(r, audit.ActionUpdate, audit.TargetSubdevice, strconv.Itoa(index), map[string]any{
		"name":      c.Name,
		"type":      int(c.Type),
		"enabled":   c.Enabled,
		"universe":  c.Map.Universe,
		"startAddr": c.Map.StartAddr,
		"params":    present(req.Params),
	})
	writeJSON(w, http.StatusOK, viewOf(index, c))
}

// mergeParams overlays raw onto the stored block for t.
func mergeParams(current subdevice.Config, t subdevice.Type, raw json.RawMessage) (subdevice.Params, error) {
	current.Type = t
	var err error
	switch p := current.Params().(type) {
	case subdevice.StepperParams:
		err = json.Unmarshal(raw, &p)
		return p, wrapParamsErr(err)
	case subdevice.DCMotorParams:
		err = json.Unmarshal(raw, &p)
		return p, wrapParamsErr(err)
	case subdevice.RelayParams:
		err = json.Unmarshal(raw, &p)
		return p, wrapParamsErr(err)
	case subdevice.LEDParams:
		err = json.Unmarshal(raw, &p)
		return p, wrapParamsErr(err)
	case subdevice.PixelParams:
		err = json.Unmarshal(raw, &p)
		return p, wrapParamsErr(err)
	default:
		return nil, fmt.Errorf("%w: %d", subdevice.ErrInvalidType, int(t))
	}
}

// errInvalidBody marks request fields that decode but do not fit the target.
var errInvalidBody = errors.New("invalid request body")

func wrapParamsErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: params: %w", errInvalidBody, err)
}

func (s *Server) handleDeleteSubdevice(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	removed, err := s.registry.Remove(index)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.recordChange(r, audit.ActionDelete, audit.TargetSubdevice, strconv.Itoa(index),
		map[string]any{"name": removed.Name, "type": int(removed.Type)})
	writeJSON(w, http.StatusOK, s.listView())
}

func (s *Server) handleTestSubdevice(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	msg, err := s.engine.RunTest(index)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

// indexParam parses the {index} URL parameter, writing a 400 on failure.
func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		writeBadRequest(w, "index must be a non-negative integer")
		return 0, false
	}
	return index, true
}
