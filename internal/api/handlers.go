package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"energy_simulator/internal/action"
	"energy_simulator/internal/model"
	"energy_simulator/internal/solar"
	"energy_simulator/internal/store"
	"energy_simulator/internal/ws"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

// SunPayload is the answer of the sun endpoint. Polar is "day" or "night"
// when the sun does not rise or set on the requested date.
type SunPayload struct {
	Date    string `json:"date"`
	Sunrise string `json:"sunrise,omitempty"`
	Sunset  string `json:"sunset,omitempty"`
	Polar   string `json:"polar,omitempty"`
}

// actionRequest is the body of a device action.
type actionRequest struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.ERROR.Printf("encoding response: %v", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, err error) {
	s.jsonResponse(w, errorStatus(err), errorResponse{Error: err.Error()})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, action.ErrDeviceNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, action.ErrHardwareNotAvailable):
		return http.StatusConflict
	case errors.Is(err, action.ErrUnsupportedAction),
		errors.Is(err, action.ErrInvalidValue),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func deviceID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: device id: %v", errBadRequest, err)
	}
	return id, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, ws.SimStateFromEngine(s.engine.State()))
}

func (s *Server) simCommand(w http.ResponseWriter, r *http.Request) {
	switch mux.Vars(r)["command"] {
	case "start":
		s.engine.Start()
	case "pause":
		s.engine.Pause()
	case "step":
		s.engine.Step()
	}
	s.jsonResponse(w, http.StatusOK, ws.SimStateFromEngine(s.engine.State()))
}

func (s *Server) devices(w http.ResponseWriter, r *http.Request) {
	var class model.Class
	if q := r.URL.Query().Get("class"); q != "" {
		c, err := model.ParseClass(q)
		if err != nil {
			s.jsonError(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		class = c
	}

	s.jsonResponse(w, http.StatusOK, ws.DevicesLoaded(s.store.Devices(class)).Devices)
}

func (s *Server) device(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		s.jsonError(w, err)
		return
	}

	d, ok := s.store.Find(id)
	if !ok {
		s.jsonError(w, fmt.Errorf("%w: %s", store.ErrNotFound, id))
		return
	}

	s.jsonResponse(w, http.StatusOK, ws.DeviceFromModel(d))
}

func (s *Server) addDevice(w http.ResponseWriter, r *http.Request) {
	var desc action.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		s.jsonError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	d, err := desc.Device()
	if err != nil {
		s.jsonError(w, err)
		return
	}
	if err := s.store.Add(d); err != nil {
		s.jsonError(w, err)
		return
	}

	s.log.INFO.Printf("added %s %s (%s)", d.Class(), d.DeviceName(), d.DeviceID())
	s.jsonResponse(w, http.StatusCreated, ws.DeviceFromModel(d))
}

func (s *Server) removeDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		s.jsonError(w, err)
		return
	}

	if err := s.store.Remove(id); err != nil {
		s.jsonError(w, err)
		return
	}

	s.log.INFO.Printf("removed %s", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deviceAction(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		s.jsonError(w, err)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := s.executor.Execute(r.Context(), action.Action{
		DeviceID: id,
		Type:     req.Type,
		Value:    req.Value,
	}); err != nil {
		s.jsonError(w, err)
		return
	}

	d, _ := s.store.Find(id)
	s.jsonResponse(w, http.StatusOK, ws.DeviceFromModel(d))
}

func (s *Server) discovery(w http.ResponseWriter, r *http.Request) {
	class, err := model.ParseClass(mux.Vars(r)["class"])
	if err != nil {
		s.jsonError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	res, err := action.Discover(class, s.opts.DiscoveryCount)
	if err != nil {
		s.jsonError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) sun(w http.ResponseWriter, r *http.Request) {
	date := time.Now().In(s.opts.Location)
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := time.ParseInLocation(time.DateOnly, q, s.opts.Location)
		if err != nil {
			s.jsonError(w, fmt.Errorf("%w: date: %v", errBadRequest, err))
			return
		}
		date = d.Add(12 * time.Hour)
	}

	res := SunPayload{Date: date.Format(time.DateOnly)}

	rise, set, err := solar.SunriseSunset(s.opts.Latitude, s.opts.Longitude, date)
	switch {
	case errors.Is(err, solar.ErrPolarDay):
		res.Polar = "day"
	case errors.Is(err, solar.ErrPolarNight):
		res.Polar = "night"
	case err != nil:
		s.jsonError(w, err)
		return
	default:
		res.Sunrise = rise.Format(time.RFC3339)
		res.Sunset = set.Format(time.RFC3339)
	}

	s.jsonResponse(w, http.StatusOK, res)
}
