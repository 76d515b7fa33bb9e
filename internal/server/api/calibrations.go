package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/handlevel/internal/session"
	"github.com/ayusman/handlevel/internal/store"
)

// Configurer receives the session settings of a newly active calibration.
type Configurer interface {
	Configure(config session.Config)
}

// CalibrationHandler handles HTTP requests for calibration profiles.
type CalibrationHandler struct {
	store   *store.Store
	session Configurer
}

// NewCalibrationHandler creates a CalibrationHandler. When c is non-nil,
// activating a profile or editing the active one reconfigures it.
func NewCalibrationHandler(s *store.Store, c Configurer) *CalibrationHandler {
	return &CalibrationHandler{store: s, session: c}
}

type listCalibrationsResponse struct {
	Calibrations []*store.Calibration `json:"calibrations"`
	Active       string               `json:"active"`
}

// ServeHTTP routes /api/calibrations, /api/calibrations/{id} and
// /api/calibrations/{id}/activate.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/calibrations")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPut && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodPut:
		h.update(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/calibrations.
func (h *CalibrationHandler) list(w http.ResponseWriter, r *http.Request) {
	calibrations, err := h.store.Calibrations().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calibrations")
		return
	}

	response := listCalibrationsResponse{Calibrations: calibrations}
	if response.Calibrations == nil {
		response.Calibrations = []*store.Calibration{}
	}
	if active, err := h.store.ActiveCalibration(); err == nil {
		response.Active = active.ID
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/calibrations/{id}.
func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Calibrations().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get calibration")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// create handles POST /api/calibrations. Omitted fields take the fast
// profile values.
func (h *CalibrationHandler) create(w http.ResponseWriter, r *http.Request) {
	c := store.DefaultCalibration()
	c.Name = ""
	if err := json.NewDecoder(r.Body).Decode(c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if c.Name != "" {
		if _, err := h.store.Calibrations().GetByName(c.Name); err == nil {
			writeError(w, http.StatusConflict, "Calibration name already exists")
			return
		}
	}

	c.ID = uuid.New().String()
	if err := h.store.Calibrations().Create(c); err != nil {
		h.storeError(w, err, "Failed to create calibration")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// update handles PUT /api/calibrations/{id}. Omitted fields keep their
// stored values.
func (h *CalibrationHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Calibrations().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get calibration")
		return
	}

	if err := json.NewDecoder(r.Body).Decode(c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	c.ID = id

	if err := h.store.Calibrations().Update(c); err != nil {
		h.storeError(w, err, "Failed to update calibration")
		return
	}

	if active, err := h.store.ActiveCalibration(); err == nil && active.ID == id {
		h.apply(c)
	}

	writeJSON(w, http.StatusOK, c)
}

// delete handles DELETE /api/calibrations/{id}.
func (h *CalibrationHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.DeleteCalibration(id); err != nil {
		h.storeError(w, err, "Failed to delete calibration")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activate handles PUT /api/calibrations/{id}/activate.
func (h *CalibrationHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Activate(id)
	if err != nil {
		h.storeError(w, err, "Failed to activate calibration")
		return
	}

	log.Printf("Calibration %q activated", c.Name)
	h.apply(c)
	writeJSON(w, http.StatusOK, c)
}

func (h *CalibrationHandler) apply(c *store.Calibration) {
	if h.session != nil {
		h.session.Configure(c.SessionConfig())
	}
}

// storeError maps store errors to HTTP status codes.
func (h *CalibrationHandler) storeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Calibration not found")
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrActive):
		writeError(w, http.StatusConflict, "Cannot delete the active calibration")
	default:
		log.Printf("%s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
