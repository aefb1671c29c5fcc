package httpadapter

import (
	"net/http"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func (rt *Router) addBloodPressure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Systolic  int `json:"systolic"`
		Diastolic int `json:"diastolic"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reading, err := rt.svc.Readings.AddBloodPressure(r.Context(), userFromContext(r.Context()), req.Systolic, req.Diastolic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":     "success",
		"message":    "Blood pressure reading added successfully",
		"reading_id": reading.ID,
		"reading":    reading,
	})
}

func (rt *Router) addGlucose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reading, err := rt.svc.Readings.AddGlucose(r.Context(), userFromContext(r.Context()), req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":     "success",
		"message":    "Glucose reading added successfully",
		"reading_id": reading.ID,
		"reading":    reading,
	})
}

func (rt *Router) listReadings(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	readings, err := rt.svc.Readings.List(r.Context(), userFromContext(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if readings.BloodPressure == nil {
		readings.BloodPressure = []domain.BloodPressureReading{}
	}
	if readings.Glucose == nil {
		readings.Glucose = []domain.GlucoseReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func (rt *Router) deleteReading(w http.ResponseWriter, r *http.Request) {
	kind := domain.ReadingKind(r.PathValue("kind"))
	if err := rt.svc.Readings.Delete(r.Context(), userFromContext(r.Context()), kind, r.PathValue("reading_id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Reading deleted successfully",
	})
}
