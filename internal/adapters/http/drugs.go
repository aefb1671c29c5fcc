package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func (rt *Router) listAllDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := rt.svc.Drugs.AllDrugs(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drugs)
}

func (rt *Router) listActiveDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := rt.svc.Drugs.ActiveDrugs(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drugs)
}

func (rt *Router) addAllDrugs(w http.ResponseWriter, r *http.Request) {
	var drugs []domain.Drug
	if err := decodeJSON(r, &drugs); err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.svc.Drugs.AddToAll(r.Context(), userFromContext(r.Context()), drugs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Added %d drugs to all_drugs", len(drugs)),
	})
}

func (rt *Router) addActiveDrug(w http.ResponseWriter, r *http.Request) {
	var key domain.DrugKey
	if err := decodeJSON(r, &key); err != nil {
		writeError(w, r, err)
		return
	}
	drug, err := rt.svc.Drugs.AddToActive(r.Context(), userFromContext(r.Context()), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Drug added to active_drugs",
		"drug":    drug,
	})
}

func (rt *Router) removeActiveDrug(w http.ResponseWriter, r *http.Request) {
	var key domain.DrugKey
	if err := decodeJSON(r, &key); err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.svc.Drugs.RemoveFromActive(r.Context(), userFromContext(r.Context()), key); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Drug removed from active_drugs",
	})
}

func (rt *Router) removeFromAllDrugs(w http.ResponseWriter, r *http.Request) {
	var key domain.DrugKey
	if err := decodeJSON(r, &key); err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.svc.Drugs.RemoveFromAll(r.Context(), userFromContext(r.Context()), key); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Drug removed from all_drugs and active_drugs",
	})
}
