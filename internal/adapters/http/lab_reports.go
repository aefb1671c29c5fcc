package httpadapter

import (
	"net/http"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func (rt *Router) createLabReport(w http.ResponseWriter, r *http.Request) {
	var report domain.LabReport
	if err := decodeJSON(r, &report); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := rt.svc.LabReports.Create(r.Context(), userFromContext(r.Context()), report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rt *Router) listLabReports(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reports, err := rt.svc.LabReports.List(r.Context(), userFromContext(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []domain.LabReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (rt *Router) countLabReports(w http.ResponseWriter, r *http.Request) {
	count, err := rt.svc.LabReports.Count(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (rt *Router) getLabReport(w http.ResponseWriter, r *http.Request) {
	report, err := rt.svc.LabReports.Get(r.Context(), userFromContext(r.Context()), r.PathValue("report_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) updateLabReport(w http.ResponseWriter, r *http.Request) {
	var report domain.LabReport
	if err := decodeJSON(r, &report); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := rt.svc.LabReports.Update(r.Context(), userFromContext(r.Context()), r.PathValue("report_id"), report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) deleteLabReport(w http.ResponseWriter, r *http.Request) {
	if err := rt.svc.LabReports.Delete(r.Context(), userFromContext(r.Context()), r.PathValue("report_id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lab report deleted"})
}
