package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
	"github.com/medwise/medwise-backend/internal/observability/metrics"
)

const serviceName = "api"

// Services are the inbound ports served over HTTP. Nil services leave their routes unregistered.
type Services struct {
	Images     ports.ImageSubmitter
	ImageReads ports.ImageReader
	Drugs      ports.DrugRegistryService
	Accounts   ports.AccountService
	Readings   ports.ReadingService
	LabReports ports.LabReportService
	// Ready reports backing store health for /healthz.
	Ready func(ctx context.Context) error
}

type Router struct {
	cfg     config.Config
	svc     Services
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, svc Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:     cfg,
		svc:     svc,
		metrics: httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	if rt.svc.Accounts != nil {
		mux.HandleFunc("POST /auth/signup", rt.signup)
		mux.HandleFunc("POST /auth/login", rt.login)
		mux.HandleFunc("POST /auth/logout", rt.logout)
		mux.HandleFunc("GET /auth/check", rt.checkAuth)
		mux.HandleFunc("GET /auth/me", rt.requireUser(rt.me))
	}

	if rt.svc.Images != nil {
		mux.HandleFunc("POST /api/upload", rt.requireUser(rt.uploadImage))
	}
	if rt.svc.ImageReads != nil {
		mux.HandleFunc("GET /api/analyze/{image_id}", rt.requireUser(rt.getImageStatus))
		mux.HandleFunc("GET /api/analyze/{image_id}/response", rt.requireUser(rt.getAnalysisResponse))
		mux.HandleFunc("GET /api/images", rt.requireUser(rt.listImages))
	}

	if rt.svc.Drugs != nil {
		mux.HandleFunc("GET /user-drugs/all-drugs", rt.requireUser(rt.listAllDrugs))
		mux.HandleFunc("POST /user-drugs/all-drugs", rt.requireUser(rt.addAllDrugs))
		mux.HandleFunc("DELETE /user-drugs/all-drugs", rt.requireUser(rt.removeFromAllDrugs))
		mux.HandleFunc("GET /user-drugs/active-drugs", rt.requireUser(rt.listActiveDrugs))
		mux.HandleFunc("POST /user-drugs/active-drugs", rt.requireUser(rt.addActiveDrug))
		mux.HandleFunc("DELETE /user-drugs/active-drugs", rt.requireUser(rt.removeActiveDrug))
	}

	if rt.svc.Readings != nil {
		mux.HandleFunc("POST /api/readings/bp", rt.requireUser(rt.addBloodPressure))
		mux.HandleFunc("POST /api/readings/glucose", rt.requireUser(rt.addGlucose))
		mux.HandleFunc("GET /api/readings", rt.requireUser(rt.listReadings))
		mux.HandleFunc("DELETE /api/readings/{kind}/{reading_id}", rt.requireUser(rt.deleteReading))
	}

	if rt.svc.LabReports != nil {
		mux.HandleFunc("POST /lab-reports", rt.requireUser(rt.createLabReport))
		mux.HandleFunc("GET /lab-reports", rt.requireUser(rt.listLabReports))
		mux.HandleFunc("GET /lab-reports/count", rt.requireUser(rt.countLabReports))
		mux.HandleFunc("GET /lab-reports/{report_id}", rt.requireUser(rt.getLabReport))
		mux.HandleFunc("PUT /lab-reports/{report_id}", rt.requireUser(rt.updateLabReport))
		mux.HandleFunc("DELETE /lab-reports/{report_id}", rt.requireUser(rt.deleteLabReport))
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait, rt.onReject)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) onReject(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Ready != nil {
		if err := rt.svc.Ready(r.Context()); err != nil {
			slog.Warn("healthz_not_ready", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	return nil
}

// pageFromQuery reads limit and skip; range checks belong to the use cases.
func pageFromQuery(r *http.Request) (domain.Page, error) {
	page := domain.Page{}
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return page, domain.WrapError(domain.ErrInvalidInput, "parse page", errors.New("limit must be an integer"))
		}
		page.Limit = limit
	}
	if raw := query.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			return page, domain.WrapError(domain.ErrInvalidInput, "parse page", errors.New("skip must be an integer"))
		}
		page.Skip = skip
	}
	return page, nil
}
