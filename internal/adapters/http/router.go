// Package httpadapter exposes the matter intake, readiness, package and
// binder operations over HTTP.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/core/ports"
	"github.com/casebinder/casebinder/internal/observability/metrics"
)

const (
	ownerScopeHeader = "X-Owner-Scope"
	maxUploadBytes   = 256 << 20
)

type TrafficControl struct {
	RateLimitRPS   int
	RateLimitBurst int
	MaxInFlight    int
}

type Router struct {
	intake  ports.MatterIntake
	builder ports.PackageBuilder
	amender ports.MatterAmender
	metrics *metrics.HTTPMetrics
	traffic TrafficControl
}

func NewRouter(
	intake ports.MatterIntake,
	builder ports.PackageBuilder,
	amender ports.MatterAmender,
	httpMetrics *metrics.HTTPMetrics,
	traffic TrafficControl,
) *Router {
	return &Router{
		intake:  intake,
		builder: builder,
		amender: amender,
		metrics: httpMetrics,
		traffic: traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /metrics", rt.metrics.Handler())

	mux.HandleFunc("POST /v1/matters/intake", rt.intakeBatch)
	mux.HandleFunc("GET /v1/matters/{matter_id}/readiness", rt.readiness)
	mux.HandleFunc("GET /v1/matters/{matter_id}/package", rt.buildPackage)
	mux.HandleFunc("GET /v1/matters/{matter_id}/binder", rt.downloadBinder)
	mux.HandleFunc("GET /v1/matters/{matter_id}/checklist", rt.downloadChecklist)
	mux.HandleFunc("POST /v1/matters/{matter_id}/documents/{file_id}/classification", rt.overrideClassification)
	mux.HandleFunc("PUT /v1/matters/{matter_id}/filing-context", rt.updateFilingContext)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, 2*time.Second)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = accessLogMiddleware(handler, rt.metrics)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) intakeBatch(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}

	cmd := domain.IntakeCommand{
		OwnerScope: ownerScope,
		MatterID:   strings.TrimSpace(r.FormValue("matter_id")),
		Forum:      strings.TrimSpace(r.FormValue("forum")),
		ProfileID:  strings.TrimSpace(r.FormValue("profile_id")),
	}

	if raw := r.FormValue("filing_context"); raw != "" {
		var fc domain.FilingContext
		if err := json.Unmarshal([]byte(raw), &fc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filing_context json"})
			return
		}
		cmd.FilingContext = &fc
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("open upload %s", fh.Filename)})
			return
		}
		payload, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("read upload %s", fh.Filename)})
			return
		}
		cmd.Files = append(cmd.Files, domain.UploadFile{
			Filename:            fh.Filename,
			DeclaredContentType: fh.Header.Get("Content-Type"),
			Payload:             payload,
		})
	}

	result, err := rt.intake.Intake(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}
	report, err := rt.builder.Readiness(r.Context(), ownerScope, r.PathValue("matter_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) buildPackage(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}
	result, err := rt.builder.Package(r.Context(), ownerScope, r.PathValue("matter_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) downloadBinder(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}
	matterID := r.PathValue("matter_id")
	artifact, err := rt.builder.DownloadBinder(r.Context(), ownerScope, matterID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", matterID+"-binder.pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Bytes)
}

func (rt *Router) downloadChecklist(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}
	matterID := r.PathValue("matter_id")
	checklist, err := rt.builder.Checklist(r.Context(), ownerScope, matterID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", matterID+"-checklist.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(checklist)
}

func (rt *Router) overrideClassification(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewType string `json:"new_type"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	matter, err := rt.amender.OverrideClassification(
		r.Context(), ownerScope,
		r.PathValue("matter_id"), r.PathValue("file_id"),
		req.NewType, req.Reason,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matter)
}

func (rt *Router) updateFilingContext(w http.ResponseWriter, r *http.Request) {
	ownerScope, ok := requireOwnerScope(w, r)
	if !ok {
		return
	}

	var fc domain.FilingContext
	if err := json.NewDecoder(r.Body).Decode(&fc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	matter, err := rt.amender.UpdateFilingContext(r.Context(), ownerScope, r.PathValue("matter_id"), fc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matter)
}

func requireOwnerScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerScope := strings.TrimSpace(r.Header.Get(ownerScopeHeader))
	if ownerScope == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "header X-Owner-Scope is required"})
		return "", false
	}
	return ownerScope, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
