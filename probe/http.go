package probe

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/viewport/kit"
)

// API serves probes and the report history over HTTP.
type API struct {
	prober *Prober
	store  *Store
	logger *slog.Logger
	probe  kit.Endpoint
}

// NewAPI creates the HTTP surface. st may be nil, in which case the
// history routes answer 503.
func NewAPI(p *Prober, st *Store, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{prober: p, store: st, logger: logger, probe: p.probeEndpoint()}
}

// Handler returns a chi router with the API mounted at the root.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestContext)
	a.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the API routes on r.
func (a *API) RegisterHTTP(r chi.Router) {
	r.Get("/health", a.handleHealth)
	r.Post("/api/probe", a.handleProbe)
	r.Get("/api/reports", a.handleReports)
	r.Get("/api/reports/{id}", a.handleReport)
	r.Get("/api/changes", a.handleChanges)
	r.Get("/api/presets", a.handlePresets)
}

func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "store": a.store != nil})
}

// POST /api/probe
func (a *API) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := a.probe(r.Context(), &req)
	if err != nil {
		if isRequestError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/reports?url=&limit=
func (a *API) handleReports(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no history store")
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	reps, err := a.store.List(r.Context(), r.URL.Query().Get("url"), limit)
	if err != nil {
		a.logger.Error("probe: list reports", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reps})
}

// GET /api/reports/{id}
func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no history store")
		return
	}
	rep, err := a.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		a.logger.Error("probe: get report", "error", err)
		writeError(w, http.StatusInternalServerError, "get failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /api/changes?url=&limit=
func (a *API) handleChanges(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no history store")
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	changes, err := a.store.Changes(r.Context(), r.URL.Query().Get("url"), limit)
	if err != nil {
		a.logger.Error("probe: list changes", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changes})
}

// GET /api/presets
func (a *API) handlePresets(w http.ResponseWriter, r *http.Request) {
	resp, _ := presetsEndpoint(r.Context(), nil)
	writeJSON(w, http.StatusOK, resp)
}

func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
