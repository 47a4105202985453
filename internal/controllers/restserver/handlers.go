package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/chrissnell/decoplanner/internal/constants"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/config"
	"github.com/chrissnell/decoplanner/pkg/gasplan"
	"github.com/chrissnell/decoplanner/pkg/physics"
	"github.com/chrissnell/decoplanner/pkg/planner"
	"github.com/chrissnell/decoplanner/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxRequestBody bounds plan request bodies
const maxRequestBody = 1 << 20

// DefaultNDLDepths are used when /api/ndl gets no depth parameter
var DefaultNDLDepths = []float64{12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42}

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

func (h *Handlers) fail(w http.ResponseWriter, req *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
	}
	if werr := h.formatter.WriteError(w, req, status, err); werr != nil {
		h.controller.logger.Warnw("could not write error response", "error", werr)
	}
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteStatus(w, req, status, data, nil); err != nil {
		h.controller.logger.Warnw("could not write response", "path", req.URL.Path, "error", err)
	}
}

// Health reports that the server is up
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.respond(w, req, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: constants.Version,
		Archive: h.controller.archive != nil,
		Storage: h.controller.health.GetAllHealth(),
	})
}

// CreatePlan plans the dive described by the request body. With an archive
// configured the plan is also stored and its ID returned.
func (h *Handlers) CreatePlan(w http.ResponseWriter, req *http.Request) {
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBody))
	decoder.DisallowUnknownFields()

	var request config.PlanRequestData
	if err := decoder.Decode(&request); err != nil {
		h.fail(w, req, http.StatusBadRequest, fmt.Errorf("malformed plan request: %w", err))
		return
	}

	input, err := request.Resolve(h.controller.Base())
	if err != nil {
		h.fail(w, req, http.StatusUnprocessableEntity, err)
		return
	}

	plan, err := planner.NewDivePlanner(input.Configuration, planner.WithLogger(h.controller.logger)).
		Plan(input.Profile, input.DecoGases)
	if err != nil {
		var sectionErr *planner.SectionError
		if errors.As(err, &sectionErr) {
			h.fail(w, req, http.StatusUnprocessableEntity, err)
			return
		}
		h.fail(w, req, http.StatusInternalServerError, err)
		return
	}

	gp := gasplan.Calculate(plan)
	response := PlanResponse{
		Name:    input.Name,
		Summary: summarize(plan, gp),
		Plan:    plan,
		GasPlan: gp,
	}

	status := http.StatusOK
	if h.controller.archive != nil {
		record, err := h.controller.archive.Save(req.Context(), input.Name, plan)
		h.controller.health.Observe(archiveBackend, err)
		if err != nil {
			h.fail(w, req, http.StatusInternalServerError, err)
			return
		}
		response.ID = &record.ID
		status = http.StatusCreated
	}

	h.respond(w, req, status, response)
}

func parseFloatParam(req *http.Request, name string, def float64) (float64, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// parseDepths accepts repeated depth parameters and comma-separated lists
func parseDepths(req *http.Request) ([]float64, error) {
	var depths []float64
	for _, raw := range req.URL.Query()["depth"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := strconv.ParseFloat(part, 64)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("invalid depth %q", part)
			}
			depths = append(depths, d)
		}
	}
	if len(depths) == 0 {
		return DefaultNDLDepths, nil
	}
	return depths, nil
}

// GetNDL returns no-decompression limits for a gas, given in percent by the
// o2 and he parameters (air by default).
func (h *Handlers) GetNDL(w http.ResponseWriter, req *http.Request) {
	o2, err := parseFloatParam(req, "o2", 21)
	if err != nil {
		h.fail(w, req, http.StatusBadRequest, err)
		return
	}
	he, err := parseFloatParam(req, "he", 0)
	if err != nil {
		h.fail(w, req, http.StatusBadRequest, err)
		return
	}
	depths, err := parseDepths(req)
	if err != nil {
		h.fail(w, req, http.StatusBadRequest, err)
		return
	}

	gas, err := physics.NewGas(o2/100, he/100)
	if err != nil {
		h.fail(w, req, http.StatusUnprocessableEntity, err)
		return
	}

	limits := planner.NoDecompressionLimits(h.controller.Base(), gas, depths)
	response := NDLResponse{Gas: gas.String(), Limits: make([]NDLEntry, len(depths))}
	for i, depth := range depths {
		response.Limits[i] = NDLEntry{Depth: depth, NDL: limits[i]}
	}
	h.respond(w, req, http.StatusOK, response)
}

// ListPlans returns the most recent archived plans
func (h *Handlers) ListPlans(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.fail(w, req, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = v
	}

	records, err := h.controller.archive.List(req.Context(), limit)
	h.controller.health.Observe(archiveBackend, err)
	if err != nil {
		h.fail(w, req, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []archive.ArchivedPlan{}
	}
	h.respond(w, req, http.StatusOK, PlanListResponse{Plans: records})
}

// GetPlan returns one archived plan with its gas plan recomputed
func (h *Handlers) GetPlan(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, req, http.StatusBadRequest, fmt.Errorf("invalid plan id: %w", err))
		return
	}

	record, plan, err := h.controller.archive.Get(req.Context(), id)
	if errors.Is(err, archive.ErrNotFound) {
		h.controller.health.Observe(archiveBackend, nil)
		h.fail(w, req, http.StatusNotFound, err)
		return
	}
	h.controller.health.Observe(archiveBackend, err)
	if err != nil {
		h.fail(w, req, http.StatusInternalServerError, err)
		return
	}

	gp := gasplan.Calculate(plan)
	h.respond(w, req, http.StatusOK, PlanResponse{
		ID:      &record.ID,
		Name:    record.Name,
		Summary: summarize(plan, gp),
		Plan:    plan,
		GasPlan: gp,
	})
}
