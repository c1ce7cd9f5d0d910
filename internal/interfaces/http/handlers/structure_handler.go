package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/molgraph/internal/application/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// StructureHandler handles HTTP requests for structural models.
type StructureHandler struct {
	svc    structure.Service
	logger logging.Logger
}

func NewStructureHandler(svc structure.Service, logger logging.Logger) *StructureHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StructureHandler{svc: svc, logger: logger}
}

func modelID(r *http.Request) (common.ID, error) {
	id := common.ID(chi.URLParam(r, "id"))
	if err := id.Validate(); err != nil {
		return "", errors.InvalidParam("invalid model id").WithDetail(string(id))
	}
	return id, nil
}

// Ingest handles POST /api/v1/models.
func (h *StructureHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var dto stypes.ModelDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeAppError(w, r, err)
		return
	}
	sum, err := h.svc.Ingest(r.Context(), &dto)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/models/"+string(sum.ID))
	writeJSON(w, r, http.StatusCreated, sum)
}

// List handles GET /api/v1/models.
func (h *StructureHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), parsePagination(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

// Get handles GET /api/v1/models/{id}.
func (h *StructureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	dto, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// Summary handles GET /api/v1/models/{id}/summary.
func (h *StructureHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	sum, err := h.svc.Summary(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

// Export handles GET /api/v1/models/{id}/export. The digest doubles as ETag.
func (h *StructureHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out, err := h.svc.Export(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	etag := `"` + out.Digest + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// Delete handles DELETE /api/v1/models/{id}.
func (h *StructureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSmallMolecule handles POST /api/v1/models/{id}/small-molecules.
func (h *StructureHandler) AddSmallMolecule(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var req stypes.SmallMoleculeDTO
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	sum, err := h.svc.AddSmallMolecule(r.Context(), id, req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sum)
}

// RemoveSmallMolecule handles DELETE /api/v1/models/{id}/small-molecules/{moleculeID}.
func (h *StructureHandler) RemoveSmallMolecule(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	sum, err := h.svc.RemoveSmallMolecule(r.Context(), id, chi.URLParam(r, "moleculeID"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

// AddBetaStrand handles POST /api/v1/models/{id}/chains/{chainID}/beta-strands.
func (h *StructureHandler) AddBetaStrand(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var req stypes.BetaStrandDTO
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	sum, err := h.svc.AddBetaStrand(r.Context(), id, chi.URLParam(r, "chainID"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sum)
}

// AddHelix handles POST /api/v1/models/{id}/chains/{chainID}/helices.
func (h *StructureHandler) AddHelix(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var req stypes.HelixDTO
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	sum, err := h.svc.AddHelix(r.Context(), id, chi.URLParam(r, "chainID"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sum)
}

// SelectAtoms handles GET /api/v1/models/{id}/atoms?select=<expr>. Without
// an expression every reachable atom is returned.
func (h *StructureHandler) SelectAtoms(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	expr := r.URL.Query().Get("select")
	if strings.TrimSpace(expr) == "" {
		expr = "all"
	}
	atoms, err := h.svc.Select(r.Context(), id, expr)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, atoms)
}

// Events handles GET /api/v1/models/{id}/events?limit=n.
func (h *StructureHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	events, err := h.svc.Events(r.Context(), id, limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, events)
}

// Search handles GET /api/v1/search. Query parameters: q, motif, chain,
// element (repeatable), min_atoms, max_atoms, offset, limit.
func (h *StructureHandler) Search(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := stypes.CatalogueQuery{
		Text:     qs.Get("q"),
		Motif:    qs.Get("motif"),
		ChainID:  qs.Get("chain"),
		Elements: qs["element"],
	}
	for name, dst := range map[string]*int{
		"min_atoms": &q.MinAtoms, "max_atoms": &q.MaxAtoms, "offset": &q.Offset, "limit": &q.Limit,
	} {
		n, err := intQuery(r, name)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		*dst = n
	}
	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.InvalidParam(name + " must be a non-negative integer").WithDetail(v)
	}
	return n, nil
}

//Personal.AI order the ending
