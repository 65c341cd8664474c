// Package reference serves the archetype catalog and the market reference
// tables the engine is configured with.
package reference

import (
	"encoding/json"
	"net/http"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/ingest"
)

// ArchetypeEntry is a catalog entry with its pricing data.
type ArchetypeEntry struct {
	archetype.Archetype
	Multiples    benchmark.Multiples    `json:"multiples"`
	DiscountRate benchmark.DiscountRate `json:"discount_rate"`
}

// Response is the body of GET /api/reference.
type Response struct {
	CatalogVersion string           `json:"catalog_version"`
	TablesVersion  string           `json:"tables_version"`
	AsOf           int              `json:"as_of"`
	Archetypes     []ArchetypeEntry `json:"archetypes"`
}

// SectorResponse is the body of GET /api/reference/sectors/{sector}.
type SectorResponse struct {
	Sector    archetype.Sector          `json:"sector"`
	Benchmark benchmark.SectorBenchmark `json:"benchmark"`
}

// SIRENResponse is the body of GET /api/reference/siren/{siren}.
type SIRENResponse struct {
	Input string `json:"input"`
	SIREN string `json:"siren,omitempty"`
	Valid bool   `json:"valid"`
}

// Handler holds dependencies for reference endpoints
type Handler struct {
	Engine *evaluation.Engine
}

// NewHandler creates a new reference handler
func NewHandler(engine *evaluation.Engine) *Handler {
	return &Handler{Engine: engine}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reference", h.HandleReference)
	mux.HandleFunc("GET /api/reference/sectors/{sector}", h.HandleSector)
	mux.HandleFunc("GET /api/reference/siren/{siren}", h.HandleSIREN)
	mux.HandleFunc("OPTIONS /api/reference", preflight)
	mux.HandleFunc("OPTIONS /api/reference/sectors/{sector}", preflight)
	mux.HandleFunc("OPTIONS /api/reference/siren/{siren}", preflight)
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	setCORS(w)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func (h *Handler) HandleReference(w http.ResponseWriter, _ *http.Request) {
	catalog, tables := h.Engine.Catalog(), h.Engine.Tables()
	all := catalog.All()
	resp := Response{
		CatalogVersion: catalog.Version(),
		TablesVersion:  tables.Version(),
		AsOf:           tables.AsOf(),
		Archetypes:     make([]ArchetypeEntry, 0, len(all)),
	}
	for _, a := range all {
		resp.Archetypes = append(resp.Archetypes, ArchetypeEntry{
			Archetype:    a,
			Multiples:    tables.Multiples(a.ID),
			DiscountRate: tables.DiscountRate(a.RiskTier),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleSector(w http.ResponseWriter, r *http.Request) {
	sector, ok := archetype.ParseSector(r.PathValue("sector"))
	if !ok {
		setCORS(w)
		http.Error(w, "unknown sector", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, SectorResponse{Sector: sector, Benchmark: h.Engine.Tables().Benchmark(sector)})
}

// HandleSIREN checks a SIREN number without calling the registry.
func (h *Handler) HandleSIREN(w http.ResponseWriter, r *http.Request) {
	input := r.PathValue("siren")
	siren, err := ingest.ValidateSIREN(input)
	writeJSON(w, http.StatusOK, SIRENResponse{Input: input, SIREN: siren, Valid: err == nil})
}
