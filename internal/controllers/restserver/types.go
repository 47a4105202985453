package restserver

import (
	"github.com/chrissnell/decoplanner/internal/storage"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/gasplan"
	"github.com/google/uuid"
)

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Archive bool   `json:"archive"`

	// Storage holds the outcome of the last call to each storage backend
	Storage map[string]storage.Health `json:"storage,omitempty"`
}

// PlanSummary holds the headline numbers of a plan
type PlanSummary struct {
	Runtime         int     `json:"runtime"`
	DecoMinutes     int     `json:"deco_minutes"`
	FirstDecoMinute *int    `json:"first_deco_minute,omitempty"`
	MaxDepth        float64 `json:"max_depth"`
	AverageDepth    float64 `json:"average_depth"`
	CNS             float64 `json:"cns"`
	OTU             float64 `json:"otu"`
	GasSufficient   bool    `json:"gas_sufficient"`
}

// PlanResponse is returned by POST /api/plan and GET /api/plans/{id}
type PlanResponse struct {
	ID      *uuid.UUID       `json:"id,omitempty"`
	Name    string           `json:"name,omitempty"`
	Summary PlanSummary      `json:"summary"`
	Plan    *dive.Plan       `json:"plan"`
	GasPlan *gasplan.GasPlan `json:"gas_plan"`
}

// NDLEntry is the no-decompression limit at one depth
type NDLEntry struct {
	Depth float64 `json:"depth"`
	NDL   int     `json:"ndl"`
}

// NDLResponse is returned by GET /api/ndl
type NDLResponse struct {
	Gas    string     `json:"gas"`
	Limits []NDLEntry `json:"limits"`
}

// PlanListResponse is returned by GET /api/plans
type PlanListResponse struct {
	Plans []archive.ArchivedPlan `json:"plans"`
}

func summarize(plan *dive.Plan, gp *gasplan.GasPlan) PlanSummary {
	s := PlanSummary{
		Runtime:       plan.Runtime(),
		DecoMinutes:   plan.TotalDecoMinutes(),
		MaxDepth:      plan.MaxDepth(),
		AverageDepth:  plan.AverageDepth(),
		CNS:           plan.TotalCNS,
		OTU:           plan.TotalOTU,
		GasSufficient: gp.Sufficient(),
	}
	if minute, ok := plan.FirstDecoMinute(); ok {
		s.FirstDecoMinute = &minute
	}
	return s
}
