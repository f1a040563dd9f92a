// Package problem builds the immutable, dense Problem value the solver
// optimizes against from a raw network snapshot.
package problem

import "time"

// RoutingSource records whether a Problem's distance/time matrices were
// computed entirely from the external routing provider, entirely from the
// haversine fallback, or a mix of both.
type RoutingSource string

const (
	RoutingSourceExternal RoutingSource = "external"
	RoutingSourceFallback RoutingSource = "fallback"
	RoutingSourceMixed    RoutingSource = "mixed"
)

// LabCapacity is the per-lab capacity record of the network snapshot.
type LabCapacity struct {
	MaxPerDay   float64
	MaxPerMonth float64
	StaffCount  float64
	UtilFactor  float64
}

// Problem is the immutable, per-run optimization input. All slices are
// dense and index-aligned; area index a, lab index j, test index t are
// 0-based positions assigned by Builder. Flat matrices are row-major with
// the last axis innermost: two-dimensional indices (a,j) flatten to
// a*NLabs+j, and (j,t) to
// j*NTests+t.
type Problem struct {
	NAreas int
	NLabs  int
	NTests int

	AreaIDs []string
	LabIDs  []string
	TestIDs []string

	AreaIndex map[string]int
	LabIndex  map[string]int
	TestIndex map[string]int

	// Demand[a*NTests+t]
	Demand []int32

	// DistKM[a*NLabs+j], TimeMin[a*NLabs+j]
	DistKM  []float64
	TimeMin []float64

	LabCapacity []LabCapacity
	// WorkingMinutes[j] is the weekly total operating minutes for lab j,
	// aggregated once here as a flat sum over the lab's weekday hours.
	WorkingMinutes []float64
	Overhead       []float64

	// Capable[j*NTests+t], ProcTime[j*NTests+t], StaffReq[j*NTests+t],
	// EquipUtil[j*NTests+t], CostPerTest[j*NTests+t], Quality[j*NTests+t]
	Capable     []bool
	ProcTime    []float64
	StaffReq    []float64
	EquipUtil   []float64
	CostPerTest []float64
	Quality     []float64

	Pop    []float64
	MaxPop float64

	CostPerKM               float64
	MaxAcceptableDistanceKM float64

	RoutingSource RoutingSource
}

// AvailableMinutes returns staff_count * working_minutes * util_factor for
// lab j, the capacity ceiling the repair operator and utilization objective
// both enforce.
func (p *Problem) AvailableMinutes(j int) float64 {
	c := p.LabCapacity[j]
	return c.StaffCount * p.WorkingMinutes[j] * c.UtilFactor
}

// DemandAt returns D[a,t].
func (p *Problem) DemandAt(a, t int) int32 {
	return p.Demand[a*p.NTests+t]
}

// DistanceAt returns dist[a,j] in kilometers.
func (p *Problem) DistanceAt(a, j int) float64 {
	return p.DistKM[a*p.NLabs+j]
}

// TimeAt returns time[a,j] in minutes.
func (p *Problem) TimeAt(a, j int) float64 {
	return p.TimeMin[a*p.NLabs+j]
}

// IsCapable reports capable[j,t].
func (p *Problem) IsCapable(j, t int) bool {
	return p.Capable[j*p.NTests+t]
}

// ProcTimeAt returns proc_time[j,t].
func (p *Problem) ProcTimeAt(j, t int) float64 {
	return p.ProcTime[j*p.NTests+t]
}

// CapableLabsForTest returns the lab indices capable of processing test t.
func (p *Problem) CapableLabsForTest(t int) []int {
	labs := make([]int, 0, p.NLabs)
	for j := 0; j < p.NLabs; j++ {
		if p.IsCapable(j, t) {
			labs = append(labs, j)
		}
	}
	return labs
}

// Parameters is the per-scenario tuning input.
type Parameters struct {
	Weights [5]float64

	MaxDistanceKM        float64
	MaxTravelTimeMinutes float64
	MinUtilization       float64
	MaxUtilization       float64
	MinQuality           float64

	PopulationSize        int
	MaxGenerations        int
	CrossoverRate         float64
	MutationRate          float64
	TournamentSize        int
	EliteSize             int
	ConvergenceWindow     int
	ConvergenceThreshold  float64
	DiversityThreshold    float64
	CheckpointInterval    int

	TimeBudget time.Duration
	Seed       *int64 // nil means use a fresh entropy source
}

// DefaultParameters returns the standard CLI/config-surface defaults.
func DefaultParameters() Parameters {
	return Parameters{
		Weights:              [5]float64{0.2, 0.2, 0.2, 0.2, 0.2},
		MaxDistanceKM:        100,
		MaxTravelTimeMinutes: 180,
		MinUtilization:       0.3,
		MaxUtilization:       0.9,
		MinQuality:           0.7,
		PopulationSize:       200,
		MaxGenerations:       500,
		CrossoverRate:        0.9,
		MutationRate:         0.3,
		TournamentSize:       3,
		EliteSize:            20,
		ConvergenceWindow:    50,
		ConvergenceThreshold: 1e-3,
		DiversityThreshold:   1e-4,
		CheckpointInterval:   50,
		TimeBudget:           900 * time.Second,
	}
}
