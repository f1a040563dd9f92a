package problem

import (
	"context"
	"fmt"
	"math"

	"k8s.io/klog/v2"
)

// DistanceResult is one (origin, destination) routing answer.
type DistanceResult struct {
	KM      float64
	Minutes float64
	Source  string // "external" or "fallback"
}

// DistanceLookup is the interface the Problem Builder consumes the Distance
// Provider through (internal/distance.Provider satisfies this structurally,
// keeping the builder package free of a direct dependency on the HTTP
// client and cache implementation).
type DistanceLookup interface {
	Batch(ctx context.Context, pairs [][2]Coordinate) ([]DistanceResult, error)
}

// Builder materializes a NetworkSnapshot into an immutable Problem.
type Builder struct {
	Distances DistanceLookup
}

// NewBuilder constructs a Builder over the given distance lookup.
func NewBuilder(distances DistanceLookup) *Builder {
	return &Builder{Distances: distances}
}

// Build validates the snapshot, assigns dense indices, resolves demand
// aggregation over window, materializes the distance/time matrices via the
// Distance Provider, and returns the immutable Problem. It returns an error
// wrapping ErrInvalidNetwork without ever constructing a solver on failure.
func (b *Builder) Build(ctx context.Context, snap *NetworkSnapshot, window DateWindow) (*Problem, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}

	p := &Problem{
		NAreas:                  len(snap.Areas),
		NLabs:                   len(snap.Labs),
		NTests:                  len(snap.TestIDs),
		CostPerKM:               snap.CostPerKM,
		MaxAcceptableDistanceKM: snap.MaxAcceptableDistanceKM,
	}

	p.AreaIndex = make(map[string]int, p.NAreas)
	p.AreaIDs = make([]string, p.NAreas)
	p.Pop = make([]float64, p.NAreas)
	for i, a := range snap.Areas {
		p.AreaIndex[a.ID] = i
		p.AreaIDs[i] = a.ID
		p.Pop[i] = a.Population
		if a.Population > p.MaxPop {
			p.MaxPop = a.Population
		}
	}

	p.LabIndex = make(map[string]int, p.NLabs)
	p.LabIDs = make([]string, p.NLabs)
	p.LabCapacity = make([]LabCapacity, p.NLabs)
	p.WorkingMinutes = make([]float64, p.NLabs)
	p.Overhead = make([]float64, p.NLabs)
	for j, l := range snap.Labs {
		p.LabIndex[l.ID] = j
		p.LabIDs[j] = l.ID
		p.LabCapacity[j] = LabCapacity{
			MaxPerDay:   l.MaxPerDay,
			MaxPerMonth: l.MaxPerMonth,
			StaffCount:  l.StaffCount,
			UtilFactor:  l.UtilFactor,
		}
		p.Overhead[j] = l.Overhead
		var weekly float64
		for _, m := range l.Hours {
			weekly += m
		}
		p.WorkingMinutes[j] = weekly
	}

	p.TestIndex = make(map[string]int, p.NTests)
	p.TestIDs = append([]string{}, snap.TestIDs...)
	for t, id := range p.TestIDs {
		p.TestIndex[id] = t
	}

	n := p.NLabs * p.NTests
	p.Capable = make([]bool, n)
	p.ProcTime = make([]float64, n)
	p.StaffReq = make([]float64, n)
	p.EquipUtil = make([]float64, n)
	p.CostPerTest = make([]float64, n)
	p.Quality = make([]float64, n)

	for _, c := range snap.Capabilities {
		j, ok := p.LabIndex[c.LabID]
		if !ok {
			return nil, fmt.Errorf("%w: capability references unknown lab %q", ErrInvalidNetwork, c.LabID)
		}
		t, ok := p.TestIndex[c.TestID]
		if !ok {
			return nil, fmt.Errorf("%w: capability references unknown test %q", ErrInvalidNetwork, c.TestID)
		}
		if c.ProcTime < 5 || c.ProcTime > 480 {
			return nil, fmt.Errorf("%w: proc_time for lab %q test %q out of [5,480] minutes", ErrInvalidNetwork, c.LabID, c.TestID)
		}
		if c.StaffReq > snap.Labs[j].StaffCount {
			return nil, fmt.Errorf("%w: staff_req exceeds staff_count for lab %q test %q", ErrInvalidNetwork, c.LabID, c.TestID)
		}
		idx := j*p.NTests + t
		p.Capable[idx] = true
		p.ProcTime[idx] = c.ProcTime
		p.StaffReq[idx] = c.StaffReq
		p.EquipUtil[idx] = c.EquipUtil
		p.CostPerTest[idx] = c.CostPerTest
		p.Quality[idx] = c.Quality
	}

	p.Demand = make([]int32, p.NAreas*p.NTests)
	for _, d := range snap.Demand {
		if !window.contains(d.Date) {
			continue
		}
		a, ok := p.AreaIndex[d.AreaID]
		if !ok {
			return nil, fmt.Errorf("%w: demand references unknown area %q", ErrInvalidNetwork, d.AreaID)
		}
		t, ok := p.TestIndex[d.TestID]
		if !ok {
			return nil, fmt.Errorf("%w: demand references unknown test %q", ErrInvalidNetwork, d.TestID)
		}
		if d.Count < 0 {
			return nil, fmt.Errorf("%w: negative demand for area %q test %q", ErrInvalidNetwork, d.AreaID, d.TestID)
		}
		p.Demand[a*p.NTests+t] += d.Count
	}

	for a := 0; a < p.NAreas; a++ {
		for t := 0; t < p.NTests; t++ {
			if p.Demand[a*p.NTests+t] == 0 {
				continue
			}
			if len(p.CapableLabsForTest(t)) == 0 {
				return nil, fmt.Errorf("%w: demand for area %q test %q has no capable lab", ErrInvalidNetwork, p.AreaIDs[a], p.TestIDs[t])
			}
		}
	}

	if err := checkCapacityFeasibility(p); err != nil {
		return nil, err
	}

	if err := b.materializeDistances(ctx, p, snap); err != nil {
		return nil, err
	}

	return p, nil
}

// checkCapacityFeasibility rejects networks where total demand exceeds the
// total capable capacity for any test.
func checkCapacityFeasibility(p *Problem) error {
	for t := 0; t < p.NTests; t++ {
		var totalDemand int32
		for a := 0; a < p.NAreas; a++ {
			totalDemand += p.DemandAt(a, t)
		}
		if totalDemand == 0 {
			continue
		}
		var totalCapacityMinutes float64
		for j := 0; j < p.NLabs; j++ {
			if p.IsCapable(j, t) {
				totalCapacityMinutes += p.AvailableMinutes(j)
			}
		}
		procTimeSum := 0.0
		count := 0
		for j := 0; j < p.NLabs; j++ {
			if p.IsCapable(j, t) {
				procTimeSum += p.ProcTimeAt(j, t)
				count++
			}
		}
		if count == 0 {
			continue // already caught by the no-capable-lab check
		}
		avgProcTime := procTimeSum / float64(count)
		requiredMinutes := float64(totalDemand) * avgProcTime
		if requiredMinutes > totalCapacityMinutes {
			return fmt.Errorf("%w: total demand for test %q requires %.0f minutes of capacity but only %.0f are available across capable labs",
				ErrInvalidNetwork, p.TestIDs[t], requiredMinutes, totalCapacityMinutes)
		}
	}
	return nil
}

func (b *Builder) materializeDistances(ctx context.Context, p *Problem, snap *NetworkSnapshot) error {
	pairs := make([][2]Coordinate, 0, p.NAreas*p.NLabs)
	for _, area := range snap.Areas {
		for _, lab := range snap.Labs {
			pairs = append(pairs, [2]Coordinate{area.Coordinate, lab.Coordinate})
		}
	}

	results, err := b.Distances.Batch(ctx, pairs)
	if err != nil {
		return fmt.Errorf("%w: distance batch failed: %v", ErrInvalidNetwork, err)
	}
	if len(results) != len(pairs) {
		return fmt.Errorf("%w: distance provider returned %d results for %d pairs", ErrInvalidNetwork, len(results), len(pairs))
	}

	p.DistKM = make([]float64, p.NAreas*p.NLabs)
	p.TimeMin = make([]float64, p.NAreas*p.NLabs)

	usedExternal, usedFallback := false, false
	for i, r := range results {
		p.DistKM[i] = r.KM
		p.TimeMin[i] = r.Minutes
		switch r.Source {
		case "external":
			usedExternal = true
		default:
			usedFallback = true
		}
	}

	switch {
	case usedExternal && usedFallback:
		p.RoutingSource = RoutingSourceMixed
	case usedFallback:
		p.RoutingSource = RoutingSourceFallback
	default:
		p.RoutingSource = RoutingSourceExternal
	}

	if p.RoutingSource != RoutingSourceExternal {
		klog.Warningf("problem build: routing degraded to %s for at least one pair", p.RoutingSource)
	}

	return nil
}

func validateSnapshot(snap *NetworkSnapshot) error {
	if len(snap.Areas) == 0 {
		return fmt.Errorf("%w: network has no service areas", ErrInvalidNetwork)
	}
	if len(snap.Labs) == 0 {
		return fmt.Errorf("%w: network has no laboratories", ErrInvalidNetwork)
	}
	if len(snap.TestIDs) == 0 {
		return fmt.Errorf("%w: network has no test types", ErrInvalidNetwork)
	}
	for _, a := range snap.Areas {
		if err := validateCoordinate(a.Coordinate); err != nil {
			return fmt.Errorf("%w: area %q: %v", ErrInvalidNetwork, a.ID, err)
		}
		if a.Population < 0 {
			return fmt.Errorf("%w: area %q has negative population", ErrInvalidNetwork, a.ID)
		}
	}
	for _, l := range snap.Labs {
		if err := validateCoordinate(l.Coordinate); err != nil {
			return fmt.Errorf("%w: lab %q: %v", ErrInvalidNetwork, l.ID, err)
		}
		if l.MaxPerDay <= 0 || l.MaxPerMonth <= 0 || l.StaffCount <= 0 {
			return fmt.Errorf("%w: lab %q has non-positive capacity", ErrInvalidNetwork, l.ID)
		}
		if l.UtilFactor <= 0 {
			return fmt.Errorf("%w: lab %q has non-positive util_factor", ErrInvalidNetwork, l.ID)
		}
	}
	return nil
}

func validateCoordinate(c Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("coordinate is NaN")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %.6f out of [-90,90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %.6f out of [-180,180]", c.Lng)
	}
	return nil
}

// ValidateParameters checks the Σw=1 (within 1e-6) and threshold-sanity
// invariants on Parameters.
func ValidateParameters(p *Parameters) error {
	sum := 0.0
	for _, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("%w: objective weight %.6f is negative", ErrInvalidParameters, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("%w: objective weights sum to %.9f, want 1 within 1e-6", ErrInvalidParameters, sum)
	}
	if p.MinUtilization < 0 || p.MaxUtilization > 1 || p.MinUtilization > p.MaxUtilization {
		return fmt.Errorf("%w: utilization bounds [%.3f,%.3f] invalid", ErrInvalidParameters, p.MinUtilization, p.MaxUtilization)
	}
	if p.PopulationSize <= 0 || p.MaxGenerations <= 0 {
		return fmt.Errorf("%w: population_size and max_generations must be positive", ErrInvalidParameters)
	}
	if p.TournamentSize <= 0 || p.TournamentSize > p.PopulationSize {
		return fmt.Errorf("%w: tournament_size must be in (0,population_size]", ErrInvalidParameters)
	}
	if p.EliteSize < 0 || p.EliteSize > p.PopulationSize {
		return fmt.Errorf("%w: elite_size must be in [0,population_size]", ErrInvalidParameters)
	}
	return nil
}
