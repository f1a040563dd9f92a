package objectives

import (
	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/problem"
)

const penaltyLambda = 1.0

// Penalty computes the scalar soft-constraint violation penalty:
// quadratic overage penalties for distance/travel-time thresholds, a
// linear shortfall penalty for quality, and a quadratic penalty for
// utilization outside [min_util,max_util].
func Penalty(al *allocation.Allocation, p *problem.Problem, params *problem.Parameters) float64 {
	var penalty float64

	for a := 0; a < al.NAreas; a++ {
		for j := 0; j < al.NLabs; j++ {
			dist := p.DistanceAt(a, j)
			travel := p.TimeAt(a, j)
			for t := 0; t < al.NTests; t++ {
				v := al.At(a, j, t)
				if v == 0 {
					continue
				}
				weight := float64(v)

				if params.MaxDistanceKM > 0 && dist > params.MaxDistanceKM {
					excess := dist - params.MaxDistanceKM
					ratio := excess / params.MaxDistanceKM
					penalty += weight * penaltyLambda * ratio * ratio
				}
				if params.MaxTravelTimeMinutes > 0 && travel > params.MaxTravelTimeMinutes {
					excess := travel - params.MaxTravelTimeMinutes
					ratio := excess / params.MaxTravelTimeMinutes
					penalty += weight * penaltyLambda * ratio * ratio
				}

				idx := j*p.NTests + t
				if q := p.Quality[idx]; q < params.MinQuality {
					penalty += weight * penaltyLambda * (params.MinQuality - q)
				}
			}
		}
	}

	for j := 0; j < al.NLabs; j++ {
		available := p.AvailableMinutes(j)
		if available <= 0 {
			continue
		}
		util := al.ProcessingMinutesForLab(p, j) / available
		if util < params.MinUtilization {
			violation := params.MinUtilization - util
			penalty += penaltyLambda * violation * violation
		} else if util > params.MaxUtilization {
			violation := util - params.MaxUtilization
			penalty += penaltyLambda * violation * violation
		}
	}

	return penalty
}
