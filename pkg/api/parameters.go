package api

import (
	"time"

	"github.com/cdstlab/optimizer/internal/problem"
)

// ParametersConfig is the external, file- or flag-loadable form of
// problem.Parameters. TimeoutSeconds is a plain float rather than a
// time.Duration so it round-trips through JSON without a custom
// marshaler.
type ParametersConfig struct {
	Weights              [5]float64 `json:"weights"`
	MaxDistanceKM        float64    `json:"maxDistanceKm"`
	MaxTravelTimeMinutes float64    `json:"maxTravelTimeMinutes"`
	MinUtilization       float64    `json:"minUtilization"`
	MaxUtilization       float64    `json:"maxUtilization"`
	MinQuality           float64    `json:"minQuality"`
	PopulationSize       int        `json:"populationSize"`
	MaxGenerations       int        `json:"maxGenerations"`
	CrossoverRate        float64    `json:"crossoverRate"`
	MutationRate         float64    `json:"mutationRate"`
	TournamentSize       int        `json:"tournamentSize"`
	EliteSize            int        `json:"eliteSize"`
	ConvergenceWindow    int        `json:"convergenceWindow"`
	ConvergenceThreshold float64    `json:"convergenceThreshold"`
	DiversityThreshold   float64    `json:"diversityThreshold"`
	CheckpointInterval   int        `json:"checkpointInterval"`
	TimeoutSeconds       float64    `json:"timeoutSeconds"`
	Seed                 *int64     `json:"seed,omitempty"`
}

// DefaultParametersConfig mirrors problem.DefaultParameters as the
// externally-visible default set, so the CLI's flag defaults and a
// from-scratch config file agree.
func DefaultParametersConfig() ParametersConfig {
	d := problem.DefaultParameters()
	return ParametersConfig{
		Weights:              d.Weights,
		MaxDistanceKM:        d.MaxDistanceKM,
		MaxTravelTimeMinutes: d.MaxTravelTimeMinutes,
		MinUtilization:       d.MinUtilization,
		MaxUtilization:       d.MaxUtilization,
		MinQuality:           d.MinQuality,
		PopulationSize:       d.PopulationSize,
		MaxGenerations:       d.MaxGenerations,
		CrossoverRate:        d.CrossoverRate,
		MutationRate:         d.MutationRate,
		TournamentSize:       d.TournamentSize,
		EliteSize:            d.EliteSize,
		ConvergenceWindow:    d.ConvergenceWindow,
		ConvergenceThreshold: d.ConvergenceThreshold,
		DiversityThreshold:   d.DiversityThreshold,
		CheckpointInterval:   d.CheckpointInterval,
		TimeoutSeconds:       d.TimeBudget.Seconds(),
		Seed:                 d.Seed,
	}
}

// ToParameters converts the external config into problem.Parameters.
func (c ParametersConfig) ToParameters() *problem.Parameters {
	return &problem.Parameters{
		Weights:              c.Weights,
		MaxDistanceKM:        c.MaxDistanceKM,
		MaxTravelTimeMinutes: c.MaxTravelTimeMinutes,
		MinUtilization:       c.MinUtilization,
		MaxUtilization:       c.MaxUtilization,
		MinQuality:           c.MinQuality,
		PopulationSize:       c.PopulationSize,
		MaxGenerations:       c.MaxGenerations,
		CrossoverRate:        c.CrossoverRate,
		MutationRate:         c.MutationRate,
		TournamentSize:       c.TournamentSize,
		EliteSize:            c.EliteSize,
		ConvergenceWindow:    c.ConvergenceWindow,
		ConvergenceThreshold: c.ConvergenceThreshold,
		DiversityThreshold:   c.DiversityThreshold,
		CheckpointInterval:   c.CheckpointInterval,
		TimeBudget:           time.Duration(c.TimeoutSeconds * float64(time.Second)),
		Seed:                 c.Seed,
	}
}
