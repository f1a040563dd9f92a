// Package api holds the public, JSON/YAML-serializable request and
// response shapes external callers (the CLI, and eventually a REST/
// WebSocket shell) use instead of importing internal packages directly.
package api

import (
	"time"

	"github.com/cdstlab/optimizer/internal/problem"
)

// NetworkConfig is the external, file-loadable form of a network
// snapshot: service areas, laboratories, test capabilities, and demand
// history.
type NetworkConfig struct {
	Areas                   []AreaConfig       `json:"areas"`
	Labs                    []LabConfig        `json:"labs"`
	TestIDs                 []string           `json:"testIds"`
	Capabilities            []CapabilityConfig `json:"capabilities"`
	Demand                  []DemandConfig     `json:"demand"`
	CostPerKM               float64            `json:"costPerKm"`
	MaxAcceptableDistanceKM float64            `json:"maxAcceptableDistanceKm"`
}

// AreaConfig is one service area.
type AreaConfig struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Population float64 `json:"population"`
}

// LabConfig is one laboratory, including its weekly operating-hours
// profile (index 0 = Sunday).
type LabConfig struct {
	ID          string     `json:"id"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	MaxPerDay   float64    `json:"maxPerDay"`
	MaxPerMonth float64    `json:"maxPerMonth"`
	StaffCount  float64    `json:"staffCount"`
	UtilFactor  float64    `json:"utilFactor"`
	Overhead    float64    `json:"overhead"`
	Hours       [7]float64 `json:"hours"`
}

// CapabilityConfig is one (lab, test) processing record. Absent pairs are
// not capable.
type CapabilityConfig struct {
	LabID       string  `json:"labId"`
	TestID      string  `json:"testId"`
	ProcTime    float64 `json:"procTimeMinutes"`
	StaffReq    float64 `json:"staffRequired"`
	EquipUtil   float64 `json:"equipUtil"`
	CostPerTest float64 `json:"costPerTest"`
	Quality     float64 `json:"quality"`
}

// DemandConfig is one dated demand observation.
type DemandConfig struct {
	AreaID string    `json:"areaId"`
	TestID string    `json:"testId"`
	Date   time.Time `json:"date"`
	Count  int32     `json:"count"`
}

// DateWindowConfig bounds demand aggregation; a zero Time on either side
// means unbounded on that side.
type DateWindowConfig struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ToSnapshot converts the external config into the internal
// problem.NetworkSnapshot the Builder consumes.
func (c NetworkConfig) ToSnapshot() *problem.NetworkSnapshot {
	snap := &problem.NetworkSnapshot{
		TestIDs:                 c.TestIDs,
		CostPerKM:               c.CostPerKM,
		MaxAcceptableDistanceKM: c.MaxAcceptableDistanceKM,
	}

	snap.Areas = make([]problem.AreaSnapshot, len(c.Areas))
	for i, a := range c.Areas {
		snap.Areas[i] = problem.AreaSnapshot{
			ID:         a.ID,
			Coordinate: problem.Coordinate{Lat: a.Lat, Lng: a.Lng},
			Population: a.Population,
		}
	}

	snap.Labs = make([]problem.LabSnapshot, len(c.Labs))
	for i, l := range c.Labs {
		snap.Labs[i] = problem.LabSnapshot{
			ID:          l.ID,
			Coordinate:  problem.Coordinate{Lat: l.Lat, Lng: l.Lng},
			MaxPerDay:   l.MaxPerDay,
			MaxPerMonth: l.MaxPerMonth,
			StaffCount:  l.StaffCount,
			UtilFactor:  l.UtilFactor,
			Overhead:    l.Overhead,
			Hours:       l.Hours,
		}
	}

	snap.Capabilities = make([]problem.Capability, len(c.Capabilities))
	for i, capa := range c.Capabilities {
		snap.Capabilities[i] = problem.Capability{
			LabID:       capa.LabID,
			TestID:      capa.TestID,
			ProcTime:    capa.ProcTime,
			StaffReq:    capa.StaffReq,
			EquipUtil:   capa.EquipUtil,
			CostPerTest: capa.CostPerTest,
			Quality:     capa.Quality,
		}
	}

	snap.Demand = make([]problem.DemandRecord, len(c.Demand))
	for i, d := range c.Demand {
		snap.Demand[i] = problem.DemandRecord{
			AreaID: d.AreaID,
			TestID: d.TestID,
			Date:   d.Date,
			Count:  d.Count,
		}
	}

	return snap
}

// ToWindow converts a DateWindowConfig into problem.DateWindow.
func (c DateWindowConfig) ToWindow() problem.DateWindow {
	return problem.DateWindow{From: c.From, To: c.To}
}
