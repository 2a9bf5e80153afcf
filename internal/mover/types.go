package mover

import (
	"sync/atomic"

	"drivemover/internal/config"
	"drivemover/internal/remote"
	"drivemover/internal/scan"
)

// State is the orchestrator's lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateResolving
	StateRunning
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

type stateHolder struct {
	v atomic.Int32
}

func (h *stateHolder) set(s State) { h.v.Store(int32(s)) }

func (h *stateHolder) get() State { return State(h.v.Load()) }

// StopReason explains why a run ended.
type StopReason string

const (
	ReasonCompleted      StopReason = "completed"
	ReasonInterrupted    StopReason = "interrupted"
	ReasonSessionExpired StopReason = "session_expired"
	ReasonAuthFailure    StopReason = "auth_failure"
)

// Mapping is a configured mapping with its resolved folder IDs.
type Mapping struct {
	config.PathMapping
	SourceID remote.FolderID
	TargetID remote.FolderID
}

// DroppedMapping is a mapping excluded from the run during resolution.
type DroppedMapping struct {
	Mapping config.PathMapping
	Err     error
}

// CycleStats counts move outcomes.
type CycleStats struct {
	Moved  int
	Failed int
}

// Add accumulates other into s.
func (s *CycleStats) Add(other CycleStats) {
	s.Moved += other.Moved
	s.Failed += other.Failed
}

// MappingReport describes one mapping's work in a cycle.
type MappingReport struct {
	Mapping config.PathMapping
	Scan    scan.Stats
	Stats   CycleStats
	Skipped bool
}

// CycleReport describes one cycle.
type CycleReport struct {
	Cycle         int
	CorrelationID string
	Stats         CycleStats
	Mappings      []MappingReport
}

// Result summarizes a finished run.
type Result struct {
	Reason     StopReason
	Cycles     int
	Totals     CycleStats
	PerMapping map[string]CycleStats
	Active     []Mapping
	Dropped    []DroppedMapping
	// LastCycle is the report of the final cycle that ran, if any.
	LastCycle *CycleReport
}
