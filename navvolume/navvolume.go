// Package navvolume builds navigation volumes: sparse occupancy octrees over a cube of space,
// constructed from an occupancy grid in two parallel phases.
package navvolume

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"go.viam.com/navvolume/octree"
	"go.viam.com/navvolume/workerpool"
)

// PhaseStats describes one phase of a run.
type PhaseStats struct {
	Duration time.Duration
	workerpool.GroupStats
}

// Stats describes a completed run.
type Stats struct {
	Construct     PhaseStats
	Reduce        PhaseStats
	Compact       time.Duration
	OccupiedCells int
	// ArenaNodes is the number of nodes allocated for construction, Nodes the number kept.
	ArenaNodes  int
	Nodes       int
	LevelCounts []int
}

// Total returns the time spent in all phases.
func (s Stats) Total() time.Duration {
	return s.Construct.Duration + s.Reduce.Duration + s.Compact
}

// NavVolume is the result of a completed run. It does not change after creation.
type NavVolume struct {
	id         uuid.UUID
	center     r3.Vector
	depth      int
	sideLength float64
	tree       *octree.Octree
	stats      Stats
}

// ID identifies the run that built the volume.
func (v *NavVolume) ID() uuid.UUID {
	return v.id
}

// Center returns the center of the volume.
func (v *NavVolume) Center() r3.Vector {
	return v.center
}

// Depth returns the maximum subdivision depth.
func (v *NavVolume) Depth() int {
	return v.depth
}

// SideLength returns the side of the cube covered by the root.
func (v *NavVolume) SideLength() float64 {
	return v.sideLength
}

// Root returns the root of the reduced tree. It always exists; an unoccupied root with no children
// is an empty volume.
func (v *NavVolume) Root() octree.Node {
	return v.tree.Root()
}

// Tree returns the reduced tree.
func (v *NavVolume) Tree() *octree.Octree {
	return v.tree
}

// Stats returns timings and counts from the run that built the volume.
func (v *NavVolume) Stats() Stats {
	return v.stats
}
