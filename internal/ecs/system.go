package ecs

import (
	"errors"
	"fmt"
	"sort"

	"blastview/internal/profiling"
)

// Label names a schedule.
type Label int

const (
	Startup Label = iota
	PreUpdate
	Update
	PostUpdate
	Last
)

// FrameLabels are run in this order on every update.
var FrameLabels = []Label{PreUpdate, Update, PostUpdate, Last}

func (l Label) String() string {
	switch l {
	case Startup:
		return "Startup"
	case PreUpdate:
		return "PreUpdate"
	case Update:
		return "Update"
	case PostUpdate:
		return "PostUpdate"
	case Last:
		return "Last"
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// System is one unit of per-frame work.
type System interface {
	Name() string
	Run(w *World) error
	Priority() int // Lower values run first
}

type funcSystem struct {
	name     string
	priority int
	fn       func(*World) error
}

func (s *funcSystem) Name() string       { return s.name }
func (s *funcSystem) Priority() int      { return s.priority }
func (s *funcSystem) Run(w *World) error { return s.fn(w) }

// NewSystem wraps a function as a System with priority 0.
func NewSystem(name string, fn func(*World) error) System {
	return &funcSystem{name: name, fn: fn}
}

// NewSystemWithPriority wraps a function as a System.
func NewSystemWithPriority(name string, priority int, fn func(*World) error) System {
	return &funcSystem{name: name, priority: priority, fn: fn}
}

// Schedule runs its systems in priority order; ties keep registration order.
type Schedule struct {
	systems []System
}

// Add appends systems and re-sorts.
func (s *Schedule) Add(systems ...System) {
	s.systems = append(s.systems, systems...)
	sort.SliceStable(s.systems, func(i, j int) bool {
		return s.systems[i].Priority() < s.systems[j].Priority()
	})
}

// Len returns the number of systems.
func (s *Schedule) Len() int {
	return len(s.systems)
}

// Run executes every system. A failing system does not stop the others;
// all errors are joined and returned.
func (s *Schedule) Run(w *World) error {
	var errs []error
	for _, sys := range s.systems {
		w.IncrementTick()
		if err := runTracked(sys, w); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sys.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func runTracked(sys System, w *World) error {
	defer profiling.Track(sys.Name())()
	return sys.Run(w)
}
