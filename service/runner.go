package service

import "fmt"

type registered struct {
	svc  Service
	args []any
}

// Runner initializes and starts services in dependency order and stops
// them in reverse.
type Runner struct {
	order  []registered
	byName map[string]int
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{byName: make(map[string]int)}
}

// Register adds a service with its Init args. Registration order is
// preserved among services with no dependency relation.
func (r *Runner) Register(svc Service, args ...any) error {
	if _, ok := r.byName[svc.Name()]; ok {
		return fmt.Errorf("service: duplicate name %q", svc.Name())
	}
	r.byName[svc.Name()] = len(r.order)
	r.order = append(r.order, registered{svc: svc, args: args})
	return nil
}

// Start initializes all services, then starts them, in dependency
// order. The first failure aborts and stops everything already
// started.
func (r *Runner) Start() error {
	sorted, err := r.sorted()
	if err != nil {
		return err
	}
	for _, reg := range sorted {
		if err := reg.svc.Init(reg.args...); err != nil {
			return fmt.Errorf("service %q init: %w", reg.svc.Name(), err)
		}
	}
	for i, reg := range sorted {
		if err := reg.svc.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				sorted[j].svc.Stop()
			}
			return fmt.Errorf("service %q start: %w", reg.svc.Name(), err)
		}
	}
	return nil
}

// Stop halts all services in reverse dependency order. Stop is
// idempotent per the Service contract, so repeated calls are safe.
func (r *Runner) Stop() {
	sorted, err := r.sorted()
	if err != nil {
		sorted = r.order
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i].svc.Stop()
	}
}

// sorted returns services in dependency order, detecting cycles and
// unknown dependencies.
func (r *Runner) sorted() ([]registered, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(r.order))
	out := make([]registered, 0, len(r.order))

	var visit func(name string) error
	visit = func(name string) error {
		idx, ok := r.byName[name]
		if !ok {
			return fmt.Errorf("service: unknown dependency %q", name)
		}
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("service: dependency cycle through %q", name)
		}
		state[name] = visiting
		for _, dep := range r.order[idx].svc.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		out = append(out, r.order[idx])
		return nil
	}

	for _, reg := range r.order {
		if err := visit(reg.svc.Name()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
