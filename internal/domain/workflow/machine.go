package workflow

import "fmt"

// TransitionTable maps each state to the triggers permitted in it and the
// state each trigger leads to. States absent from the table (terminal
// states) permit no triggers at all.
type TransitionTable map[State]map[Trigger]State

// Machine tracks the current state of a single expense and validates
// transitions against a fixed table. It is a plain value, not safe for
// concurrent use; each request builds its own machine from the persisted
// status.
type Machine struct {
	current State
	table   TransitionTable
}

// NewMachine creates a machine positioned at initial with the given table.
func NewMachine(initial State, table TransitionTable) (*Machine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}
	for from, triggers := range table {
		if !from.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidState, from)
		}
		for _, to := range triggers {
			if !to.IsValid() {
				return nil, fmt.Errorf("%w: %s", ErrInvalidState, to)
			}
		}
	}
	return &Machine{current: initial, table: table}, nil
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	triggers, ok := m.table[m.current]
	if !ok {
		return false
	}
	_, ok = triggers[trigger]
	return ok
}

// Fire executes the trigger, transitioning to the new state if allowed
func (m *Machine) Fire(trigger Trigger) error {
	triggers, ok := m.table[m.current]
	if !ok {
		return fmt.Errorf("%w: trigger %s from terminal state %s", ErrInvalidTransition, trigger, m.current)
	}
	to, ok := triggers[trigger]
	if !ok {
		return fmt.Errorf("%w: trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = to
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current state
func (m *Machine) PermittedTriggers() []Trigger {
	triggers, ok := m.table[m.current]
	if !ok {
		return nil
	}
	out := make([]Trigger, 0, len(triggers))
	for t := range triggers {
		out = append(out, t)
	}
	return out
}
