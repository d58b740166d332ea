// Package solver wraps Gorgonia Solvers so that they can be stored in
// and restored from JSON configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	RMSProp Type = "RMSProp"
	Vanilla Type = "Vanilla"
)

// registered maps each solver Type to its concrete Config
var registered = map[Type]reflect.Type{
	Adam:    reflect.TypeOf(AdamConfig{}),
	RMSProp: reflect.TypeOf(RMSPropConfig{}),
	Vanilla: reflect.TypeOf(VanillaConfig{}),
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	return &Solver{Solver: c.Create(), Type: t, Config: c}, nil
}

// Clone returns a Solver with the same configuration but freshly
// created Gorgonia Solver state
func (s *Solver) Clone() *Solver {
	return &Solver{Solver: s.Config.Create(), Type: s.Type, Config: s.Config}
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("{%v Solver: %+v}", s.Type, s.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	ty, ok := registered[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown solver type %q", raw.Type)
	}

	config := reflect.New(ty)
	if err := json.Unmarshal(raw.Config, config.Interface()); err != nil {
		return fmt.Errorf("unmarshalJSON: could not unmarshal %v config: %v",
			raw.Type, err)
	}

	s.Type = raw.Type
	s.Config = config.Elem().Interface().(Config)
	s.Solver = s.Config.Create()

	return nil
}
