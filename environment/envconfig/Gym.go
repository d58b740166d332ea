//go:build gym
// +build gym

package envconfig

import (
	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/environment/gym"
)

func createGym(name string, seed uint64) (env.Environment, error) {
	e, _, err := gym.New(name, seed)
	if err != nil {
		return nil, err
	}
	return e, nil
}
