//go:build !gym
// +build !gym

package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/rainbow/environment"
)

func createGym(name string, _ uint64) (env.Environment, error) {
	return nil, fmt.Errorf("createGym: cannot create %v, Gym environments "+
		"require building with the gym tag", name)
}
