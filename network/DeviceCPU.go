//go:build !cuda
// +build !cuda

package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// VMOpts returns the options needed to run a tape machine on the
// Device. Without the cuda build tag only the CPU is available.
func (d Device) VMOpts() ([]G.VMOpt, error) {
	if d == CUDA {
		return nil, fmt.Errorf("vmOpts: CUDA requires building with the " +
			"cuda tag")
	}
	return nil, nil
}
