//go:build cuda
// +build cuda

package network

import G "gorgonia.org/gorgonia"

// VMOpts returns the options needed to run a tape machine on the
// Device
func (d Device) VMOpts() ([]G.VMOpt, error) {
	if d == CUDA {
		return []G.VMOpt{G.UseCudaFor()}, nil
	}
	return nil, nil
}
