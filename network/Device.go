package network

import "fmt"

// Device selects the hardware a network's virtual machine computes on
type Device string

const (
	CPU  Device = "CPU"
	CUDA Device = "CUDA"
)

// Validate returns an error if d is not a known Device
func (d Device) Validate() error {
	switch d {
	case CPU, CUDA, "":
		return nil
	}
	return fmt.Errorf("validate: unknown device %q", string(d))
}
