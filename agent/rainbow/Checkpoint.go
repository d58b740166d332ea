package rainbow

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aunum/log"
	"github.com/samuelfneumann/rainbow/network"
	"gorgonia.org/tensor"
)

// checkpoint is the serialized learned state of a Rainbow agent
type checkpoint struct {
	Network []byte // JSON encoded network.Config
	Shapes  [][]int
	Weights [][]float64
	Epsilon float64
}

// GobEncode implements the gob.GobEncoder interface
func (r *Rainbow) GobEncode() ([]byte, error) {
	config, err := json.Marshal(r.trainNet.Config())
	if err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode network "+
			"config: %v", err)
	}

	weights := r.trainNet.Weights()
	c := checkpoint{
		Network: config,
		Shapes:  make([][]int, len(weights)),
		Weights: make([][]float64, len(weights)),
		Epsilon: r.egreedy.Epsilon(),
	}
	for i, w := range weights {
		c.Shapes[i] = []int(w.Shape().Clone())
		c.Weights[i] = w.Data().([]float64)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded
// weights are applied to every network of the agent, which must have
// been created with the same network architecture.
func (r *Rainbow) GobDecode(in []byte) error {
	var c checkpoint
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&c); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	var config network.Config
	if err := json.Unmarshal(c.Network, &config); err != nil {
		return fmt.Errorf("gobDecode: could not decode network config: %v",
			err)
	}
	if have := r.trainNet.Type(); config.Type != have {
		return fmt.Errorf("gobDecode: incompatible network types"+
			"\n\twant(%v)\n\thave(%v)", config.Type, have)
	}
	if have := r.trainNet.Config().Support; config.Type.IsDistributional() &&
		config.Support != have {
		return fmt.Errorf("gobDecode: incompatible supports\n\twant(%v)"+
			"\n\thave(%v)", config.Support, have)
	}

	if len(c.Shapes) != len(c.Weights) {
		return fmt.Errorf("gobDecode: corrupt checkpoint, %v shapes for %v "+
			"weights", len(c.Shapes), len(c.Weights))
	}
	weights := make([]*tensor.Dense, len(c.Weights))
	for i := range weights {
		weights[i] = tensor.New(tensor.WithShape(c.Shapes[i]...),
			tensor.WithBacking(c.Weights[i]))
	}

	if err := r.trainNet.SetWeights(weights); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if err := r.sync(); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	r.egreedy.Set(c.Epsilon)
	return nil
}

// sync copies the weights of trainNet into every other network
func (r *Rainbow) sync() error {
	if err := r.actNet.Set(r.trainNet); err != nil {
		return err
	}
	if err := r.nextNet.Set(r.trainNet); err != nil {
		return err
	}
	if r.targetNet != nil {
		return r.targetNet.Set(r.trainNet)
	}
	return nil
}

// Save saves the learned state of the agent to filename, creating its
// directory if needed. An existing file is overwritten.
func (r *Rainbow) Save(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save: could not create directory: %v", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(r); err != nil {
		return fmt.Errorf("save: could not encode agent: %v", err)
	}

	log.Infof("checkpoint saved to %v", filename)
	return file.Close()
}

// Load restores the learned state of the agent from filename
func (r *Rainbow) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open checkpoint file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(r); err != nil {
		return fmt.Errorf("load: could not decode agent: %v", err)
	}
	return nil
}
