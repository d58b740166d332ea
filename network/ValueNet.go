// Package network implements the value networks of DQN-style agents as
// Gorgonia computational graphs. All architectures share the ValueNet
// interface and are selected by the Type of their Config.
package network

import (
	"fmt"

	"github.com/samuelfneumann/rainbow/distribution"
	"github.com/samuelfneumann/rainbow/utils/op"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ValueNet is a value network with a fixed batch size. Given a batch of
// observations and the legal actions of each observation, a ValueNet
// predicts either one value per action or, for distributional networks,
// a categorical distribution over the support per action.
//
// A ValueNet only builds a graph. Running the graph is done by a
// Gorgonia VM created by the caller.
type ValueNet interface {
	Graph() *G.ExprGraph
	Config() Config
	Type() Type

	BatchSize() int
	Features() int
	Actions() int

	// Atoms returns the number of outputs per action, 1 if the network
	// is not distributional
	Atoms() int

	// SetInput sets the batch of observations, given in row-major
	// order with shape (batch, features)
	SetInput(obs []float64) error

	// SetMask sets the legal actions of each row in the batch. A nil
	// legal, or a nil row, marks all actions as legal. Distributional
	// networks only validate legal: their distributions are not masked,
	// and callers must restrict the arg-max of ActionValues to the
	// legal actions themselves.
	SetMask(legal [][]int) error

	// Set copies the learnable weights of source into the ValueNet
	Set(source ValueNet) error

	// CloneWithBatch returns a copy of the ValueNet in a new graph with
	// a new batch size. Weights and noise are copied.
	CloneWithBatch(batch int) (ValueNet, error)

	Learnables() G.Nodes
	Model() []G.ValueGrad
	Noisy() []*NoisyLayer

	// Prediction returns the output node of the graph. For scalar
	// networks it has shape (batch, actions) and for distributional
	// networks (batch*actions, atoms).
	Prediction() *G.Node
	Output() G.Value

	// ActionValues returns the predicted value of each action for each
	// row of the batch, read from the last run of the graph
	ActionValues() ([][]float64, error)

	// Distributions returns the predicted distribution of each action
	// for each row of the batch, read from the last run of the graph.
	// Distributions returns an error for scalar networks.
	Distributions() ([][][]float64, error)

	// Weights returns copies of the learnable weights
	Weights() []*tensor.Dense

	// SetWeights sets the learnable weights to copies of weights
	SetWeights(weights []*tensor.Dense) error
}

// valueNet implements all ValueNet architectures. The trunk is a stack
// of dense layers. Non-dueling networks add a single output stream on
// top of the trunk, dueling networks add a value and an advantage
// stream.
type valueNet struct {
	g      *G.ExprGraph
	config Config

	features int
	actions  int
	batch    int

	input   *G.Node // (batch, features)
	mask    *G.Node // (batch, actions)
	penalty *G.Node // (batch, actions)

	layers []layer
	noisy  []*NoisyLayer

	prediction *G.Node
	predVal    G.Value
	learnables G.Nodes
	model      []G.ValueGrad
}

// New returns a new ValueNet described by c, taking observations of
// size features and predicting values for the given number of actions.
func New(c Config, features, actions, batch int) (ValueNet, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if features < 1 || actions < 1 || batch < 1 {
		return nil, fmt.Errorf("new: features, actions, and batch must be "+
			"positive\n\twant(>=1)\n\thave(%v, %v, %v)", features, actions,
			batch)
	}
	if c.Activation == "" {
		c.Activation = ReLU
	}

	init := G.GlorotU(1.0)
	if c.InitWFn != nil {
		init = c.InitWFn.InitWFn()
	}

	g := G.NewGraph()
	net := &valueNet{
		g:        g,
		config:   c,
		features: features,
		actions:  actions,
		batch:    batch,
	}

	net.input = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Distributional heads are never masked, so they have no mask nodes
	if !c.Type.IsDistributional() {
		net.mask = G.NewMatrix(g, tensor.Float64,
			G.WithShape(batch, actions), G.WithName("mask"),
			G.WithInit(G.Ones()))
		net.penalty = G.NewMatrix(g, tensor.Float64,
			G.WithShape(batch, actions), G.WithName("penalty"),
			G.WithInit(G.Zeroes()))
	}

	pred, err := net.fwd(init)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute forward pass: %v", err)
	}
	net.prediction = pred
	G.Read(net.prediction, &net.predVal)

	return net, nil
}

// fwd adds all layers and output heads to the graph, returning the
// prediction node
func (v *valueNet) fwd(init G.InitWFn) (*G.Node, error) {
	x := v.input
	in := v.features

	var err error
	for i, size := range v.config.Hidden {
		l := newDense(v.g, in, size, v.config.Activation, init,
			fmt.Sprintf("hidden%d", i))
		v.layers = append(v.layers, l)

		if x, err = l.fwd(x); err != nil {
			return nil, fmt.Errorf("fwd: hidden layer %v: %v", i, err)
		}
		in = size
	}

	atoms := v.config.atoms()

	if !v.config.Type.IsDueling() {
		out, err := v.stream(x, in, v.actions*atoms, init, "head")
		if err != nil {
			return nil, err
		}

		if v.config.Type.IsDistributional() {
			return v.categorical(out)
		}
		return v.maskScores(out)
	}

	adv, err := v.stream(x, in, v.actions*atoms, init, "advantage")
	if err != nil {
		return nil, err
	}
	val, err := v.stream(x, in, atoms, init, "value")
	if err != nil {
		return nil, err
	}

	if v.config.Type.IsDistributional() {
		logits, err := duelAtoms(v.g, val, adv, v.actions, atoms)
		if err != nil {
			return nil, fmt.Errorf("fwd: %v", err)
		}
		return v.categorical(logits)
	}

	masked, err := v.maskScores(adv)
	if err != nil {
		return nil, err
	}
	normalized, err := G.SoftMax(masked)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not normalize advantages: %v", err)
	}

	q, err := duel(v.g, val, normalized, v.actions)
	if err != nil {
		return nil, fmt.Errorf("fwd: %v", err)
	}
	return q, nil
}

// stream adds a stack of hidden layers followed by an output layer with
// out units. The layers are noisy if the network is noisy.
func (v *valueNet) stream(x *G.Node, in, out int, init G.InitWFn,
	name string) (*G.Node, error) {
	sizes := append(append([]int{}, v.config.Streams...), out)

	var err error
	for i, size := range sizes {
		act := v.config.Activation
		if i == len(sizes)-1 {
			act = Identity
		}
		layerName := fmt.Sprintf("%s%d", name, i)

		var l layer
		if v.config.Type.IsNoisy() {
			noisy := newNoisy(v.g, in, size, act, v.config.SigmaInit,
				layerName)
			v.noisy = append(v.noisy, noisy)
			l = noisy
		} else {
			l = newDense(v.g, in, size, act, init, layerName)
		}
		v.layers = append(v.layers, l)

		if x, err = l.fwd(x); err != nil {
			return nil, fmt.Errorf("stream: %v layer %v: %v", name, i, err)
		}
		in = size
	}

	return x, nil
}

// maskScores replaces the scores of illegal actions with
// IllegalPenalty, x must have shape (batch, actions)
func (v *valueNet) maskScores(x *G.Node) (*G.Node, error) {
	masked, err := G.HadamardProd(x, v.mask)
	if err != nil {
		return nil, fmt.Errorf("maskScores: %v", err)
	}
	return G.Add(masked, v.penalty)
}

// categorical converts logits of shape (batch, actions*atoms) into
// distributions of shape (batch*actions, atoms). Each distribution is
// clamped below at distribution.MinMass.
func (v *valueNet) categorical(logits *G.Node) (*G.Node, error) {
	atoms := v.config.atoms()

	logits, err := G.Reshape(logits, tensor.Shape{v.batch * v.actions, atoms})
	if err != nil {
		return nil, fmt.Errorf("categorical: could not reshape: %v", err)
	}

	probs, err := G.SoftMax(logits)
	if err != nil {
		return nil, fmt.Errorf("categorical: could not normalize: %v", err)
	}

	return op.ClampMin(probs, distribution.MinMass)
}

// Graph returns the computational graph of the network
func (v *valueNet) Graph() *G.ExprGraph {
	return v.g
}

// Config returns the Config the network was built with
func (v *valueNet) Config() Config {
	return v.config
}

// Type returns the architecture of the network
func (v *valueNet) Type() Type {
	return v.config.Type
}

// BatchSize returns the batch size of inputs to the network
func (v *valueNet) BatchSize() int {
	return v.batch
}

// Features returns the number of features in a single observation
func (v *valueNet) Features() int {
	return v.features
}

// Actions returns the number of actions the network predicts for
func (v *valueNet) Actions() int {
	return v.actions
}

// Atoms returns the number of outputs per action
func (v *valueNet) Atoms() int {
	return v.config.atoms()
}

// SetInput sets the value of the input node before running the forward
// pass.
func (v *valueNet) SetInput(obs []float64) error {
	if len(obs) != v.features*v.batch {
		msg := fmt.Sprintf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", v.features*v.batch, len(obs))
		panic(msg)
	}

	input := make([]float64, len(obs))
	copy(input, obs)
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(v.batch, v.features),
	)
	return G.Let(v.input, inputTensor)
}

// SetMask sets the legal actions of each row in the batch. For
// distributional networks legal is only validated.
func (v *valueNet) SetMask(legal [][]int) error {
	mask, penalty, err := legalMask(legal, v.batch, v.actions)
	if err != nil {
		return fmt.Errorf("setMask: %v", err)
	}
	if v.mask == nil {
		return nil
	}

	err = G.Let(v.mask, tensor.New(tensor.WithBacking(mask),
		tensor.WithShape(v.batch, v.actions)))
	if err != nil {
		return fmt.Errorf("setMask: could not set mask: %v", err)
	}

	err = G.Let(v.penalty, tensor.New(tensor.WithBacking(penalty),
		tensor.WithShape(v.batch, v.actions)))
	if err != nil {
		return fmt.Errorf("setMask: could not set penalty: %v", err)
	}
	return nil
}

// Set sets the weights of the network to be equal to the weights of
// source. The weights are copied, so that source and the network never
// share memory.
func (v *valueNet) Set(source ValueNet) error {
	sourceNodes := source.Learnables()
	nodes := v.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: invalid number of learnables\n\twant(%v)"+
			"\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, dest := range nodes {
		if !dest.Shape().Eq(sourceNodes[i].Shape()) {
			return fmt.Errorf("set: incompatible shapes for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", i, dest.Shape(),
				sourceNodes[i].Shape())
		}

		weights := sourceNodes[i].Value().(*tensor.Dense).Clone().(*tensor.Dense)
		if err := G.Let(dest, weights); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

// CloneWithBatch clones the network with a new input batch size
func (v *valueNet) CloneWithBatch(batch int) (ValueNet, error) {
	clone, err := New(v.config, v.features, v.actions, batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}

	if err := clone.Set(v); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}

	for i, l := range v.noisy {
		w, b := l.Noise()
		if err := clone.Noisy()[i].SetNoise(w, b); err != nil {
			return nil, fmt.Errorf("cloneWithBatch: %v", err)
		}
	}

	return clone, nil
}

// Learnables returns the learnable nodes of the network
func (v *valueNet) Learnables() G.Nodes {
	// Lazy instantiation
	if v.learnables == nil {
		learnables := make(G.Nodes, 0, 4*len(v.layers))
		for _, l := range v.layers {
			learnables = append(learnables, l.learnables()...)
		}
		v.learnables = learnables
	}
	return v.learnables
}

// Model returns the learnable nodes with their gradients
func (v *valueNet) Model() []G.ValueGrad {
	if v.model == nil {
		learnables := v.Learnables()
		model := make([]G.ValueGrad, len(learnables))
		for i, node := range learnables {
			model[i] = node
		}
		v.model = model
	}
	return v.model
}

// Noisy returns the noisy layers of the network in construction order
func (v *valueNet) Noisy() []*NoisyLayer {
	return v.noisy
}

// Prediction returns the output node of the network
func (v *valueNet) Prediction() *G.Node {
	return v.prediction
}

// Output returns the value of the output node from the last run of the
// graph
func (v *valueNet) Output() G.Value {
	return v.predVal
}

// outputData returns the raw data of the output
func (v *valueNet) outputData() ([]float64, error) {
	if v.predVal == nil {
		return nil, fmt.Errorf("outputData: graph has not been run")
	}
	data, ok := v.predVal.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("outputData: unexpected output type %T",
			v.predVal.Data())
	}
	return data, nil
}

// ActionValues returns the predicted action values from the last run
func (v *valueNet) ActionValues() ([][]float64, error) {
	data, err := v.outputData()
	if err != nil {
		return nil, fmt.Errorf("actionValues: %v", err)
	}

	values := make([][]float64, v.batch)
	if !v.config.Type.IsDistributional() {
		for i := range values {
			values[i] = make([]float64, v.actions)
			copy(values[i], data[i*v.actions:(i+1)*v.actions])
		}
		return values, nil
	}

	support := v.config.Support
	atoms := support.Atoms
	for i := range values {
		values[i] = make([]float64, v.actions)
		for a := range values[i] {
			start := (i*v.actions + a) * atoms
			values[i][a] = support.Expectation(data[start : start+atoms])
		}
	}
	return values, nil
}

// Distributions returns the predicted distributions from the last run
func (v *valueNet) Distributions() ([][][]float64, error) {
	if !v.config.Type.IsDistributional() {
		return nil, fmt.Errorf("distributions: network type %v is not "+
			"distributional", v.config.Type)
	}

	data, err := v.outputData()
	if err != nil {
		return nil, fmt.Errorf("distributions: %v", err)
	}

	atoms := v.config.Support.Atoms
	dists := make([][][]float64, v.batch)
	for i := range dists {
		dists[i] = make([][]float64, v.actions)
		for a := range dists[i] {
			start := (i*v.actions + a) * atoms
			dists[i][a] = make([]float64, atoms)
			copy(dists[i][a], data[start:start+atoms])
		}
	}
	return dists, nil
}

// Weights returns copies of the learnable weights
func (v *valueNet) Weights() []*tensor.Dense {
	learnables := v.Learnables()
	weights := make([]*tensor.Dense, len(learnables))
	for i, node := range learnables {
		weights[i] = node.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	}
	return weights
}

// SetWeights sets the learnable weights to copies of weights
func (v *valueNet) SetWeights(weights []*tensor.Dense) error {
	learnables := v.Learnables()
	if len(weights) != len(learnables) {
		return fmt.Errorf("setWeights: invalid number of weights\n\twant(%v)"+
			"\n\thave(%v)", len(learnables), len(weights))
	}

	for i, node := range learnables {
		if !node.Shape().Eq(weights[i].Shape()) {
			return fmt.Errorf("setWeights: incompatible shapes for weight %v"+
				"\n\twant(%v)\n\thave(%v)", i, node.Shape(), weights[i].Shape())
		}
		if err := G.Let(node, weights[i].Clone().(*tensor.Dense)); err != nil {
			return fmt.Errorf("setWeights: could not set weight %v: %v", i, err)
		}
	}
	return nil
}
