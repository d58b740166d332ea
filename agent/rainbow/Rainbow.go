// Package rainbow implements a DQN agent which can use any combination
// of the Rainbow extensions: double Q-learning, dueling networks, noisy
// networks, and distributional value estimation.
package rainbow

import (
	"fmt"

	"github.com/aunum/log"
	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/expreplay"
	"github.com/samuelfneumann/rainbow/network"
	"github.com/samuelfneumann/rainbow/solver"
	ts "github.com/samuelfneumann/rainbow/timestep"
	"github.com/samuelfneumann/rainbow/utils/floatutils"
	"github.com/samuelfneumann/rainbow/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Rainbow implements an epsilon greedy DQN agent. The network Type of
// the Config decides which Rainbow extensions are used.
//
// Four copies of the network are kept, each in its own graph:
// actNet selects single actions, trainNet learns from batches, nextNet
// evaluates next states with the online weights, and targetNet, which
// only exists when double Q-learning is used, provides the update
// target. actNet and nextNet are synced with trainNet after every
// update, targetNet only at episode boundaries.
type Rainbow struct {
	actNet network.ValueNet
	actVM  G.VM

	trainNet network.ValueNet
	trainVM  G.VM
	solver   *solver.Solver

	nextNet network.ValueNet
	nextVM  G.VM

	targetNet            network.ValueNet
	targetVM             G.VM
	double               bool
	targetUpdateInterval int

	noise *network.Noise

	// Inputs of the loss. Scalar networks use selected, a one-hot
	// matrix of shape (batch, actions), and targets. Distributional
	// networks use projected, of shape (batch*actions, atoms), which
	// holds the target distribution in the row of the selected action.
	selected  *G.Node
	targets   *G.Node
	projected *G.Node
	loss      *G.Node
	lossVal   G.Value
	lastLoss  float64

	replay    *expreplay.Memory
	minSize   int
	batchSize int
	gamma     float64

	egreedy *EGreedy
	episode int
	rng     *rand.Rand

	features int
	actions  int

	// step is the last TimeStep observed, the next transition starts
	// from it
	step    ts.TimeStep
	started bool

	eval bool
}

// New creates and returns a new Rainbow agent acting in e
func New(e env.Environment, c Config, seed uint64) (*Rainbow, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	actions, err := e.ActionSpec().Actions()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	features := e.ObservationSpec().Features()

	vmOpts, err := c.Network.Device.VMOpts()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Action selection only needs a single observation
	actNet, err := network.New(c.Network, features, actions, 1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create network: %v", err)
	}

	trainNet, err := actNet.CloneWithBatch(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create training network: %v",
			err)
	}

	nextNet, err := actNet.CloneWithBatch(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create next state network: %v",
			err)
	}

	var targetNet network.ValueNet
	var targetVM G.VM
	if c.Double {
		targetNet, err = actNet.CloneWithBatch(c.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("new: could not create target network: %v",
				err)
		}
		targetVM = G.NewTapeMachine(targetNet.Graph(), vmOpts...)
	}

	egreedy, err := NewEGreedy(c.Eps, c.MinEps, c.EpsDecay)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	replay, err := c.Replay.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay memory: %v", err)
	}

	r := &Rainbow{
		actNet:               actNet,
		actVM:                G.NewTapeMachine(actNet.Graph(), vmOpts...),
		trainNet:             trainNet,
		solver:               c.Solver.Clone(),
		nextNet:              nextNet,
		nextVM:               G.NewTapeMachine(nextNet.Graph(), vmOpts...),
		targetNet:            targetNet,
		targetVM:             targetVM,
		double:               c.Double,
		targetUpdateInterval: c.TargetUpdateInterval,
		replay:               replay,
		minSize:              c.minSize(),
		batchSize:            c.BatchSize,
		gamma:                c.Gamma,
		egreedy:              egreedy,
		rng:                  rand.New(rand.NewSource(seed)),
		features:             features,
		actions:              actions,
	}

	if c.Network.Type.IsDistributional() {
		r.loss = r.distributionalLoss()
	} else {
		r.loss = r.scalarLoss()
	}
	G.Read(r.loss, &r.lossVal)

	_, err = G.Grad(r.loss, trainNet.Learnables()...)
	if err != nil {
		msg := fmt.Sprintf("new: could not compute gradient: %v", err)
		panic(msg)
	}
	trainOpts := append(vmOpts, G.BindDualValues(trainNet.Learnables()...))
	r.trainVM = G.NewTapeMachine(trainNet.Graph(), trainOpts...)

	if c.Network.Type.IsNoisy() {
		r.noise, err = network.NewNoise(c.Network.NoiseStd, seed)
		if err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
		if err := r.resetNoise(); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	return r, nil
}

// scalarLoss adds the smooth L1 loss between the predicted values of
// the selected actions and the update targets to the graph of trainNet
func (r *Rainbow) scalarLoss() *G.Node {
	g := r.trainNet.Graph()

	r.selected = G.NewMatrix(g, tensor.Float64,
		G.WithShape(r.batchSize, r.actions), G.WithName("actionSelected"),
		G.WithInit(G.Zeroes()))
	r.targets = G.NewVector(g, tensor.Float64, G.WithShape(r.batchSize),
		G.WithName("updateTarget"), G.WithInit(G.Zeroes()))

	values := G.Must(G.HadamardProd(r.trainNet.Prediction(), r.selected))
	values = G.Must(G.Sum(values, 1))
	diff := G.Must(G.Sub(values, r.targets))

	return G.Must(G.Mean(G.Must(op.SmoothL1(diff))))
}

// distributionalLoss adds the cross-entropy between the projected
// target distributions and the predicted distributions of the selected
// actions to the graph of trainNet
func (r *Rainbow) distributionalLoss() *G.Node {
	g := r.trainNet.Graph()
	atoms := r.trainNet.Atoms()

	r.projected = G.NewMatrix(g, tensor.Float64,
		G.WithShape(r.batchSize*r.actions, atoms),
		G.WithName("projectedTarget"), G.WithInit(G.Zeroes()))

	return G.Must(op.CrossEntropy(r.projected, r.trainNet.Prediction(),
		r.batchSize))
}

// evaluate runs the graph of net on a batch of observations and
// returns the action values, and for distributional networks the
// distributions, of each row
func evaluate(net network.ValueNet, vm G.VM, obs []float64,
	legal [][]int) ([][]float64, [][][]float64) {
	if err := net.SetInput(obs); err != nil {
		panic(fmt.Sprintf("evaluate: could not set input: %v", err))
	}
	if err := net.SetMask(legal); err != nil {
		panic(fmt.Sprintf("evaluate: could not set mask: %v", err))
	}

	if err := vm.RunAll(); err != nil {
		panic(fmt.Sprintf("evaluate: could not run network: %v", err))
	}
	defer vm.Reset()

	values, err := net.ActionValues()
	if err != nil {
		panic(fmt.Sprintf("evaluate: %v", err))
	}

	if !net.Type().IsDistributional() {
		return values, nil
	}
	dists, err := net.Distributions()
	if err != nil {
		panic(fmt.Sprintf("evaluate: %v", err))
	}
	return values, dists
}

// observation returns the data of an observation vector
func observation(v mat.Vector) []float64 {
	return mat.VecDenseCopyOf(v).RawVector().Data
}

// ObserveFirst observes and records the first episodic timestep
func (r *Rainbow) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		log.Infof("warning: ObserveFirst() should only be called on the "+
			"first timestep (current timestep = %d)", t.Number)
	}
	if t.Observation == nil || t.Observation.Len() != r.features {
		return fmt.Errorf("observeFirst: invalid observation size"+
			"\n\twant(%v)\n\thave(%v)", r.features, lenOf(t.Observation))
	}

	r.step = t
	r.started = true
	return nil
}

// Observe records the transition from the last observed timestep to
// next and decays the exploration rate
func (r *Rainbow) Observe(action int, next ts.TimeStep) error {
	if !r.started {
		return fmt.Errorf("observe: ObserveFirst() must be called first")
	}
	if action < 0 || action >= r.actions {
		return fmt.Errorf("observe: invalid action\n\twant([0, %v))"+
			"\n\thave(%v)", r.actions, action)
	}
	if next.Observation == nil || next.Observation.Len() != r.features {
		return fmt.Errorf("observe: invalid observation size"+
			"\n\twant(%v)\n\thave(%v)", r.features, lenOf(next.Observation))
	}

	if !r.eval {
		transition := ts.NewTransition(r.step, action, next)
		if err := r.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: %v", err)
		}
		r.egreedy.Decay(r.episode)
	}

	r.step = next
	return nil
}

func lenOf(v mat.Vector) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

// Step performs a single gradient step on a batch sampled from the
// replay memory. Step does nothing until the memory holds enough
// transitions.
func (r *Rainbow) Step() error {
	if r.eval || r.replay.Len() < r.minSize {
		return nil
	}

	batch, err := r.replay.Sample(r.batchSize)
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	states, nextStates, legal, nextLegal := r.flatten(batch)
	nextActions, evalValues, evalDists := r.greedyNext(nextStates, nextLegal)

	if r.projected != nil {
		err = r.setDistributionalTargets(batch, nextActions, evalDists)
	} else {
		err = r.setScalarTargets(batch, nextActions, evalValues)
	}
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	if err := r.trainNet.SetInput(states); err != nil {
		return fmt.Errorf("step: could not set input: %v", err)
	}
	if err := r.trainNet.SetMask(legal); err != nil {
		return fmt.Errorf("step: could not set mask: %v", err)
	}

	if err := r.trainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run training network: %v", err)
	}
	if err := r.solver.Step(r.trainNet.Model()); err != nil {
		r.trainVM.Reset()
		return fmt.Errorf("step: could not update weights: %v", err)
	}
	r.lastLoss = r.lossVal.Data().(float64)
	r.trainVM.Reset()
	log.Debugf("step: loss %.6f", r.lastLoss)

	if err := r.actNet.Set(r.trainNet); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := r.nextNet.Set(r.trainNet); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	return r.resetNoise()
}

// flatten returns the states and next states of a batch in row-major
// order, together with the legal actions in each. Terminal next states
// get nil legal actions, since their values are never used.
func (r *Rainbow) flatten(batch []ts.Transition) (states,
	nextStates []float64, legal, nextLegal [][]int) {
	states = make([]float64, 0, r.batchSize*r.features)
	nextStates = make([]float64, 0, r.batchSize*r.features)
	legal = make([][]int, r.batchSize)
	nextLegal = make([][]int, r.batchSize)

	for i, t := range batch {
		states = append(states, t.State.RawVector().Data...)
		nextStates = append(nextStates, t.NextState.RawVector().Data...)
		legal[i] = t.Legal
		if !t.Done && len(t.NextLegal) > 0 {
			nextLegal[i] = t.NextLegal
		}
	}
	return
}

// greedyNext selects the greedy legal next action a* of each row with
// the online weights. It returns a* with the values, and for
// distributional networks the distributions, that evaluate it. With
// double Q-learning these come from targetNet, otherwise from nextNet.
func (r *Rainbow) greedyNext(nextStates []float64,
	nextLegal [][]int) ([]int, [][]float64, [][][]float64) {
	nextValues, nextDists := evaluate(r.nextNet, r.nextVM, nextStates,
		nextLegal)
	evalValues, evalDists := nextValues, nextDists
	if r.double {
		evalValues, evalDists = evaluate(r.targetNet, r.targetVM, nextStates,
			nextLegal)
	}

	nextActions := make([]int, len(nextValues))
	for i := range nextActions {
		nextActions[i] = floatutils.ArgMax(nextValues[i], nextLegal[i], nil)
	}
	return nextActions, evalValues, evalDists
}

// setScalarTargets sets the selected actions and the update targets
// r + γ * Q(s', a*) of a batch
func (r *Rainbow) setScalarTargets(batch []ts.Transition, nextActions []int,
	evalValues [][]float64) error {
	selected := make([]float64, r.batchSize*r.actions)
	targets := make([]float64, r.batchSize)

	for i, t := range batch {
		selected[i*r.actions+t.Action] = 1
		targets[i] = t.Reward
		if !t.Done {
			targets[i] += r.gamma * evalValues[i][nextActions[i]]
		}
	}

	err := G.Let(r.selected, tensor.New(tensor.WithBacking(selected),
		tensor.WithShape(r.batchSize, r.actions)))
	if err != nil {
		return fmt.Errorf("setScalarTargets: could not set actions: %v", err)
	}

	err = G.Let(r.targets, tensor.New(tensor.WithBacking(targets),
		tensor.WithShape(r.batchSize)))
	if err != nil {
		return fmt.Errorf("setScalarTargets: could not set targets: %v", err)
	}
	return nil
}

// setDistributionalTargets projects the distributions of the greedy
// next actions onto the support and places them in the rows of the
// selected actions
func (r *Rainbow) setDistributionalTargets(batch []ts.Transition,
	nextActions []int, evalDists [][][]float64) error {
	support := r.trainNet.Config().Support
	atoms := support.Atoms
	projected := make([]float64, r.batchSize*r.actions*atoms)

	for i, t := range batch {
		m := support.Project(evalDists[i][nextActions[i]], t.Reward, r.gamma,
			t.Done)
		row := (i*r.actions + t.Action) * atoms
		copy(projected[row:row+atoms], m)
	}

	err := G.Let(r.projected, tensor.New(tensor.WithBacking(projected),
		tensor.WithShape(r.batchSize*r.actions, atoms)))
	if err != nil {
		return fmt.Errorf("setDistributionalTargets: could not set "+
			"targets: %v", err)
	}
	return nil
}

// resetNoise draws new noise shared by all networks
func (r *Rainbow) resetNoise() error {
	if r.noise == nil {
		return nil
	}

	nets := []network.ValueNet{r.trainNet, r.actNet, r.nextNet}
	if r.targetNet != nil {
		nets = append(nets, r.targetNet)
	}
	return r.noise.Reset(nets...)
}

// EndEpisode syncs the target network with the online network at the
// end of every TargetUpdateInterval episodes
func (r *Rainbow) EndEpisode(episode int) error {
	r.episode = episode + 1
	r.started = false

	if !r.double || r.eval || (episode+1)%r.targetUpdateInterval != 0 {
		return nil
	}
	if err := r.targetNet.Set(r.trainNet); err != nil {
		return fmt.Errorf("endEpisode: could not sync target network: %v",
			err)
	}
	return nil
}

// SelectAction selects an epsilon greedy action among the legal actions
// of t. In evaluation mode the greedy action is always selected.
func (r *Rainbow) SelectAction(t ts.TimeStep) int {
	if t.Legal != nil && len(t.Legal) == 0 {
		panic("selectAction: no legal actions")
	}

	if !r.eval && r.rng.Float64() < r.egreedy.Epsilon() {
		if t.Legal == nil {
			return r.rng.Intn(r.actions)
		}
		return t.Legal[r.rng.Intn(len(t.Legal))]
	}

	return floatutils.ArgMax(r.ActionValues(t), t.Legal, r.rng)
}

// ActionValues returns the action values predicted for an observation.
// Values of illegal actions are only masked for scalar networks.
func (r *Rainbow) ActionValues(t ts.TimeStep) []float64 {
	values, _ := evaluate(r.actNet, r.actVM, observation(t.Observation),
		[][]int{t.Legal})
	return values[0]
}

// Epsilon returns the current exploration rate
func (r *Rainbow) Epsilon() float64 {
	return r.egreedy.Epsilon()
}

// LastLoss returns the loss of the most recent update, 0 before any
// update
func (r *Rainbow) LastLoss() float64 {
	return r.lastLoss
}

// Eval sets the agent into evaluation mode
func (r *Rainbow) Eval() {
	r.eval = true
}

// Train sets the agent into training mode
func (r *Rainbow) Train() {
	r.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (r *Rainbow) IsEval() bool {
	return r.eval
}

// Close releases the resources held by the agent's virtual machines
func (r *Rainbow) Close() error {
	vms := []G.VM{r.actVM, r.trainVM, r.nextVM}
	if r.targetVM != nil {
		vms = append(vms, r.targetVM)
	}

	for _, vm := range vms {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}
