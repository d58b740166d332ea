// Package expreplay implements a fixed-capacity experience replay
// buffer which evicts its oldest transitions first.
package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/rainbow/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Config implements a specific configuration of a replay Memory
type Config struct {
	// Capacity is the maximum number of transitions stored
	Capacity int

	// MinSize is the number of transitions required to be in the
	// buffer before an agent starts sampling from it. A value <= 0
	// means the batch size is used.
	MinSize int
}

// Create creates and returns the Memory with the specified Config.
func (c Config) Create(seed uint64) (*Memory, error) {
	return New(c.Capacity, seed)
}

// Memory is a ring buffer of transitions. Once full, each Add
// overwrites the oldest stored transition. Memory is not safe for
// concurrent use.
//
// States are stored in flat caches, so that all transitions must share
// the feature size of the first transition added.
type Memory struct {
	stateCache     []float64
	nextStateCache []float64
	actionCache    []int
	rewardCache    []float64
	doneCache      []bool
	legalCache     [][]int
	nextLegalCache [][]int

	// head is the index of the next write, once full it is also the
	// index of the oldest transition
	head   int
	isFull bool

	capacity    int
	featureSize int

	rng *rand.Rand
}

// New returns a new Memory holding at most capacity transitions. The
// seed parameter seeds the uniform sampling of batches.
func New(capacity int, seed uint64) (*Memory, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1\n\twant(>=1)"+
			"\n\thave(%v)", capacity)
	}

	return &Memory{
		actionCache:    make([]int, capacity),
		rewardCache:    make([]float64, capacity),
		doneCache:      make([]bool, capacity),
		legalCache:     make([][]int, capacity),
		nextLegalCache: make([][]int, capacity),
		capacity:       capacity,
		rng:            rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition to the buffer, evicting the oldest transition
// if the buffer is full.
func (m *Memory) Add(t timestep.Transition) error {
	if t.State == nil || t.NextState == nil {
		return &ExpReplayError{
			Op:  "add",
			Err: fmt.Errorf("nil state in transition"),
		}
	}

	// The first transition fixes the feature size of the caches
	if m.stateCache == nil {
		m.featureSize = t.State.Len()
		m.stateCache = make([]float64, m.capacity*m.featureSize)
		m.nextStateCache = make([]float64, m.capacity*m.featureSize)
	}

	if t.State.Len() != m.featureSize || t.NextState.Len() != m.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)\n\thave(%v)",
			m.featureSize, t.State.Len())
	}

	start := m.head * m.featureSize
	copy(m.stateCache[start:start+m.featureSize], t.State.RawVector().Data)
	copy(m.nextStateCache[start:start+m.featureSize],
		t.NextState.RawVector().Data)

	m.actionCache[m.head] = t.Action
	m.rewardCache[m.head] = t.Reward
	m.doneCache[m.head] = t.Done

	m.legalCache[m.head] = timestep.CopyLegal(t.Legal)
	m.nextLegalCache[m.head] = timestep.CopyLegal(t.NextLegal)

	m.head++
	if m.head == m.capacity {
		m.head = 0
		m.isFull = true
	}

	return nil
}

// Sample returns n distinct transitions chosen uniformly at random from
// the buffer. Sample returns an error satisfying IsInsufficientSamples
// if fewer than n transitions are stored.
func (m *Memory) Sample(n int) ([]timestep.Transition, error) {
	if m.Len() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if m.Len() < n {
		return nil, &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	indices := m.choose(n)
	batch := make([]timestep.Transition, n)
	for i, index := range indices {
		batch[i] = m.at(index)
	}

	return batch, nil
}

// choose selects n distinct cache indices uniformly at random using a
// partial Fisher-Yates shuffle
func (m *Memory) choose(n int) []int {
	indices := make([]int, m.Len())
	for i := range indices {
		indices[i] = i
	}

	for i := 0; i < n; i++ {
		j := i + m.rng.Intn(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices[:n]
}

// at returns a copy of the transition stored at cache index i
func (m *Memory) at(i int) timestep.Transition {
	start := i * m.featureSize

	state := make([]float64, m.featureSize)
	copy(state, m.stateCache[start:start+m.featureSize])

	nextState := make([]float64, m.featureSize)
	copy(nextState, m.nextStateCache[start:start+m.featureSize])

	return timestep.Transition{
		State:     mat.NewVecDense(m.featureSize, state),
		Action:    m.actionCache[i],
		NextState: mat.NewVecDense(m.featureSize, nextState),
		Reward:    m.rewardCache[i],
		Done:      m.doneCache[i],
		Legal:     timestep.CopyLegal(m.legalCache[i]),
		NextLegal: timestep.CopyLegal(m.nextLegalCache[i]),
	}
}

// Transitions returns copies of all stored transitions in insertion
// order, oldest first
func (m *Memory) Transitions() []timestep.Transition {
	transitions := make([]timestep.Transition, 0, m.Len())

	if !m.isFull {
		for i := 0; i < m.head; i++ {
			transitions = append(transitions, m.at(i))
		}
		return transitions
	}

	for i := 0; i < m.capacity; i++ {
		transitions = append(transitions, m.at((m.head+i)%m.capacity))
	}
	return transitions
}

// Len returns the current number of transitions in the buffer
func (m *Memory) Len() int {
	if m.isFull {
		return m.capacity
	}
	return m.head
}

// Capacity returns the maximum number of transitions the buffer holds
func (m *Memory) Capacity() int {
	return m.capacity
}

// String returns the string representation of the Memory
func (m *Memory) String() string {
	return fmt.Sprintf("Memory | Len: %v  |  Capacity: %v  |  Full: %v",
		m.Len(), m.capacity, m.isFull)
}
