// Package broker selects which Druid broker serves the next request.
package broker

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// ErrNoBrokers is returned when a pool is built from an empty list.
var ErrNoBrokers = errors.New("broker list is empty")

// Strategy picks an index in [0, n) for the next request. n is never zero
// for a pool built with NewStaticPool; strategies panic when it is.
type Strategy interface {
	Select(n int) int
	Name() string
}

// Pool hands out broker addresses ("host:port").
type Pool interface {
	Broker() string
}

// Constant always selects the first broker.
type Constant struct{}

// Select implements Strategy.
func (Constant) Select(n int) int {
	if n <= 0 {
		panic("broker: select from empty list")
	}
	return 0
}

// Name implements Strategy.
func (Constant) Name() string { return "constant" }

// RoundRobin cycles through the brokers. It is safe for concurrent use; the
// zero value starts at the first broker.
type RoundRobin struct {
	next atomic.Uint64
}

// Select implements Strategy. Every call claims exactly one index with a
// compare-and-swap, so concurrent callers never share or skip a slot.
func (r *RoundRobin) Select(n int) int {
	if n <= 0 {
		panic("broker: select from empty list")
	}
	for {
		cur := r.next.Load()
		idx := cur % uint64(n)
		if r.next.CompareAndSwap(cur, (idx+1)%uint64(n)) {
			return int(idx)
		}
	}
}

// Name implements Strategy.
func (*RoundRobin) Name() string { return "round-robin" }

// DefaultStrategy is Constant for a single broker and RoundRobin otherwise.
func DefaultStrategy(brokers []string) Strategy {
	if len(brokers) == 1 {
		return Constant{}
	}
	return &RoundRobin{}
}

// StrategyByName returns the strategy called name. The empty name yields
// nil, which pools replace with DefaultStrategy.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "":
		return nil, nil
	case Constant{}.Name():
		return Constant{}, nil
	case (*RoundRobin)(nil).Name():
		return &RoundRobin{}, nil
	}
	return nil, fmt.Errorf("unknown broker strategy %q", name)
}

// StaticPool is a fixed, ordered list of brokers.
type StaticPool struct {
	brokers  []string
	strategy Strategy
}

// interface guard
var _ Pool = (*StaticPool)(nil)

// NewStaticPool builds a pool over brokers. A nil strategy selects
// DefaultStrategy. Blank addresses are rejected.
func NewStaticPool(brokers []string, strategy Strategy) (*StaticPool, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	list := make([]string, len(brokers))
	for i, b := range brokers {
		b = strings.TrimSpace(b)
		if b == "" {
			return nil, fmt.Errorf("broker %d: empty address", i)
		}
		list[i] = b
	}
	if strategy == nil {
		strategy = DefaultStrategy(list)
	}
	return &StaticPool{brokers: list, strategy: strategy}, nil
}

// Broker implements Pool.
func (p *StaticPool) Broker() string {
	return p.brokers[p.strategy.Select(len(p.brokers))]
}

// Brokers returns a copy of the configured addresses.
func (p *StaticPool) Brokers() []string {
	out := make([]string, len(p.brokers))
	copy(out, p.brokers)
	return out
}

// Strategy returns the selection strategy in use.
func (p *StaticPool) Strategy() Strategy { return p.strategy }
