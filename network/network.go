// Package network implements Bayesian networks of categorical random
// variables with conditional probability tables (CPT) and forward
// sampling.
//
// A CPT maps a tuple of parent states to a distribution over the node
// states. Tuples missing from the table are resolved by an explicit
// fallback: the node's default distribution if one was given, otherwise
// the uniform distribution. Conditional reports which of those was used.
package network

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"bitbucket.org/Davydov/lhon/dist"
)

var log = logging.MustGetLogger("network")

var (
	ErrCycle          = errors.New("network contains a cycle")
	ErrUnknownNode    = errors.New("unknown node")
	ErrUnknownState   = errors.New("unknown state")
	ErrDuplicateNode  = errors.New("duplicate node")
	ErrBadProbability = errors.New("bad probability vector")
)

// State is an index into the states of a variable.
type State uint8

// maxStates is the maximum number of states per variable.
const maxStates = 255

// Lookup tells where a conditional distribution came from.
type Lookup uint8

const (
	FromPrior Lookup = iota
	FromTable
	FromFallback
	FromUniform
)

func (l Lookup) String() string {
	switch l {
	case FromPrior:
		return "prior"
	case FromTable:
		return "table"
	case FromFallback:
		return "fallback"
	}
	return "uniform"
}

// Variable is a declared network node.
type Variable struct {
	Name    string
	States  []string
	Parents []string
}

type node struct {
	Variable
	id       int
	parents  []int
	states   map[string]State
	prior    *dist.Categorical
	table    map[string]*dist.Categorical
	fallback *dist.Categorical
	uniform  *dist.Categorical
}

// key encodes a tuple of parent states.
func key(s []State) string {
	b := make([]byte, len(s))
	for i, v := range s {
		b[i] = byte(v)
	}
	return string(b)
}

func (nd *node) state(label string) (State, error) {
	s, ok := nd.states[label]
	if !ok {
		return 0, fmt.Errorf("%w: %s=%q", ErrUnknownState, nd.Name, label)
	}
	return s, nil
}

// Network is an immutable Bayesian network. It is safe for concurrent
// sampling.
type Network struct {
	nodes []*node
	order []int
	index map[string]int
}

// Len returns the number of nodes.
func (n *Network) Len() int {
	return len(n.nodes)
}

// Names returns node names in declaration order (the column order of
// samples).
func (n *Network) Names() []string {
	names := make([]string, len(n.nodes))
	for i, nd := range n.nodes {
		names[i] = nd.Name
	}
	return names
}

// Order returns node names in sampling (topological) order.
func (n *Network) Order() []string {
	names := make([]string, len(n.order))
	for i, id := range n.order {
		names[i] = n.nodes[id].Name
	}
	return names
}

// Variable returns a declared variable.
func (n *Network) Variable(name string) (Variable, error) {
	nd, err := n.node(name)
	if err != nil {
		return Variable{}, err
	}
	return nd.Variable, nil
}

// Index returns the column of a node.
func (n *Network) Index(name string) (int, error) {
	i, ok := n.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return i, nil
}

func (n *Network) node(name string) (*node, error) {
	i, err := n.Index(name)
	if err != nil {
		return nil, err
	}
	return n.nodes[i], nil
}

// lookup returns the distribution of nd given parent states.
func (nd *node) lookup(parents []State) (*dist.Categorical, Lookup) {
	if nd.prior != nil {
		return nd.prior, FromPrior
	}
	if p, ok := nd.table[key(parents)]; ok {
		return p, FromTable
	}
	if nd.fallback != nil {
		return nd.fallback, FromFallback
	}
	return nd.uniform, FromUniform
}

// Conditional returns the distribution of a node given the labels of
// its parents (in declared parent order), together with the lookup
// branch used.
func (n *Network) Conditional(name string, parents ...string) ([]float64, Lookup, error) {
	nd, err := n.node(name)
	if err != nil {
		return nil, FromUniform, err
	}
	if len(parents) != len(nd.parents) {
		return nil, FromUniform, fmt.Errorf("%s has %d parents, got %d values", name, len(nd.parents), len(parents))
	}
	ps := make([]State, len(parents))
	for i, l := range parents {
		if ps[i], err = n.nodes[nd.parents[i]].state(l); err != nil {
			return nil, FromUniform, err
		}
	}
	c, src := nd.lookup(ps)
	return c.Probabilities(), src, nil
}

// Sample is one joint assignment. Values are indexed by node column.
type Sample []State

// Sample draws a joint assignment by forward sampling in topological
// order.
func (n *Network) Sample(rng *rand.Rand) Sample {
	s := make(Sample, len(n.nodes))
	n.sampleInto(rng, s, make([]State, 0, 8))
	return s
}

func (n *Network) sampleInto(rng *rand.Rand, s Sample, buf []State) {
	for _, id := range n.order {
		nd := n.nodes[id]
		buf = buf[:0]
		for _, p := range nd.parents {
			buf = append(buf, s[p])
		}
		c, _ := nd.lookup(buf)
		s[id] = State(c.Choose(rng))
	}
}

// Label returns the state label of a node in s.
func (n *Network) Label(s Sample, col int) string {
	return n.nodes[col].States[s[col]]
}

// Labels returns all labels of s in column order.
func (n *Network) Labels(s Sample) []string {
	l := make([]string, len(s))
	for i := range s {
		l[i] = n.Label(s, i)
	}
	return l
}

// Gap is a parent-state combination missing from a CPT.
type Gap struct {
	Node    string
	Parents []string
	Lookup  Lookup
}

func (g Gap) String() string {
	return fmt.Sprintf("%s | (%s) -> %s", g.Node, strings.Join(g.Parents, ", "), g.Lookup)
}

// Coverage enumerates every parent-state combination of every non-root
// node and returns those which are not in the node's table.
func (n *Network) Coverage() (gaps []Gap) {
	for _, id := range n.order {
		nd := n.nodes[id]
		if nd.prior != nil {
			continue
		}
		n.combinations(nd.parents, func(ps []State) {
			_, src := nd.lookup(ps)
			if src == FromTable {
				return
			}
			labels := make([]string, len(ps))
			for i, s := range ps {
				labels[i] = n.nodes[nd.parents[i]].States[s]
			}
			gaps = append(gaps, Gap{Node: nd.Name, Parents: labels, Lookup: src})
		})
	}
	return
}

// combinations calls f for each combination of states of the given
// nodes. The slice passed to f is reused.
func (n *Network) combinations(ids []int, f func([]State)) {
	cur := make([]State, len(ids))
	var rec func(i int)
	rec = func(i int) {
		if i == len(ids) {
			f(cur)
			return
		}
		for s := range n.nodes[ids[i]].States {
			cur[i] = State(s)
			rec(i + 1)
		}
	}
	rec(0)
}

// Builder declares a network.
type Builder struct {
	nodes []*node
	index map[string]int
	rules map[int]func(parents []string) []float64
	err   error
}

// NewBuilder creates an empty network declaration.
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[string]int),
		rules: make(map[int]func([]string) []float64),
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) add(name string, states []string, parents []string) *node {
	if _, ok := b.index[name]; ok {
		b.fail(fmt.Errorf("%w: %q", ErrDuplicateNode, name))
		return nil
	}
	if len(states) == 0 || len(states) > maxStates {
		b.fail(fmt.Errorf("%s: number of states must be in [1, %d]", name, maxStates))
		return nil
	}
	nd := &node{
		Variable: Variable{
			Name:    name,
			States:  append([]string(nil), states...),
			Parents: append([]string(nil), parents...),
		},
		id:     len(b.nodes),
		states: make(map[string]State, len(states)),
		table:  make(map[string]*dist.Categorical),
	}
	for i, s := range states {
		if _, ok := nd.states[s]; ok {
			b.fail(fmt.Errorf("%s: duplicate state %q", name, s))
			return nil
		}
		nd.states[s] = State(i)
	}
	nd.uniform = dist.NewCategorical(nd.States, make([]float64, len(states)))
	b.index[name] = nd.id
	b.nodes = append(b.nodes, nd)
	return nd
}

func (b *Builder) get(name string) *node {
	i, ok := b.index[name]
	if !ok {
		b.fail(fmt.Errorf("%w: %q", ErrUnknownNode, name))
		return nil
	}
	return b.nodes[i]
}

func normalize(name string, states []string, p []float64) (*dist.Categorical, error) {
	if len(p) != len(states) {
		return nil, fmt.Errorf("%w: %s has %d states, got %d probabilities", ErrBadProbability, name, len(states), len(p))
	}
	for _, v := range p {
		if v < 0 {
			return nil, fmt.Errorf("%w: %s has negative probability %v", ErrBadProbability, name, v)
		}
	}
	c := dist.NewCategorical(states, p)
	if c.Uniform {
		log.Debugf("%s: zero probability vector replaced by uniform", name)
	}
	return c, nil
}

// Root declares a node without parents.
func (b *Builder) Root(name string, states []string, prior []float64) *Builder {
	nd := b.add(name, states, nil)
	if nd == nil {
		return b
	}
	p, err := normalize(name, states, prior)
	if err != nil {
		return b.fail(err)
	}
	nd.prior = p
	return b
}

// Node declares a node with parents. Its distribution is given by Entry
// or Rule.
func (b *Builder) Node(name string, states []string, parents ...string) *Builder {
	if len(parents) == 0 {
		return b.fail(fmt.Errorf("%s: node without parents needs a prior", name))
	}
	b.add(name, states, parents)
	return b
}

// Entry sets the distribution of a node for one tuple of parent labels.
func (b *Builder) Entry(name string, parents []string, probs []float64) *Builder {
	nd := b.get(name)
	if nd == nil {
		return b
	}
	if len(parents) != len(nd.Parents) {
		return b.fail(fmt.Errorf("%s has %d parents, entry has %d", name, len(nd.Parents), len(parents)))
	}
	p, err := normalize(name, nd.States, probs)
	if err != nil {
		return b.fail(err)
	}
	// parent labels are resolved in Build, once all nodes are known
	nd.table["\x00"+strings.Join(parents, "\x00")] = p
	return b
}

// Rule sets the distribution of a node for every combination of parent
// states from a function of parent labels. The slice passed to f is
// reused between calls. Rules take precedence over entries.
func (b *Builder) Rule(name string, f func(parents []string) []float64) *Builder {
	nd := b.get(name)
	if nd == nil {
		return b
	}
	b.rules[nd.id] = f
	return b
}

// Fallback sets the distribution used when a parent-state tuple is not
// in the table.
func (b *Builder) Fallback(name string, probs []float64) *Builder {
	nd := b.get(name)
	if nd == nil {
		return b
	}
	p, err := normalize(name, nd.States, probs)
	if err != nil {
		return b.fail(err)
	}
	nd.fallback = p
	return b
}

// Build resolves parents, checks that the graph is acyclic and computes
// the sampling order.
func (b *Builder) Build() (*Network, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := simple.NewDirectedGraph()
	for _, nd := range b.nodes {
		g.AddNode(simple.Node(nd.id))
	}
	for _, nd := range b.nodes {
		nd.parents = make([]int, len(nd.Parents))
		for i, pn := range nd.Parents {
			pi, ok := b.index[pn]
			if !ok {
				return nil, fmt.Errorf("%w: %q (parent of %s)", ErrUnknownNode, pn, nd.Name)
			}
			if pi == nd.id {
				return nil, fmt.Errorf("%w: %s is its own parent", ErrCycle, nd.Name)
			}
			nd.parents[i] = pi
			g.SetEdge(g.NewEdge(simple.Node(pi), simple.Node(nd.id)))
		}
	}

	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	n := &Network{
		nodes: b.nodes,
		order: make([]int, len(sorted)),
		index: b.index,
	}
	for i, v := range sorted {
		n.order[i] = int(v.ID())
	}

	for _, nd := range n.nodes {
		if err := n.resolveTable(nd, b.rules[nd.id]); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// resolveTable converts label-keyed entries into state-keyed ones and
// expands rules.
func (n *Network) resolveTable(nd *node, rule func([]string) []float64) error {
	raw := nd.table
	nd.table = make(map[string]*dist.Categorical, len(raw))
	for k, p := range raw {
		labels := strings.Split(k[1:], "\x00")
		ps := make([]State, len(labels))
		for i, l := range labels {
			s, err := n.nodes[nd.parents[i]].state(l)
			if err != nil {
				return fmt.Errorf("%s: %w", nd.Name, err)
			}
			ps[i] = s
		}
		nd.table[key(ps)] = p
	}
	if rule == nil {
		return nil
	}
	var err error
	labels := make([]string, len(nd.parents))
	n.combinations(nd.parents, func(ps []State) {
		if err != nil {
			return
		}
		for i, s := range ps {
			labels[i] = n.nodes[nd.parents[i]].States[s]
		}
		var c *dist.Categorical
		if c, err = normalize(nd.Name, nd.States, rule(labels)); err == nil {
			nd.table[key(ps)] = c
		}
	})
	return err
}
