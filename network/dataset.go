package network

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"bitbucket.org/Davydov/lhon/dist"
	"bitbucket.org/Davydov/lhon/tally"
)

// ChunkSize is the number of samples drawn from one random stream.
const ChunkSize = 1024

// Dataset is an ordered collection of samples from one network.
type Dataset struct {
	Network *Network
	Samples []Sample
}

// SampleDataset draws n independent samples using up to threads
// workers. Samples [k*ChunkSize, (k+1)*ChunkSize) are drawn from stream k
// of seed, so the result does not depend on the number of threads.
func (n *Network) SampleDataset(size int, seed uint64, threads int) (*Dataset, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative sample size: %d", size)
	}
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	ds := &Dataset{
		Network: n,
		Samples: make([]Sample, size),
	}
	// one backing array for all the samples
	data := make([]State, size*len(n.nodes))

	var g errgroup.Group
	g.SetLimit(threads)
	for c := 0; c*ChunkSize < size; c++ {
		c := c
		g.Go(func() error {
			rng := dist.Stream(seed, c)
			buf := make([]State, 0, 8)
			end := min((c+1)*ChunkSize, size)
			for i := c * ChunkSize; i < end; i++ {
				s := Sample(data[i*len(n.nodes) : (i+1)*len(n.nodes) : (i+1)*len(n.nodes)])
				n.sampleInto(rng, s, buf)
				ds.Samples[i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debugf("Sampled %d rows in %d chunks", size, (size+ChunkSize-1)/ChunkSize)
	return ds, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Row returns labels of the i-th sample in column order.
func (d *Dataset) Row(i int) []string {
	return d.Network.Labels(d.Samples[i])
}

// Predicate selects samples.
type Predicate func(Sample) bool

// Eq matches samples in which node is in one of the given states. It
// panics on unknown names, as regexp.MustCompile does.
func (n *Network) Eq(name string, states ...string) Predicate {
	nd, err := n.node(name)
	if err != nil {
		panic(err)
	}
	var mask [maxStates + 1]bool
	for _, l := range states {
		s, err := nd.state(l)
		if err != nil {
			panic(err)
		}
		mask[s] = true
	}
	col := nd.id
	return func(s Sample) bool {
		return mask[s[col]]
	}
}

// Ne matches samples in which node is not in the given state.
func (n *Network) Ne(name, state string) Predicate {
	return Not(n.Eq(name, state))
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(s Sample) bool {
		return !p(s)
	}
}

// And matches samples satisfying all predicates.
func And(ps ...Predicate) Predicate {
	return func(s Sample) bool {
		for _, p := range ps {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// All matches every sample.
func All(Sample) bool {
	return true
}

// Count returns the number of samples matching filter.
func (d *Dataset) Count(filter Predicate) (k int) {
	for _, s := range d.Samples {
		if filter(s) {
			k++
		}
	}
	return
}

// Rate returns the fraction of samples matching outcome among samples
// matching filter. An empty filtered subset gives tally.NoData.
func (d *Dataset) Rate(filter, outcome Predicate) tally.Rate {
	n, k := 0, 0
	for _, s := range d.Samples {
		if !filter(s) {
			continue
		}
		n++
		if outcome(s) {
			k++
		}
	}
	return tally.Count(k, n, 1)
}
