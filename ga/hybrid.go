package ga

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/cost"
	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/refine"
	log "github.com/sirupsen/logrus"
)

// Candidate is one member of the Hybrid GA's population: a partition
// vector, a per-partition tech vector, and the cost/validity the last
// evaluation produced.
type Candidate struct {
	Partition []int
	Tech      []string
	Cost      float64
	Valid     bool
}

// HybridGAConfig holds C7's tunables; zero-value numeric fields fall back
// to DefaultHybridGAConfig's defaults in NewHybridGA.
type HybridGAConfig struct {
	AvailableTechNodes []string
	Seed               int64
	Population         int
	Generations        int
	CrossoverRate      float64
	MutationRate       float64
	TournamentSize     int
	MinPartitions      int
	MaxPartitions      int
	// UbFactor scales the per-partition upper balance bound:
	// upper[p] = sum(vertex weights) * UbFactor / k.
	UbFactor       float64
	FloorplanIters int
	// Threads bounds concurrent fitness evaluations per generation, per
	// §5's parallel-evaluation-only concurrency model.
	Threads int
}

// DefaultHybridGAConfig mirrors DefaultCanonicalGAConfig's population and
// rate defaults, adding the balance factor and floorplan iteration count
// the partition side of C7 needs.
func DefaultHybridGAConfig() HybridGAConfig {
	return HybridGAConfig{
		Population:     50,
		Generations:    250,
		CrossoverRate:  0.9,
		MutationRate:   0.08,
		TournamentSize: 3,
		MinPartitions:  2,
		MaxPartitions:  8,
		UbFactor:       1.2,
		FloorplanIters: 10,
		Threads:        4,
	}
}

// HybridGA co-evolves (partition, tech) pairs against the cost evaluator,
// using a Floorplanner/Refiner/Partitioner collaborator triple between
// mutation and scoring (§4.6, §6.3).
type HybridGA struct {
	cfg          HybridGAConfig
	hypergraph   *refine.Hypergraph
	floorplanner refine.Floorplanner
	refiner      refine.Refiner
	partitioner  refine.Partitioner
	// reqTemplate carries every cost.Request field that is constant
	// across candidates (Blocks, Graph, Library, root names, coeffs);
	// PartitionIDs/TechPerPartition/AspectRatioPerPartition/XYPerPartition
	// are overwritten per evaluation.
	reqTemplate cost.Request
	cache       *fitnessCache
	rngs        *StreamSplitter
}

// NewHybridGA constructs a HybridGA over the given hypergraph (built by
// refine.BuildHypergraph from the same blocks/graph reqTemplate carries).
func NewHybridGA(cfg HybridGAConfig, hypergraph *refine.Hypergraph, fp refine.Floorplanner, rf refine.Refiner, pt refine.Partitioner, reqTemplate cost.Request) *HybridGA {
	def := DefaultHybridGAConfig()
	if cfg.Population <= 0 {
		cfg.Population = def.Population
	}
	if cfg.Generations <= 0 {
		cfg.Generations = def.Generations
	}
	if cfg.CrossoverRate <= 0 {
		cfg.CrossoverRate = def.CrossoverRate
	}
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = def.MutationRate
	}
	if cfg.TournamentSize <= 0 {
		cfg.TournamentSize = def.TournamentSize
	}
	if cfg.MinPartitions <= 0 {
		cfg.MinPartitions = def.MinPartitions
	}
	if cfg.MaxPartitions <= 0 {
		cfg.MaxPartitions = def.MaxPartitions
	}
	if cfg.UbFactor <= 0 {
		cfg.UbFactor = def.UbFactor
	}
	if cfg.FloorplanIters <= 0 {
		cfg.FloorplanIters = def.FloorplanIters
	}
	if cfg.Threads <= 0 {
		cfg.Threads = def.Threads
	}
	return &HybridGA{
		cfg:          cfg,
		hypergraph:   hypergraph,
		floorplanner: fp,
		refiner:      rf,
		partitioner:  pt,
		reqTemplate:  reqTemplate,
		cache:        newFitnessCache(),
		rngs:         NewStreamSplitter(cfg.Seed),
	}
}

func roundRobinPartition(n, k int) []int {
	out := make([]int, n)
	if k <= 0 {
		return out
	}
	for i := range out {
		out[i] = i % k
	}
	return out
}

func randomPartition(n, k int, rng *rand.Rand) []int {
	out := make([]int, n)
	if k <= 0 {
		return out
	}
	for i := range out {
		out[i] = rng.Intn(k)
	}
	return out
}

func randomTechVector(k int, available []string, rng *rand.Rand) []string {
	out := make([]string, k)
	for i := range out {
		out[i] = available[rng.Intn(len(available))]
	}
	return out
}

// seedPopulation builds §4.6's seed population: balanced round-robin and
// uniformly-random partitions for every cardinality in range, plus
// METIS-style and spectral partitions from the external partitioner
// collaborator when one is supplied.
func (hg *HybridGA) seedPopulation(rng *rand.Rand) []Candidate {
	n := hg.hypergraph.NumVertices
	var pop []Candidate
	for k := hg.cfg.MinPartitions; k <= hg.cfg.MaxPartitions; k++ {
		pop = append(pop, Candidate{Partition: roundRobinPartition(n, k), Tech: randomTechVector(k, hg.cfg.AvailableTechNodes, rng)})
		pop = append(pop, Candidate{Partition: randomPartition(n, k, rng), Tech: randomTechVector(k, hg.cfg.AvailableTechNodes, rng)})
		if hg.partitioner != nil {
			pop = append(pop, Candidate{Partition: hg.partitioner.METISPart(hg.hypergraph, k), Tech: randomTechVector(k, hg.cfg.AvailableTechNodes, rng)})
			pop = append(pop, Candidate{Partition: hg.partitioner.SpectralPartition(hg.hypergraph, k), Tech: randomTechVector(k, hg.cfg.AvailableTechNodes, rng)})
		}
	}
	for len(pop) < hg.cfg.Population {
		k := hg.cfg.MinPartitions + rng.Intn(hg.cfg.MaxPartitions-hg.cfg.MinPartitions+1)
		pop = append(pop, Candidate{Partition: randomPartition(n, k, rng), Tech: randomTechVector(k, hg.cfg.AvailableTechNodes, rng)})
	}
	if len(pop) > hg.cfg.Population {
		pop = pop[:hg.cfg.Population]
	}
	for i := range pop {
		pop[i].Cost = math.Inf(1)
	}
	return pop
}

// Repair enforces §4.6's repair invariants on cand in place, idempotently:
// dense 0..k-1 partition IDs, k clamped to [minP, maxP], and a tech vector
// of exactly length k whose tags are all drawn from available (reusing
// cand's previous tags where an ID survives repair). Resets Cost to force
// re-evaluation. numVertices is the fixed block count every candidate's
// partition must match.
func Repair(cand *Candidate, numVertices, minP, maxP int, available []string, rng *rand.Rand) {
	if len(cand.Partition) == 0 {
		cand.Partition = roundRobinPartition(numVertices, minP)
	}
	if len(cand.Partition) != numVertices {
		fixed := make([]int, numVertices)
		for i := range fixed {
			if i < len(cand.Partition) {
				fixed[i] = cand.Partition[i]
			} else {
				fixed[i] = fixed[0]
			}
		}
		cand.Partition = fixed
	}

	partition, k := netlist.Compact(cand.Partition)

	for k < minP {
		newID := k
		size0 := 0
		for _, p := range partition {
			if p == 0 {
				size0++
			}
		}
		moved := 0
		for i := range partition {
			if partition[i] == 0 && moved < 5 && moved < size0-1 {
				partition[i] = newID
				moved++
			}
		}
		if moved == 0 {
			break
		}
		partition, k = netlist.Compact(partition)
	}

	if k > maxP {
		for i := range partition {
			if partition[i] >= maxP {
				partition[i] = 0
			}
		}
		partition, k = netlist.Compact(partition)
	}
	cand.Partition = partition

	tech := make([]string, k)
	for i := 0; i < k; i++ {
		if i < len(cand.Tech) && cand.Tech[i] != "" {
			tech[i] = cand.Tech[i]
		} else {
			tech[i] = available[rng.Intn(len(available))]
		}
	}
	cand.Tech = tech
	cand.Cost = math.Inf(1)
}

// candidateKey serializes a (partition, tech) pair into the shared
// fitness cache's key space, so repeated candidates across generations
// (elites, resurfacing offspring) skip a redundant floorplan/refine/cost
// pass.
func candidateKey(partition []int, tech []string) string {
	var b strings.Builder
	for _, p := range partition {
		b.WriteString(strconv.Itoa(p))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, t := range tech {
		b.WriteString(t)
		b.WriteByte(',')
	}
	return b.String()
}

// evaluate runs §4.6's fitness evaluation contract: floorplan, refine
// under balance bounds derived from UbFactor, then invoke the cost
// evaluator. A floorplanner failure or evaluator error marks the
// candidate invalid with cost = max_finite, per §4.6's "must not be
// selected as best" requirement. Results are cached by (partition, tech)
// under the shared fitness cache, guarded per §5's concurrency model.
func (hg *HybridGA) evaluate(cand *Candidate, seed int64) {
	key := candidateKey(cand.Partition, cand.Tech)
	if entry, ok := hg.cache.get(key); ok {
		cand.Cost = entry.cost
		cand.Partition = entry.partition
		cand.Valid = entry.cost < cherr.MaxFiniteCost
		return
	}
	hg.evaluateUncached(cand, seed)
	hg.cache.getOrCompute(key, func() cacheEntry {
		return cacheEntry{cost: cand.Cost, partition: append([]int(nil), cand.Partition...)}
	})
}

// evaluatePopulation scores every candidate whose Cost is still +Inf
// (freshly repaired or freshly bred), up to cfg.Threads at a time. Each
// goroutine owns a distinct slice element, so the only shared state is
// the mutex-guarded fitness cache.
func (hg *HybridGA) evaluatePopulation(pop []Candidate, seed int64) {
	sem := make(chan struct{}, hg.cfg.Threads)
	var wg sync.WaitGroup
	for i := range pop {
		if !math.IsInf(pop[i].Cost, 1) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			hg.evaluate(&pop[i], seed)
		}(i)
	}
	wg.Wait()
}

func (hg *HybridGA) evaluateUncached(cand *Candidate, seed int64) {
	partition := append([]int(nil), cand.Partition...)
	k := netlist.NumPartitions(partition)
	if k == 0 {
		cand.Cost = cherr.MaxFiniteCost
		cand.Valid = false
		return
	}

	fr := hg.floorplanner.RunFloorplanner(partition, hg.hypergraph, hg.cfg.FloorplanIters, seed)
	if !fr.Success {
		cand.Cost = cherr.MaxFiniteCost
		cand.Valid = false
		return
	}

	var totalWeight float64
	for _, w := range hg.hypergraph.VertexWeights {
		totalWeight += w
	}
	upper := make([]float64, k)
	lower := make([]float64, k)
	for p := range upper {
		upper[p] = totalWeight * hg.cfg.UbFactor / float64(k)
	}
	hg.refiner.Refine(hg.hypergraph, upper, lower, partition)
	partition, k = netlist.Compact(partition)

	tech := make([]string, k)
	for p := 0; p < k; p++ {
		if p < len(cand.Tech) {
			tech[p] = cand.Tech[p]
		} else {
			tech[p] = cand.Tech[p%len(cand.Tech)]
		}
	}

	aspect := make([]float64, k)
	geom := make([]cost.Geometry, k)
	for p := 0; p < k; p++ {
		if p < len(fr.AspectRatios) {
			aspect[p] = fr.AspectRatios[p]
			geom[p] = cost.Geometry{AspectRatio: fr.AspectRatios[p], X: fr.X[p], Y: fr.Y[p]}
		} else {
			aspect[p] = 1
		}
	}

	req := hg.reqTemplate
	req.PartitionIDs = partition
	req.TechPerPartition = tech
	req.AspectRatioPerPartition = aspect
	req.XYPerPartition = geom

	c, err := cost.EvaluateErr(req)
	if err != nil {
		cand.Cost = cherr.MaxFiniteCost
		cand.Valid = false
		cand.Partition = partition
		cand.Tech = tech
		return
	}
	cand.Cost = c
	cand.Valid = true
	cand.Partition = partition
	cand.Tech = tech
}

func (hg *HybridGA) tournamentSelect(pop []Candidate, rng *rand.Rand) Candidate {
	valid := make([]Candidate, 0, len(pop))
	for _, c := range pop {
		if c.Valid {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return pop[rng.Intn(len(pop))]
	}
	best := valid[rng.Intn(len(valid))]
	for i := 1; i < hg.cfg.TournamentSize; i++ {
		cand := valid[rng.Intn(len(valid))]
		if cand.Cost < best.Cost {
			best = cand
		}
	}
	return best
}

// crossover produces one offspring from two parents using one of §4.6's
// three crossover kinds, chosen uniformly.
func crossover(p1, p2 Candidate, rng *rand.Rand) Candidate {
	switch rng.Intn(3) {
	case 0: // partition-1-point
		n := len(p1.Partition)
		if n == 0 {
			n = len(p2.Partition)
		}
		cut := 0
		if n > 0 {
			cut = rng.Intn(n)
		}
		partition := make([]int, n)
		for i := 0; i < n; i++ {
			if i < cut && i < len(p1.Partition) {
				partition[i] = p1.Partition[i]
			} else if i < len(p2.Partition) {
				partition[i] = p2.Partition[i]
			} else if i < len(p1.Partition) {
				partition[i] = p1.Partition[i]
			}
		}
		tech := p1.Tech
		if p2.Cost < p1.Cost {
			tech = p2.Tech
		}
		return Candidate{Partition: partition, Tech: append([]string(nil), tech...)}
	case 1: // tech-uniform
		better, other := p1, p2
		if p2.Cost < p1.Cost {
			better, other = p2, p1
		}
		tech := make([]string, len(better.Tech))
		for i := range tech {
			if rng.Intn(2) == 0 && i < len(other.Tech) {
				tech[i] = other.Tech[i]
			} else {
				tech[i] = better.Tech[i]
			}
		}
		return Candidate{Partition: append([]int(nil), better.Partition...), Tech: tech}
	default: // hybrid
		n := len(p1.Partition)
		k := len(p1.Tech)
		if rng.Intn(2) == 0 {
			n = len(p2.Partition)
			k = len(p2.Tech)
		}
		partition := randomPartition(n, k, rng)
		tech := make([]string, k)
		for i := range tech {
			if rng.Intn(2) == 0 && len(p1.Tech) > 0 {
				tech[i] = p1.Tech[i%len(p1.Tech)]
			} else if len(p2.Tech) > 0 {
				tech[i] = p2.Tech[i%len(p2.Tech)]
			} else if len(p1.Tech) > 0 {
				tech[i] = p1.Tech[i%len(p1.Tech)]
			}
		}
		return Candidate{Partition: partition, Tech: tech}
	}
}

// mutate applies exactly one of §4.6 step 5's three mutation kinds to
// cand in place.
func mutate(cand *Candidate, available []string, rng *rand.Rand) {
	switch rng.Intn(3) {
	case 0: // partition-point: reassign ~5% of vertices to random partitions
		k := netlist.NumPartitions(cand.Partition)
		if k == 0 {
			return
		}
		moves := len(cand.Partition) / 20
		if moves < 1 {
			moves = 1
		}
		for i := 0; i < moves; i++ {
			idx := rng.Intn(len(cand.Partition))
			cand.Partition[idx] = rng.Intn(k)
		}
	case 1: // tech-point: replace tech of ~1/3 of partitions
		count := len(cand.Tech) / 3
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			idx := rng.Intn(len(cand.Tech))
			cand.Tech[idx] = available[rng.Intn(len(available))]
		}
	default: // structure: merge two partitions, or split one in half
		k := netlist.NumPartitions(cand.Partition)
		if k < 2 {
			return
		}
		if rng.Intn(2) == 0 {
			a, b := rng.Intn(k), rng.Intn(k)
			for i, p := range cand.Partition {
				if p == b {
					cand.Partition[i] = a
				}
			}
		} else {
			target := rng.Intn(k)
			var members []int
			for i, p := range cand.Partition {
				if p == target {
					members = append(members, i)
				}
			}
			half := len(members) / 2
			for _, i := range members[:half] {
				cand.Partition[i] = k
			}
		}
	}
}

// Run executes the Hybrid GA's full per-generation protocol (§4.6) and
// returns the best validated candidate found.
func (hg *HybridGA) Run() Candidate {
	n := hg.hypergraph.NumVertices
	driverRNG := hg.rngs.For(-1, 0)
	pop := hg.seedPopulation(driverRNG)

	best := Candidate{Cost: math.Inf(1)}

	for gen := 0; gen < hg.cfg.Generations; gen++ {
		rng := hg.rngs.For(gen, 0)
		for i := range pop {
			Repair(&pop[i], n, hg.cfg.MinPartitions, hg.cfg.MaxPartitions, hg.cfg.AvailableTechNodes, rng)
		}

		hg.evaluatePopulation(pop, hg.cfg.Seed+int64(gen))

		sort.Slice(pop, func(i, j int) bool {
			if pop[i].Valid != pop[j].Valid {
				return pop[i].Valid
			}
			return pop[i].Cost < pop[j].Cost
		})

		if pop[0].Valid && pop[0].Cost < best.Cost {
			best = pop[0]
		}

		var sum float64
		for _, c := range pop {
			sum += c.Cost
		}
		log.WithFields(log.Fields{
			"generation": gen,
			"best_cost":  best.Cost,
			"avg_cost":   sum / float64(len(pop)),
		}).Info("hybrid GA generation complete")

		next := make([]Candidate, 0, hg.cfg.Population)
		if pop[0].Valid {
			next = append(next, pop[0])
		}
		for len(next) < hg.cfg.Population {
			p1 := hg.tournamentSelect(pop, rng)
			p2 := hg.tournamentSelect(pop, rng)
			var child Candidate
			if rng.Float64() < hg.cfg.CrossoverRate {
				child = crossover(p1, p2, rng)
			} else {
				if p1.Cost <= p2.Cost {
					child = Candidate{Partition: append([]int(nil), p1.Partition...), Tech: append([]string(nil), p1.Tech...)}
				} else {
					child = Candidate{Partition: append([]int(nil), p2.Partition...), Tech: append([]string(nil), p2.Tech...)}
				}
			}
			if rng.Float64() < hg.cfg.MutationRate {
				mutate(&child, hg.cfg.AvailableTechNodes, rng)
			}
			Repair(&child, n, hg.cfg.MinPartitions, hg.cfg.MaxPartitions, hg.cfg.AvailableTechNodes, rng)
			child.Cost = math.Inf(1)
			hg.evaluate(&child, hg.cfg.Seed+int64(gen))
			next = append(next, child)
		}
		pop = next
	}
	return best
}
