package ga

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ABKGroup/chipletpart/cherr"
	log "github.com/sirupsen/logrus"
)

// FitnessOracle is the external routine §4.5 requires: given a tech
// vector, it returns the cost of the partition that routine internally
// derives (by running the lower-level hypergraph refinement and the cost
// evaluator) together with that partition assignment. A failing oracle
// call must still return a usable (finite, if degraded) result — the
// caller treats cherr.MaxFiniteCost as "this candidate always loses",
// never as an error to propagate.
type FitnessOracle func(techVector []string) (cost float64, partition []int)

// CanonicalGAConfig holds C6's tunables. Zero-value fields are replaced
// by DefaultCanonicalGAConfig's defaults by NewCanonicalGA.
type CanonicalGAConfig struct {
	AvailableTechNodes []string
	Seed               int64
	Population         int
	Generations        int
	CrossoverRate      float64
	MutationRate       float64
	TournamentSize     int
	EliteCount         int
	MinPartitions      int
	MaxPartitions      int
	// Threads bounds the number of fitness evaluations run concurrently
	// per generation, per §5's "parallel worker threads for fitness
	// evaluation only" concurrency model. Selection, crossover, mutation
	// and repair stay on the calling goroutine.
	Threads int
}

// DefaultCanonicalGAConfig returns §4.5's defaults, with AvailableTechNodes
// and the partition bounds left for the caller to fill in.
func DefaultCanonicalGAConfig() CanonicalGAConfig {
	return CanonicalGAConfig{
		Population:     50,
		Generations:    250,
		CrossoverRate:  0.9,
		MutationRate:   0.08,
		TournamentSize: 3,
		EliteCount:     2,
		MinPartitions:  2,
		MaxPartitions:  8,
		Threads:        4,
	}
}

// GenerationReport names the per-generation summary fields: SPEC_FULL's
// addition of the original's hall-of-fame logging. Run does not build this
// type; it logs the same four values as logrus fields (generation,
// best_cost, avg_cost, cache_size) once per generation.
type GenerationReport struct {
	Generation int
	BestCost   float64
	AvgCost    float64
	CacheSize  int
}

// CanonicalSolution is what CanonicalGA.Run returns: the best tech vector
// found, its resulting partition, and its cost.
type CanonicalSolution struct {
	TechNodes []string
	Partition []int
	Cost      float64
}

// CanonicalGA runs C6: a search over ordered tech-node vectors of length
// in [MinPartitions, MaxPartitions], deduplicated by canonical form.
type CanonicalGA struct {
	cfg    CanonicalGAConfig
	techID map[string]int
	oracle FitnessOracle
	cache  *fitnessCache
	rngs   *StreamSplitter
}

// NewCanonicalGA constructs a CanonicalGA. Unset numeric fields in cfg
// fall back to DefaultCanonicalGAConfig's values.
func NewCanonicalGA(cfg CanonicalGAConfig, oracle FitnessOracle) *CanonicalGA {
	def := DefaultCanonicalGAConfig()
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
	if cfg.EliteCount <= 0 {
		cfg.EliteCount = def.EliteCount
	}
	if cfg.MinPartitions <= 0 {
		cfg.MinPartitions = def.MinPartitions
	}
	if cfg.MaxPartitions <= 0 {
		cfg.MaxPartitions = def.MaxPartitions
	}
	if cfg.Threads <= 0 {
		cfg.Threads = def.Threads
	}
	techID := make(map[string]int, len(cfg.AvailableTechNodes))
	for i, t := range cfg.AvailableTechNodes {
		techID[t] = i
	}
	return &CanonicalGA{
		cfg:    cfg,
		techID: techID,
		oracle: oracle,
		cache:  newFitnessCache(),
		rngs:   NewStreamSplitter(cfg.Seed),
	}
}

// TechNodeID returns the index of tech in AvailableTechNodes, or -1 if
// tech isn't a recognized tag — mirrors the original's GetTechNodeId.
func (g *CanonicalGA) TechNodeID(tech string) int {
	if id, ok := g.techID[tech]; ok {
		return id
	}
	return -1
}

// Canonicalize sorts a tech vector's multiset by (frequency desc, tech_id
// asc) and expands it back to a list of the original length. Two tech
// vectors that are permutations of the same multiset always canonicalize
// to the same slice, which is the fixture in §8.6.
func (g *CanonicalGA) Canonicalize(techVector []string) []string {
	if len(techVector) == 0 {
		return nil
	}
	freq := make(map[int]int)
	for _, t := range techVector {
		id := g.TechNodeID(t)
		if id >= 0 {
			freq[id]++
		}
	}
	type pair struct{ id, count int }
	pairs := make([]pair, 0, len(freq))
	for id, count := range freq {
		pairs = append(pairs, pair{id: id, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].id < pairs[j].id
	})
	out := make([]string, 0, len(techVector))
	for _, p := range pairs {
		tech := g.cfg.AvailableTechNodes[p.id]
		for i := 0; i < p.count; i++ {
			out = append(out, tech)
		}
	}
	return out
}

// canonicalKey serializes a canonical tech vector as "id,id,…", per
// §4.5's fitness-cache key format.
func (g *CanonicalGA) canonicalKey(canonical []string) string {
	if len(canonical) == 0 {
		return "empty_assignment"
	}
	var b strings.Builder
	for _, t := range canonical {
		b.WriteString(strconv.Itoa(g.TechNodeID(t)))
		b.WriteByte(',')
	}
	return b.String()
}

// evaluate looks up the canonical form of techVector in the shared
// fitness cache, computing it via the oracle on a miss.
func (g *CanonicalGA) evaluate(techVector []string) (float64, []int) {
	canonical := g.Canonicalize(techVector)
	key := g.canonicalKey(canonical)
	entry := g.cache.getOrCompute(key, func() cacheEntry {
		cost, partition := g.oracle(techVector)
		return cacheEntry{cost: cost, partition: partition}
	})
	return entry.cost, entry.partition
}

// evaluatePopulation fills in the cost/partition of every not-yet-scored
// individual, running up to cfg.Threads oracle calls concurrently. The
// fitness cache is the only state the workers share, and it is
// mutex-guarded (ga/cache.go), so this is the sole parallel stage of a
// generation; selection, crossover, mutation and repair stay single
// threaded.
func (g *CanonicalGA) evaluatePopulation(pop []individual) {
	sem := make(chan struct{}, g.cfg.Threads)
	var wg sync.WaitGroup
	for i := range pop {
		if !math.IsInf(pop[i].cost, 1) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			cost, partition := g.evaluate(pop[i].tech)
			pop[i].cost = cost
			pop[i].partition = partition
		}(i)
	}
	wg.Wait()
}

type individual struct {
	tech      []string
	cost      float64
	partition []int
}

func (g *CanonicalGA) randomIndividual(rng *rand.Rand) individual {
	n := g.cfg.MinPartitions
	if span := g.cfg.MaxPartitions - g.cfg.MinPartitions; span > 0 {
		n += rng.Intn(span + 1)
	}
	tech := make([]string, n)
	for i := range tech {
		tech[i] = g.cfg.AvailableTechNodes[rng.Intn(len(g.cfg.AvailableTechNodes))]
	}
	return individual{tech: tech, cost: math.Inf(1)}
}

// Run executes the Canonical GA's full per-generation protocol (§4.5)
// and returns the best solution found.
func (g *CanonicalGA) Run() CanonicalSolution {
	driverRNG := g.rngs.For(-1, 0)
	pop := make([]individual, g.cfg.Population)
	for i := range pop {
		pop[i] = g.randomIndividual(driverRNG)
	}

	best := individual{cost: math.Inf(1)}
	noImprove := 0

	for gen := 0; gen < g.cfg.Generations; gen++ {
		g.evaluatePopulation(pop)

		sort.Slice(pop, func(i, j int) bool { return pop[i].cost < pop[j].cost })

		improved := pop[0].cost < best.cost
		if improved {
			best = pop[0]
			noImprove = 0
		} else {
			noImprove++
		}

		var sum, maxCost, minCost float64
		minCost = pop[0].cost
		for _, ind := range pop {
			sum += ind.cost
			if ind.cost > maxCost {
				maxCost = ind.cost
			}
			if ind.cost < minCost {
				minCost = ind.cost
			}
		}
		log.WithFields(log.Fields{
			"generation": gen,
			"best_cost":  best.cost,
			"avg_cost":   sum / float64(len(pop)),
			"cache_size": g.cache.size(),
		}).Info("canonical GA generation complete")

		if noImprove >= 50 && (maxCost-minCost) < 1e-3 {
			break
		}

		next := make([]individual, 0, g.cfg.Population)
		elite := g.cfg.EliteCount
		if elite > len(pop) {
			elite = len(pop)
		}
		next = append(next, pop[:elite]...)

		rng := g.rngs.For(gen, 0)
		for len(next) < g.cfg.Population {
			p1 := g.tournamentSelect(pop, rng)
			p2 := g.tournamentSelect(pop, rng)
			var childTech []string
			if rng.Float64() < g.cfg.CrossoverRate {
				switch rng.Intn(3) {
				case 0:
					childTech = onePointCrossover(p1.tech, p2.tech, rng)
				case 1:
					childTech = twoPointCrossover(p1.tech, p2.tech, rng)
				default:
					childTech = uniformCrossover(p1.tech, p2.tech, rng)
				}
			} else {
				if p1.cost <= p2.cost {
					childTech = append([]string(nil), p1.tech...)
				} else {
					childTech = append([]string(nil), p2.tech...)
				}
			}
			if rng.Float64() < g.cfg.MutationRate {
				childTech = g.mutate(childTech, rng)
			}
			next = append(next, individual{tech: childTech, cost: math.Inf(1)})
		}
		pop = next
	}

	if best.partition == nil {
		best.cost, best.partition = g.evaluate(best.tech)
	}
	return CanonicalSolution{TechNodes: best.tech, Partition: best.partition, Cost: best.cost}
}

func (g *CanonicalGA) tournamentSelect(pop []individual, rng *rand.Rand) individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < g.cfg.TournamentSize; i++ {
		cand := pop[rng.Intn(len(pop))]
		if cand.cost < best.cost {
			best = cand
		}
	}
	return best
}

func onePointCrossover(a, b []string, rng *rand.Rand) []string {
	if len(a) == 0 || len(b) == 0 {
		return append([]string(nil), a...)
	}
	cut := rng.Intn(len(a))
	out := append([]string(nil), a[:cut]...)
	if cut < len(b) {
		out = append(out, b[cut:]...)
	}
	return out
}

func twoPointCrossover(a, b []string, rng *rand.Rand) []string {
	if len(a) == 0 || len(b) == 0 {
		return append([]string(nil), a...)
	}
	i, j := rng.Intn(len(a)), rng.Intn(len(a))
	if i > j {
		i, j = j, i
	}
	out := append([]string(nil), a[:i]...)
	if i < len(b) && j <= len(b) {
		out = append(out, b[i:j]...)
	}
	if j < len(a) {
		out = append(out, a[j:]...)
	}
	return out
}

func uniformCrossover(a, b []string, rng *rand.Rand) []string {
	n := len(a)
	out := make([]string, n)
	for i := range out {
		if i < len(b) && rng.Intn(2) == 0 {
			out[i] = b[i]
		} else {
			out[i] = a[i]
		}
	}
	return out
}

// mutate applies exactly one of {point-replace, length-mutation, swap}
// to tech, chosen uniformly, per §4.5 step 2.
func (g *CanonicalGA) mutate(tech []string, rng *rand.Rand) []string {
	out := append([]string(nil), tech...)
	switch rng.Intn(3) {
	case 0:
		if len(out) > 0 {
			out[rng.Intn(len(out))] = g.cfg.AvailableTechNodes[rng.Intn(len(g.cfg.AvailableTechNodes))]
		}
	case 1:
		if rng.Intn(2) == 0 && len(out) < g.cfg.MaxPartitions {
			pos := rng.Intn(len(out) + 1)
			tech := g.cfg.AvailableTechNodes[rng.Intn(len(g.cfg.AvailableTechNodes))]
			out = append(out[:pos], append([]string{tech}, out[pos:]...)...)
		} else if len(out) > g.cfg.MinPartitions {
			pos := rng.Intn(len(out))
			out = append(out[:pos], out[pos+1:]...)
		}
	default:
		if len(out) >= 2 {
			i, j := rng.Intn(len(out)), rng.Intn(len(out))
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// validateTechVector reports cherr.Underspecified if any tag in tech is
// empty or absent from the known tech-node set.
func (g *CanonicalGA) validateTechVector(tech []string) error {
	for i, t := range tech {
		if t == "" {
			return &cherr.Underspecified{Fields: []string{fmt.Sprintf("tech_vector[%d]", i)}}
		}
		if _, ok := g.techID[t]; !ok {
			return &cherr.UnknownTechNode{Name: t}
		}
	}
	return nil
}
