// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// workChanBuffer caps the buffered work queue feeding bootstrap workers.
const workChanBuffer = 256

// BootstrapConfig controls the variance engine.
type BootstrapConfig struct {
	// Replicates is the number of bootstrap replicates R. Must be >= 2.
	Replicates int

	// Threads is the worker count. Zero or negative uses all CPUs.
	Threads int

	// Seed keys the replicate RNG streams: replicate r draws from the
	// PCG stream (Seed, r), so results are identical for any Threads.
	Seed uint64

	// Paired retains every replicate's full gain vector for later
	// covariance-aware curve differencing.
	Paired bool

	// Logger receives worker diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// GainReplicates is the R x Len buffer of per-replicate gain paths, aligned
// to the point-estimate spend grid. It is only materialized under paired
// inference; the memory cost is an explicit opt-in.
type GainReplicates struct {
	R    int
	Len  int
	Gain []float64 // row-major, replicate-major
}

// NewGainReplicates allocates a zeroed R x length buffer.
func NewGainReplicates(r, length int) *GainReplicates {
	return &GainReplicates{R: r, Len: length, Gain: make([]float64, r*length)}
}

// Row returns replicate i's gain vector as a subslice of the buffer.
func (g *GainReplicates) Row(i int) []float64 {
	return g.Gain[i*g.Len : (i+1)*g.Len]
}

// BootstrapResult carries the standard-error vector and, under paired
// inference, the retained replicate buffer.
type BootstrapResult struct {
	StdErr     []float64
	Replicates *GainReplicates
}

// Bootstrap attaches standard errors to a fitted path by cluster-level
// weighted resampling.
//
// Description:
//
//	The allocation order is never refit: refitting per replicate would be
//	expensive and would make the curve ranking itself a random object.
//	Each replicate instead draws cluster multiplicities by resampling the
//	clusters with replacement and replays the fixed event sequence under
//	the perturbed weights. Targeted paths rescale every unit's weight by
//	its cluster's multiplicity, renormalized to unit mass. Non-targeted
//	paths rebuild the weight-averaged per-arm cost and score columns from
//	per-cluster aggregates and walk the fixed arm sequence with them. The
//	replayed cumulative gain lives on a slightly shifted spend grid, so
//	it is interpolated back onto the point-estimate grid before
//	aggregation. The standard error at grid index t is the sample
//	standard deviation of the R interpolated gains.
//
//	Replicates are independent and CPU-bound, so they run on a fixed-size
//	worker pool consuming replicate indices from a channel. Every
//	replicate writes to its own row of the result matrix; no locking is
//	needed beyond the pool's WaitGroup. A replicate that panics is logged
//	and leaves its row zeroed, and the worker moves on to the next
//	queued replicate.
//
// Inputs:
//   - p: The solved problem. Must not be nil.
//   - path: The point-estimate path from SolvePath.
//   - cfg: Engine settings. cfg.Replicates must be >= 2 (enforced by the
//     caller's validation).
//
// Outputs:
//   - *BootstrapResult: Standard errors per grid index, plus the full
//     replicate buffer when cfg.Paired is set. Never nil.
//
// Thread Safety: Safe for concurrent use; all mutable state is local.
func Bootstrap(p *Problem, path *Path, cfg BootstrapConfig) *BootstrapResult {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pathLen := path.Len()
	result := &BootstrapResult{StdErr: make([]float64, pathLen)}
	if cfg.Paired {
		result.Replicates = NewGainReplicates(cfg.Replicates, pathLen)
	}
	if pathLen == 0 {
		return result
	}

	rep := result.Replicates
	if rep == nil {
		// Not retained for the caller, but the per-column standard
		// deviations still need all replicate rows at once.
		rep = NewGainReplicates(cfg.Replicates, pathLen)
	}

	run := &bootstrapRun{
		problem: p,
		path:    path,
		seed:    cfg.Seed,
		logger:  logger,
		rep:     rep,
	}
	if !p.Targeting {
		run.agg = buildClusterAggregates(p)
	}

	workers := cfg.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Replicates {
		workers = cfg.Replicates
	}

	workChan := make(chan int, min(cfg.Replicates, workChanBuffer))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			// Per-worker scratch reused across replicates.
			scratch := newReplicateScratch(p, pathLen)
			for r := range workChan {
				run.replicate(workerID, r, scratch)
			}
		}(w)
	}

	for r := 0; r < cfg.Replicates; r++ {
		workChan <- r
	}
	close(workChan)
	wg.Wait()

	col := make([]float64, cfg.Replicates)
	for t := 0; t < pathLen; t++ {
		for r := 0; r < cfg.Replicates; r++ {
			col[r] = rep.Gain[r*pathLen+t]
		}
		result.StdErr[t] = stat.StdDev(col, nil)
	}

	logger.Debug("bootstrap complete",
		slog.Int("replicates", cfg.Replicates),
		slog.Int("workers", workers),
		slog.Int("path_events", pathLen),
		slog.Bool("paired", cfg.Paired),
	)
	return result
}

// bootstrapRun bundles the shared inputs of one Bootstrap call so the
// worker pool can replay replicates against them.
type bootstrapRun struct {
	problem *Problem
	path    *Path
	agg     *clusterAggregates // non-targeted paths only
	seed    uint64
	logger  *slog.Logger
	rep     *GainReplicates
}

// replicate draws replicate r's cluster multiplicities and replays the
// path into row r of the result buffer. A panicking replicate is logged
// and leaves its row zeroed; recovering here, not at goroutine level,
// keeps the worker's remaining replicates running.
func (b *bootstrapRun) replicate(workerID, r int, s *replicateScratch) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			b.logger.Error("panic in bootstrap replicate",
				slog.Int("worker_id", workerID),
				slog.Int("replicate", r),
				slog.Any("panic", rec),
				slog.String("stack", string(buf[:n])),
			)
		}
	}()

	rng := rand.New(rand.NewPCG(b.seed, uint64(r)))

	clusters := b.problem.NumClusters
	for i := range s.counts {
		s.counts[i] = 0
	}
	for d := 0; d < clusters; d++ {
		s.counts[rng.IntN(clusters)]++
	}

	out := b.rep.Row(r)
	if b.problem.Targeting {
		b.replayTargeted(s, out)
	} else {
		b.replayUniform(s, out)
	}
}

// replayTargeted rescales each unit's weight by its cluster multiplicity,
// renormalizes to unit mass, and replays the fixed per-unit event order.
func (b *bootstrapRun) replayTargeted(s *replicateScratch, out []float64) {
	p, path := b.problem, b.path

	var total float64
	for i, w := range p.Weight {
		u := w * float64(s.counts[p.Cluster[i]])
		s.unitWeight[i] = u
		total += u
	}
	inv := 1 / total

	var spend, gain float64
	for t := 0; t < path.Len(); t++ {
		u := s.unitWeight[path.Unit[t]] * inv * path.Fraction[t]
		spend += u * path.DeltaCost[t]
		gain += u * path.DeltaScore[t]
		s.spend[t] = spend
		s.gain[t] = gain
	}

	InterpOnto(path.Spend, s.spend, s.gain, out)
}

// replayUniform rebuilds the weight-averaged per-arm cost and score
// columns under the replicate's cluster multiplicities and walks the
// fixed hull arm sequence with them.
func (b *bootstrapRun) replayUniform(s *replicateScratch, out []float64) {
	path, agg := b.path, b.agg

	var total float64
	for c, w := range agg.weight {
		total += w * float64(s.counts[c])
	}
	inv := 1 / total

	for a := range s.armCost {
		s.armCost[a] = 0
		s.armScore[a] = 0
	}
	for c := range agg.weight {
		if s.counts[c] == 0 {
			continue
		}
		m := float64(s.counts[c]) * inv
		floats.AddScaled(s.armCost, m, agg.cost[c])
		floats.AddScaled(s.armScore, m, agg.score[c])
	}

	var spend, gain float64
	var prevCost, prevScore float64
	for t := 0; t < path.Len(); t++ {
		arm := path.Arm[t]
		f := path.Fraction[t]
		spend += f * (s.armCost[arm] - prevCost)
		gain += f * (s.armScore[arm] - prevScore)
		s.spend[t] = spend
		s.gain[t] = gain
		prevCost, prevScore = s.armCost[arm], s.armScore[arm]
	}

	InterpOnto(path.Spend, s.spend, s.gain, out)
}

// clusterAggregates holds per-cluster weighted column sums of the cost
// and evaluation-score matrices. A non-targeted replicate rebuilds its
// weight-averaged per-arm columns from these in O(C*K) instead of O(N*K).
type clusterAggregates struct {
	weight []float64   // summed unit weight per cluster
	cost   [][]float64 // weighted cost column sums, C x K
	score  [][]float64 // weighted score column sums, C x K
}

func buildClusterAggregates(p *Problem) *clusterAggregates {
	k := p.NumArms()
	agg := &clusterAggregates{
		weight: make([]float64, p.NumClusters),
		cost:   make([][]float64, p.NumClusters),
		score:  make([][]float64, p.NumClusters),
	}
	for c := 0; c < p.NumClusters; c++ {
		agg.cost[c] = make([]float64, k)
		agg.score[c] = make([]float64, k)
	}
	for i, w := range p.Weight {
		c := p.Cluster[i]
		agg.weight[c] += w
		floats.AddScaled(agg.cost[c], w, p.Cost[i])
		floats.AddScaled(agg.score[c], w, p.Score[i])
	}
	return agg
}

// replicateScratch holds one worker's reusable buffers. Every buffer is
// fully rewritten per replicate, so reuse after a recovered panic is safe.
type replicateScratch struct {
	counts     []int
	unitWeight []float64
	armCost    []float64
	armScore   []float64
	spend      []float64
	gain       []float64
}

func newReplicateScratch(p *Problem, pathLen int) *replicateScratch {
	return &replicateScratch{
		counts:     make([]int, p.NumClusters),
		unitWeight: make([]float64, p.NumUnits()),
		armCost:    make([]float64, p.NumArms()),
		armScore:   make([]float64, p.NumArms()),
		spend:      make([]float64, pathLen),
		gain:       make([]float64, pathLen),
	}
}
