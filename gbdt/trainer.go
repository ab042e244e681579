package gbdt

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// splitInfo is the best split found for a node.
type splitInfo struct {
	feature     int
	threshold   float64
	gain        float64
	defaultLeft bool
}

// trainer holds the mutable state of one Train call.
type trainer struct {
	params Params
	obj    objective
	rng    *rand.Rand

	data   []float64 // row-major training features
	stride int
	cols   int
	labels []float64

	preds     []float64
	gradients []float64
	hessians  []float64

	round int
}

// Train fits a boosted ensemble of regression trees to dtrain.
//
// After every round the RMSE of each eval set is computed. When
// EarlyStoppingRounds is positive, the last eval set is monitored and the
// returned booster keeps only the trees up to its best round. A panic inside
// the boosting loop is returned as a TrainingError.
func Train(params Params, dtrain *DMatrix, evals []EvalSet, opts ...TrainOption) (booster *Booster, err error) {
	t := &trainer{params: params}
	defer func() {
		var perr *errors.PanicError
		if errors.As(err, &perr) {
			booster = nil
			err = errors.NewTrainingError(t.round, err)
		}
	}()
	defer errors.Recover(&err, "gbdt.Train")

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if dtrain == nil {
		return nil, errors.NewInvalidArgumentError("dtrain", "training matrix is required", nil)
	}
	for _, ev := range evals {
		if ev.Data == nil || ev.Data.NumCols() != dtrain.NumCols() {
			return nil, errors.NewInvalidArgumentError("evals", "eval set must have the training feature count", ev.Name)
		}
	}

	var cfg trainConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := t.initialize(dtrain); err != nil {
		return nil, err
	}

	booster = &Booster{
		Params:       params,
		BaseScore:    t.preds[0],
		NumFeatures:  t.cols,
		FeatureNames: dtrain.featureNames,
		BestRound:    -1,
	}

	evalPreds := make([][]float64, len(evals))
	evalRows := make([][][]float64, len(evals))
	for k, ev := range evals {
		evalRows[k] = denseRows(ev.Data.x)
		evalPreds[k] = make([]float64, len(evalRows[k]))
		for i := range evalPreds[k] {
			evalPreds[k][i] = booster.BaseScore
		}
	}

	es := newEarlyStopping(params.EarlyStoppingRounds)
	if es != nil && len(evals) == 0 {
		return nil, errors.NewInvalidArgumentError("early_stopping_rounds", "requires at least one eval set", params.EarlyStoppingRounds)
	}

	logger := slog.With(log.ComponentKey, "gbdt", log.OperationKey, log.OperationFit)
	logger.Debug("Starting boosting",
		log.SamplesKey, len(t.labels),
		log.FeaturesKey, t.cols,
		log.LearningRateKey, params.LearningRate,
		"objective", t.obj.Name(),
	)

	// verbosity 1 and above lifts the per-round evaluation to info
	roundLevel := slog.LevelDebug
	if params.Verbosity > 0 {
		roundLevel = slog.LevelInfo
	}

	start := time.Now()
	for t.round = 0; t.round < params.NumRounds; t.round++ {
		t.calculateGradients()
		tree := t.buildTree()
		booster.Trees = append(booster.Trees, tree)

		t.updatePredictions(&tree)

		results := make(map[string]float64, len(evals))
		var monitored float64
		for k, ev := range evals {
			for i, row := range evalRows[k] {
				evalPreds[k][i] += tree.Predict(row)
			}
			score, err := metrics.RMSE(
				mat.NewVecDense(len(ev.Data.labels), ev.Data.labels),
				mat.NewVecDense(len(evalPreds[k]), evalPreds[k]),
			)
			if err != nil {
				return nil, errors.NewTrainingError(t.round, err)
			}
			results[ev.Name+"-rmse"] = score
			monitored = score
		}
		if len(results) > 0 {
			args := []any{log.RoundKey, t.round}
			for name, value := range results {
				args = append(args, name, value)
			}
			logger.Log(context.Background(), roundLevel, "Round evaluated", args...)
		}

		env := &CallbackEnv{Round: t.round, Elapsed: time.Since(start), EvalResults: results}
		for _, cb := range cfg.callbacks {
			if err := cb(env); err != nil {
				return nil, errors.NewTrainingError(t.round, err)
			}
		}

		if es != nil && es.update(t.round, monitored) {
			logger.Debug("Early stopping",
				log.RoundKey, t.round,
				"best_round", es.bestRound,
				"best_score", es.bestScore,
			)
			break
		}
		if env.StopTraining {
			break
		}
	}

	if es != nil {
		booster.BestRound = es.bestRound
		booster.Trees = booster.Trees[:es.bestRound+1]
	}

	maxDepth, leaves := 0, 0
	for i := range booster.Trees {
		maxDepth = max(maxDepth, booster.Trees[i].depth())
		leaves += booster.Trees[i].numLeaves()
	}
	logger.Debug("Boosting finished",
		"trees", len(booster.Trees),
		"max_tree_depth", maxDepth,
		"leaves", leaves,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return booster, nil
}

func (t *trainer) initialize(d *DMatrix) error {
	obj, err := newObjective(t.params)
	if err != nil {
		return err
	}
	t.obj = obj

	raw := d.x.RawMatrix()
	t.data = raw.Data
	t.stride = raw.Stride
	t.cols = raw.Cols
	t.labels = d.labels

	seed := t.params.Seed
	t.rng = rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d))

	base := t.params.BaseScore
	if base == 0 {
		base = obj.InitScore(t.labels)
	}
	n := len(t.labels)
	t.preds = make([]float64, n)
	for i := range t.preds {
		t.preds[i] = base
	}
	t.gradients = make([]float64, n)
	t.hessians = make([]float64, n)
	return nil
}

func (t *trainer) value(row, feature int) float64 {
	return t.data[row*t.stride+feature]
}

func (t *trainer) row(i int) []float64 {
	return t.data[i*t.stride : i*t.stride+t.cols]
}

func (t *trainer) calculateGradients() {
	for i, y := range t.labels {
		t.gradients[i], t.hessians[i] = t.obj.GradHess(t.preds[i], y)
	}
}

// updatePredictions adds the new tree's output to the cached training
// predictions, including rows left out by subsampling.
func (t *trainer) updatePredictions(tree *Tree) {
	for i := range t.preds {
		t.preds[i] += tree.Predict(t.row(i))
	}
}

// sampleRows returns the row indices used to grow this round's tree.
func (t *trainer) sampleRows() []int {
	n := len(t.labels)
	if t.params.Subsample >= 1 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	indices := make([]int, 0, int(float64(n)*t.params.Subsample)+1)
	for i := 0; i < n; i++ {
		if t.rng.Float64() < t.params.Subsample {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		indices = append(indices, t.rng.IntN(n))
	}
	return indices
}

// sampleFeatures returns the sorted feature indices considered this round.
func (t *trainer) sampleFeatures() []int {
	k := int(float64(t.cols) * t.params.ColsampleByTree)
	if k < 1 {
		k = 1
	}
	if k >= t.cols {
		features := make([]int, t.cols)
		for j := range features {
			features[j] = j
		}
		return features
	}
	features := t.rng.Perm(t.cols)[:k]
	sort.Ints(features)
	return features
}

func (t *trainer) buildTree() Tree {
	tree := Tree{ShrinkageRate: t.params.LearningRate}
	indices := t.sampleRows()
	features := t.sampleFeatures()
	t.buildNode(&tree, indices, features, 0)
	return tree
}

// buildNode grows the subtree for indices depth-first and returns its node ID.
func (t *trainer) buildNode(tree *Tree, indices, features []int, depth int) int {
	var sumGrad, sumHess float64
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}

	nodeID := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{
		NodeID:     nodeID,
		LeftChild:  -1,
		RightChild: -1,
		LeafValue:  t.leafWeight(sumGrad, sumHess),
		Cover:      sumHess,
	})

	if depth >= t.params.MaxDepth || len(indices) < 2 {
		return nodeID
	}

	split := t.findBestSplit(indices, features, sumGrad, sumHess)
	if split.gain <= 0 {
		return nodeID
	}

	left, right := t.splitData(indices, split)
	leftID := t.buildNode(tree, left, features, depth+1)
	rightID := t.buildNode(tree, right, features, depth+1)

	node := &tree.Nodes[nodeID]
	node.LeftChild = leftID
	node.RightChild = rightID
	node.SplitFeature = split.feature
	node.Threshold = split.threshold
	node.DefaultLeft = split.defaultLeft
	node.Gain = split.gain
	node.LeafValue = 0
	return nodeID
}

func (t *trainer) findBestSplit(indices, features []int, sumGrad, sumHess float64) splitInfo {
	best := splitInfo{gain: math.Inf(-1)}
	for _, j := range features {
		if s := t.findBestSplitForFeature(indices, j, sumGrad, sumHess); s.gain > best.gain {
			best = s
		}
	}
	return best
}

// findBestSplitForFeature scans the sorted values of one feature and
// evaluates every boundary between distinct values. Rows with a missing
// value are tried on both sides.
func (t *trainer) findBestSplitForFeature(indices []int, feature int, sumGrad, sumHess float64) splitInfo {
	type entry struct {
		value float64
		idx   int
	}
	values := make([]entry, 0, len(indices))
	var missGrad, missHess float64
	for _, idx := range indices {
		v := t.value(idx, feature)
		if math.IsNaN(v) {
			missGrad += t.gradients[idx]
			missHess += t.hessians[idx]
			continue
		}
		values = append(values, entry{value: v, idx: idx})
	}
	sort.Slice(values, func(a, b int) bool { return values[a].value < values[b].value })

	best := splitInfo{feature: feature, gain: math.Inf(-1)}
	parentScore := t.score(sumGrad, sumHess)

	var leftGrad, leftHess float64
	for i := 0; i < len(values)-1; i++ {
		leftGrad += t.gradients[values[i].idx]
		leftHess += t.hessians[values[i].idx]
		if values[i].value == values[i+1].value {
			continue
		}
		threshold := (values[i].value + values[i+1].value) / 2

		for _, missLeft := range []bool{false, true} {
			lg, lh := leftGrad, leftHess
			if missLeft {
				lg += missGrad
				lh += missHess
			}
			rg, rh := sumGrad-lg, sumHess-lh
			if lh < t.params.MinChildWeight || rh < t.params.MinChildWeight {
				continue
			}
			gain := 0.5*(t.score(lg, lh)+t.score(rg, rh)-parentScore) - t.params.Gamma
			if gain > best.gain {
				best.gain = gain
				best.threshold = threshold
				best.defaultLeft = missLeft
			}
			if missHess == 0 {
				// both directions are identical
				break
			}
		}
	}
	return best
}

func (t *trainer) splitData(indices []int, split splitInfo) (left, right []int) {
	for _, idx := range indices {
		v := t.value(idx, split.feature)
		goLeft := v <= split.threshold
		if math.IsNaN(v) {
			goLeft = split.defaultLeft
		}
		if goLeft {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// thresholdL1 applies the L1 soft threshold to a gradient sum.
func (t *trainer) thresholdL1(g float64) float64 {
	switch {
	case g > t.params.Alpha:
		return g - t.params.Alpha
	case g < -t.params.Alpha:
		return g + t.params.Alpha
	}
	return 0
}

func (t *trainer) score(sumGrad, sumHess float64) float64 {
	denom := sumHess + t.params.Lambda
	if denom == 0 {
		return 0
	}
	g := t.thresholdL1(sumGrad)
	return g * g / denom
}

func (t *trainer) leafWeight(sumGrad, sumHess float64) float64 {
	denom := sumHess + t.params.Lambda
	if denom == 0 {
		return 0
	}
	return -t.thresholdL1(sumGrad) / denom
}

func denseRows(x *mat.Dense) [][]float64 {
	rows, _ := x.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = x.RawRowView(i)
	}
	return out
}
