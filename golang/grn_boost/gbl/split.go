package gbl

//kRtEps is the smallest loss change that still counts as an improvement.
const kRtEps = 1e-6

//GradPair is the first and the second derivative of the loss for one record.
type GradPair struct {
	Grad, Hess float64
}

//GradStats accumulates gradients and hessians of a group of records.
type GradStats struct {
	SumGrad, SumHess float64
}

//Add adds one record to the statistics.
func (stats *GradStats) Add(pair GradPair) {
	stats.SumGrad += pair.Grad
	stats.SumHess += pair.Hess
}

//Sub returns stats minus other.
func (stats GradStats) Sub(other GradStats) GradStats {
	return GradStats{SumGrad: stats.SumGrad - other.SumGrad, SumHess: stats.SumHess - other.SumHess}
}

//calcGain is the structure score of a node with the L2 regularization regLambda.
func calcGain(stats GradStats, regLambda float64) float64 {
	return stats.SumGrad * stats.SumGrad / (stats.SumHess + regLambda)
}

//calcWeight is the optimal leaf weight of a node. Nodes lighter than minChildWeight or without hessian get 0.
func calcWeight(stats GradStats, regLambda, minChildWeight float64) float64 {
	if stats.SumHess <= 0 || stats.SumHess < minChildWeight {
		return 0
	}
	return -stats.SumGrad / (stats.SumHess + regLambda)
}

//BestSplit contains results of the split selection algorithm for one node.
type BestSplit struct {
	lossChange   float64
	featureIndex int
	threshold    float64
	left, right  GradStats
	validSplit   bool
}

//update replaces the split when the candidate is strictly better.
func (split *BestSplit) update(candidate BestSplit) {
	if !candidate.validSplit {
		return
	}
	if !split.validSplit || candidate.lossChange > split.lossChange {
		*split = candidate
	}
}

//splitScan holds the state of one pass over a sorted feature column.
type splitScan struct {
	dmatrix        *DMatrix
	gpair          []GradPair
	positions      []int
	slotOf         []int
	nodeStats      []GradStats
	regLambda      float64
	minChildWeight float64
}

//scanFeature walks the feature q in ascending order once and finds the best split for every open node.
//Rows whose position is negative or whose node is not open are skipped.
func (scan splitScan) scanFeature(q int) []BestSplit {
	column := scan.dmatrix.Columns[q]
	order := scan.dmatrix.Order[column]
	slots := len(scan.nodeStats)

	best := make([]BestSplit, slots)
	running := make([]GradStats, slots)
	lastValue := make([]float64, slots)
	seen := make([]bool, slots)

	indRange := NewRange(0, len(order), 1)
	for indRange.HasNext() {
		row := order[indRange.GetNext()]
		node := scan.positions[row]
		if node < 0 {
			continue
		}
		slot := scan.slotOf[node]
		if slot < 0 {
			continue
		}

		value := scan.dmatrix.Features.At(row, column)
		if seen[slot] && value != lastValue[slot] {
			left := running[slot]
			right := scan.nodeStats[slot].Sub(left)
			if left.SumHess >= scan.minChildWeight && right.SumHess >= scan.minChildWeight {
				lossChange := calcGain(left, scan.regLambda) + calcGain(right, scan.regLambda) - calcGain(scan.nodeStats[slot], scan.regLambda)
				if lossChange > kRtEps {
					best[slot].update(BestSplit{
						lossChange:   lossChange,
						featureIndex: q,
						threshold:    (lastValue[slot] + value) / 2,
						left:         left,
						right:        right,
						validSplit:   true,
					})
				}
			}
		}
		running[slot].Add(scan.gpair[row])
		lastValue[slot] = value
		seen[slot] = true
	}
	return best
}

//TheBestSplits finds the best split of every open node over the sampled features.
//Features are scanned on threadsNum goroutines, the reduction keeps the lowest feature index on ties.
func (scan splitScan) TheBestSplits(features []int, threadsNum int) []BestSplit {
	result := make([][]BestSplit, len(features))

	if threadsNum <= 1 || len(features) < 2 {
		for ind, q := range features {
			result[ind] = scan.scanFeature(q)
		}
	} else {
		taskPool := NewPool(threadsNum)
		for ind := range features {
			bestSplitFunc := func(localInd int) []BestSplit {
				return scan.scanFeature(features[localInd])
			}
			taskPool.AddTask(&TaskFindBestSplit{result, ind, bestSplitFunc})
		}
		taskPool.Close()
		taskPool.WaitAll()
	}

	best := make([]BestSplit, len(scan.nodeStats))
	for _, featureSplits := range result {
		for slot, candidate := range featureSplits {
			best[slot].update(candidate)
		}
	}
	return best
}
