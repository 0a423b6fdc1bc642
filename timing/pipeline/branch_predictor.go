package pipeline

// Counter states of the 2-bit saturating counter.
const (
	StronglyNotTaken uint8 = 0
	WeaklyNotTaken   uint8 = 1
	WeaklyTaken      uint8 = 2
	StronglyTaken    uint8 = 3
)

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Total is the number of resolved branches.
	Total uint64
	// Correct is the number of correct predictions.
	Correct uint64
}

// Mispredictions returns the number of incorrect predictions.
func (s BranchPredictorStats) Mispredictions() uint64 {
	return s.Total - s.Correct
}

// Accuracy returns the fraction of correct predictions. With no resolved
// branches yet it returns 1.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Correct) / float64(s.Total)
}

// BranchPredictor implements a 2-bit saturating counter (bimodal) predictor.
// Unlike a fixed-size BHT, the table grows with every distinct PC so no two
// branches alias. Unseen PCs start at WeaklyTaken.
type BranchPredictor struct {
	table map[uint64]uint8

	stats BranchPredictorStats
}

// NewBranchPredictor creates an empty branch predictor.
func NewBranchPredictor() *BranchPredictor {
	bp := &BranchPredictor{}
	bp.Reset()
	return bp
}

// Counter returns the counter stored for pc.
func (bp *BranchPredictor) Counter(pc uint64) uint8 {
	counter, ok := bp.table[pc]
	if !ok {
		return WeaklyTaken
	}
	return counter
}

// Predict returns true if the branch at pc is predicted taken. It does not
// change predictor state.
func (bp *BranchPredictor) Predict(pc uint64) bool {
	return bp.Counter(pc) > WeaklyNotTaken
}

// Update scores the prediction that would have been made for pc against
// the actual outcome, then trains the counter.
func (bp *BranchPredictor) Update(pc uint64, taken bool) {
	counter := bp.Counter(pc)

	predicted := counter > WeaklyNotTaken
	if predicted == taken {
		bp.stats.Correct++
	}
	bp.stats.Total++

	if taken {
		if counter < StronglyTaken {
			counter++
		}
	} else {
		if counter > StronglyNotTaken {
			counter--
		}
	}

	bp.table[pc] = counter
}

// Accuracy returns the prediction accuracy in [0, 1].
func (bp *BranchPredictor) Accuracy() float64 {
	return bp.stats.Accuracy()
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Entries returns the number of PCs the predictor has trained on.
func (bp *BranchPredictor) Entries() int {
	return len(bp.table)
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	bp.table = make(map[uint64]uint8)
	bp.stats = BranchPredictorStats{}
}
