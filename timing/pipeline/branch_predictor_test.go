package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor()
	})

	Describe("Prediction", func() {
		It("should initially predict taken (biased)", func() {
			Expect(bp.Predict(0x1000)).To(BeTrue())
			Expect(bp.Counter(0x1000)).To(Equal(pipeline.WeaklyTaken))
		})

		It("should not mutate state when predicting", func() {
			bp.Predict(0x1000)
			Expect(bp.Entries()).To(Equal(0))
			Expect(bp.Stats().Total).To(Equal(uint64(0)))
		})

		It("should saturate at strongly taken", func() {
			pc := uint64(7)
			for i := 0; i < 4; i++ {
				bp.Update(pc, true)
			}

			Expect(bp.Predict(pc)).To(BeTrue())
			Expect(bp.Counter(pc)).To(Equal(pipeline.StronglyTaken))
		})

		It("should walk back to strongly not taken", func() {
			pc := uint64(7)
			for i := 0; i < 4; i++ {
				bp.Update(pc, true)
			}
			for i := 0; i < 4; i++ {
				bp.Update(pc, false)
			}

			Expect(bp.Predict(pc)).To(BeFalse())
			Expect(bp.Counter(pc)).To(Equal(pipeline.StronglyNotTaken))

			bp.Update(pc, false)
			Expect(bp.Counter(pc)).To(Equal(pipeline.StronglyNotTaken))
		})

		It("should need two taken outcomes to flip a not-taken branch", func() {
			pc := uint64(3)
			bp.Update(pc, false)
			bp.Update(pc, false)
			Expect(bp.Predict(pc)).To(BeFalse())

			bp.Update(pc, true)
			Expect(bp.Predict(pc)).To(BeFalse())
			bp.Update(pc, true)
			Expect(bp.Predict(pc)).To(BeTrue())
		})

		It("should keep branches at different PCs independent", func() {
			bp.Update(1, false)
			bp.Update(1, false)

			Expect(bp.Predict(1)).To(BeFalse())
			Expect(bp.Predict(2)).To(BeTrue())
		})
	})

	Describe("Accuracy", func() {
		It("should default to 1.0 before any update", func() {
			Expect(bp.Accuracy()).To(Equal(1.0))
		})

		It("should score the prediction made before the update", func() {
			pc := uint64(0x40)
			bp.Update(pc, true)  // predicted taken, correct
			bp.Update(pc, false) // counter 3 predicts taken, wrong
			bp.Update(pc, false) // counter 2 predicts taken, wrong
			bp.Update(pc, false) // counter 1 predicts not taken, correct

			stats := bp.Stats()
			Expect(stats.Total).To(Equal(uint64(4)))
			Expect(stats.Correct).To(Equal(uint64(2)))
			Expect(stats.Mispredictions()).To(Equal(uint64(2)))
			Expect(bp.Accuracy()).To(BeNumerically("~", 0.5))
		})
	})

	Describe("Reset", func() {
		It("should clear the table and counters", func() {
			bp.Update(1, false)
			bp.Update(1, false)
			bp.Reset()

			Expect(bp.Predict(1)).To(BeTrue())
			Expect(bp.Entries()).To(Equal(0))
			Expect(bp.Stats()).To(Equal(pipeline.BranchPredictorStats{}))
			Expect(bp.Accuracy()).To(Equal(1.0))
		})
	})
})
