package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var (
		hazardUnit *pipeline.HazardUnit
		decoder    *insts.Decoder
	)

	slot := func(text string) *pipeline.Slot {
		return &pipeline.Slot{Valid: true, Inst: decoder.Decode(text)}
	}

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
		decoder = insts.NewDecoder()
	})

	Describe("DetectRAW", func() {
		It("should detect a dependency on the Execute destination", func() {
			Expect(hazardUnit.DetectRAW(slot("sub r4, r1, r5"), slot("add r1, r2, r3"))).To(BeTrue())
		})

		It("should count the Decode destination as a read", func() {
			Expect(hazardUnit.DetectRAW(slot("add r1, r2, r3"), slot("lw r1, 0(r7)"))).To(BeTrue())
		})

		It("should ignore independent instructions", func() {
			Expect(hazardUnit.DetectRAW(slot("sub r4, r6, r5"), slot("add r1, r2, r3"))).To(BeFalse())
		})

		It("should not match r1 against r10", func() {
			Expect(hazardUnit.DetectRAW(slot("add r10, r11, r12"), slot("add r1, r2, r3"))).To(BeFalse())
		})

		It("should ignore empty stages", func() {
			Expect(hazardUnit.DetectRAW(&pipeline.Slot{}, slot("add r1, r2, r3"))).To(BeFalse())
			Expect(hazardUnit.DetectRAW(slot("add r1, r2, r3"), &pipeline.Slot{})).To(BeFalse())
		})

		It("should ignore a producer without registers", func() {
			Expect(hazardUnit.DetectRAW(slot("add r1, r2, r3"), slot("nop"))).To(BeFalse())
		})
	})

	Describe("Detect", func() {
		It("should flag Decode and stall Fetch on RAW", func() {
			result := hazardUnit.Detect(slot("sub r4, r1, r5"), slot("add r1, r2, r3"))

			Expect(result.Hazards[pipeline.StageDecode]).To(Equal(pipeline.HazardRAW))
			Expect(result.Hazards[pipeline.StageFetch]).To(Equal(pipeline.HazardNone))
			Expect(result.Stalls[pipeline.StageFetch]).To(BeTrue())
			Expect(result.Any()).To(BeTrue())
		})

		It("should flag Fetch on a branch in Decode", func() {
			result := hazardUnit.Detect(slot("beq r10, r11, label"), &pipeline.Slot{})

			Expect(result.Hazards[pipeline.StageFetch]).To(Equal(pipeline.HazardControl))
			Expect(result.Stalls[pipeline.StageFetch]).To(BeTrue())
		})

		It("should report both hazards in the same cycle", func() {
			result := hazardUnit.Detect(slot("bne r1, r0, top"), slot("add r1, r2, r3"))

			Expect(result.Hazards[pipeline.StageDecode]).To(Equal(pipeline.HazardRAW))
			Expect(result.Hazards[pipeline.StageFetch]).To(Equal(pipeline.HazardControl))
			Expect(result.Stalls[pipeline.StageFetch]).To(BeTrue())
		})

		It("should report nothing for a clean pair", func() {
			result := hazardUnit.Detect(slot("add r4, r5, r6"), slot("add r1, r2, r3"))

			Expect(result.Any()).To(BeFalse())
			Expect(result.Stalls).To(Equal([pipeline.NumStages]bool{}))
		})
	})

	Describe("HazardKind labels", func() {
		It("should use the display labels", func() {
			Expect(pipeline.HazardRAW.String()).To(Equal("RAW Hazard"))
			Expect(pipeline.HazardControl.String()).To(Equal("Control Hazard"))
			Expect(pipeline.HazardNone.String()).To(BeEmpty())
		})
	})
})
