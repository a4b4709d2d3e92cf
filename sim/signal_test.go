package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type signalRecorder struct {
	levels []bool
}

func (r *signalRecorder) NotifySignal(s *Signal, level bool) {
	r.levels = append(r.levels, level)
}

var _ = Describe("Signal", func() {
	var (
		signal   *Signal
		recorder *signalRecorder
	)

	BeforeEach(func() {
		signal = NewSignal("IRQ", false)
		recorder = &signalRecorder{}
		signal.Connect(recorder)
	})

	It("should report its initial level", func() {
		Expect(signal.Level()).To(BeFalse())
	})

	It("should notify sinks on a level change", func() {
		signal.Set(true)

		Expect(signal.Level()).To(BeTrue())
		Expect(recorder.levels).To(Equal([]bool{true}))
	})

	It("should not notify sinks when the level does not change", func() {
		signal.Set(false)
		signal.Set(true)
		signal.Set(true)

		Expect(recorder.levels).To(Equal([]bool{true}))
	})

	It("should fan out to multiple sinks in connection order", func() {
		second := &signalRecorder{}
		signal.Connect(second)

		signal.Set(true)
		signal.Set(false)

		Expect(recorder.levels).To(Equal([]bool{true, false}))
		Expect(second.levels).To(Equal([]bool{true, false}))
	})
})

type countingHook struct {
	count int
}

func (h *countingHook) Func(ctx HookCtx) {
	h.count++
}

var _ = Describe("HookableBase", func() {
	It("should invoke all registered hooks", func() {
		hookable := NewHookableBase()
		h1 := &countingHook{}
		h2 := &countingHook{}

		hookable.AcceptHook(h1)
		hookable.AcceptHook(h2)
		hookable.InvokeHook(HookCtx{})

		Expect(h1.count).To(Equal(1))
		Expect(h2.count).To(Equal(1))
		Expect(hookable.Hooks()).To(HaveLen(2))
	})
})
