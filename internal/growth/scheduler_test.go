package growth

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/state"
)

var _ = Describe("Scheduler", func() {
	var (
		clock     *state.PlayClock
		switches  *state.SelfSwitches
		writes    []state.SelfSwitchKey
		scheduler *Scheduler
		doneKey   state.SelfSwitchKey
	)

	BeforeEach(func() {
		clock = &state.PlayClock{}
		switches = state.NewSelfSwitches(nil)
		writes = nil
		switches.OnChange(func(k state.SelfSwitchKey) { writes = append(writes, k) })
		scheduler = New(clock, switches, nil)
		doneKey = state.SelfSwitchKey{MapID: 1, EventID: 5, Channel: state.ChannelD}
	})

	Context("when an entry is registered at play time 100s for 20s", func() {
		BeforeEach(func() {
			clock.Advance(100 * time.Second)
			Expect(scheduler.Register(1, 5, 20*time.Second)).To(BeTrue())
		})

		It("stays growing until the expiry", func() {
			clock.Advance(19 * time.Second)
			Expect(scheduler.Update()).To(BeEmpty())

			e, ok := scheduler.Entry(1, 5)
			Expect(ok).To(BeTrue())
			Expect(e.State).To(Equal(Growing))
			Expect(e.ExpiresAt).To(Equal(120 * time.Second))
			Expect(switches.Get(doneKey)).To(BeFalse())
			Expect(scheduler.Status(1, 5)).To(Equal("growing (1s left)"))
		})

		It("promotes exactly once at the expiry", func() {
			clock.Advance(20 * time.Second)
			Expect(scheduler.Update()).To(Equal([]Key{{MapID: 1, EventID: 5}}))

			e, _ := scheduler.Entry(1, 5)
			Expect(e.State).To(Equal(Harvestable))
			Expect(switches.Get(doneKey)).To(BeTrue())
			Expect(scheduler.Status(1, 5)).To(Equal(StatusHarvestable))

			clock.Advance(time.Minute)
			Expect(scheduler.Update()).To(BeEmpty())
			Expect(writes).To(Equal([]state.SelfSwitchKey{doneKey}))
		})

		It("ignores a second registration for the same event", func() {
			clock.Advance(5 * time.Second)
			Expect(scheduler.Register(1, 5, time.Hour)).To(BeFalse())

			e, _ := scheduler.Entry(1, 5)
			Expect(e.ExpiresAt).To(Equal(120 * time.Second))
		})

		It("rounds the remaining time up", func() {
			clock.Advance(4500 * time.Millisecond)
			Expect(scheduler.Status(1, 5)).To(Equal("growing (16s left)"))
		})

		It("forgets the entry on resolve", func() {
			scheduler.Resolve(1, 5)
			Expect(scheduler.Status(1, 5)).To(Equal(StatusNone))
			Expect(scheduler.Register(1, 5, time.Second)).To(BeTrue())
		})
	})

	It("reports none for unknown events", func() {
		Expect(scheduler.Status(9, 9)).To(Equal(StatusNone))
		scheduler.Resolve(9, 9)
		Expect(scheduler.Keys()).To(BeEmpty())
	})

	It("promotes entries in map and event order", func() {
		scheduler.Register(2, 1, time.Second)
		scheduler.Register(1, 7, time.Second)
		scheduler.Register(1, 3, 2*time.Second)

		clock.Advance(time.Second)
		Expect(scheduler.Update()).To(Equal([]Key{{1, 7}, {2, 1}}))
		clock.Advance(time.Second)
		Expect(scheduler.Update()).To(Equal([]Key{{1, 3}}))
	})

	Describe("snapshots", func() {
		It("round trips entries", func() {
			scheduler.Register(1, 5, 20*time.Second)
			scheduler.Register(2, 8, 0)
			scheduler.Update()

			snap := scheduler.Snapshot()
			Expect(snap.SortedKeys()).To(Equal([]string{"1,5", "2,8"}))

			restored := New(clock, switches, nil)
			restored.Restore(snap)
			Expect(restored.Keys()).To(Equal(scheduler.Keys()))

			e, _ := restored.Entry(1, 5)
			Expect(e).To(Equal(Entry{State: Growing, ExpiresAt: 20 * time.Second}))
			e, _ = restored.Entry(2, 8)
			Expect(e.State).To(Equal(Harvestable))
		})

		It("skips malformed entries", func() {
			scheduler.Restore(data.Object{
				"1,5":  data.Object{"state": data.String("growing"), "expiresAt": data.Int(1000)},
				"oops": data.Object{"state": data.String("growing")},
				"2,2":  data.Object{"state": data.String("wilted")},
				"3,3":  data.Int(4),
			})
			Expect(scheduler.Keys()).To(Equal([]Key{{1, 5}}))
			e, _ := scheduler.Entry(1, 5)
			Expect(e.ExpiresAt).To(Equal(time.Second))
		})
	})
})
