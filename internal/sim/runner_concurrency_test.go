package sim

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/firesim/internal/fluid"
)

var _ = Describe("Runner loop", func() {
	var (
		r      *Runner
		ctx    context.Context
		cancel context.CancelFunc
		done   chan error
	)

	BeforeEach(func() {
		var err error
		r, err = New(32, fluid.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		r.AddSource(SteadySource{Edge: fluid.EdgeBottom})

		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- r.Run(ctx, Config{Interval: time.Millisecond})
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive())
	})

	It("keeps ticking until cancelled", func() {
		Eventually(r.Tick).Should(BeNumerically(">", 5))

		cancel()
		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(MatchError(context.Canceled))

		// put a value back for AfterEach
		done <- nil
	})

	It("accepts injections from other goroutines while running", func() {
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				defer GinkgoRecover()
				for i := 0; i < 50; i++ {
					r.Inject(float32(w)/4, float32(i)/50)
				}
			}(w)
		}
		wg.Wait()

		Eventually(r.Tick).Should(BeNumerically(">", 3))
		var snap fluid.Snapshot
		r.Snapshot(&snap)
		for k := range snap.Density {
			Expect(snap.Density[k]).To(BeNumerically(">=", 0))
			Expect(snap.Temperature[k]).To(BeNumerically(">=", 0))
		}
	})

	It("switches to a new grid on resize and keeps going", func() {
		Eventually(r.Tick).Should(BeNumerically(">", 2))

		Expect(r.Resize(64)).To(Succeed())
		Expect(r.N()).To(Equal(64))

		before := r.Tick()
		Eventually(r.Tick).Should(BeNumerically(">", before+2))

		var snap fluid.Snapshot
		r.Snapshot(&snap)
		Expect(snap.N).To(Equal(64))
		Expect(snap.Density).To(HaveLen(66 * 66))
	})

	It("stops ticking while paused", func() {
		Eventually(r.Tick).Should(BeNumerically(">", 1))

		r.SetPaused(true)
		// let any in-flight tick finish
		time.Sleep(20 * time.Millisecond)
		paused := r.Tick()
		Consistently(r.Tick, 100*time.Millisecond, 10*time.Millisecond).Should(Equal(paused))

		r.SetPaused(false)
		Eventually(r.Tick).Should(BeNumerically(">", paused))
	})

	It("picks up new parameters on the next tick", func() {
		p := fluid.DefaultParams()
		p.Buoyancy = -1
		Expect(r.SetParams(p)).To(Succeed())
		Expect(r.Params().Buoyancy).To(Equal(float32(-1)))
		Eventually(r.Tick).Should(BeNumerically(">", 2))
	})
})
