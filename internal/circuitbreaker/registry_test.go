package circuitbreaker_test

import (
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(5, 30*time.Second)
	})

	Describe("NewRegistry", func() {
		It("should create a registry", func() {
			Expect(registry).NotTo(BeNil())
		})
	})

	Describe("Breaker", func() {
		It("should create a new breaker for unknown endpoint", func() {
			cb := registry.Breaker("token")
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same endpoint", func() {
			cb1 := registry.Breaker("token")
			cb2 := registry.Breaker("token")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should return different breakers for different endpoints", func() {
			cb1 := registry.Breaker("token")
			cb2 := registry.Breaker("userinfo")
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
		})

		It("should use registry threshold for new breakers", func() {
			registry = circuitbreaker.NewRegistry(2, 100*time.Millisecond)
			cb := registry.Breaker("token")

			// Should open after 2 failures (not default)
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should use registry timeout for new breakers", func() {
			registry = circuitbreaker.NewRegistry(2, 50*time.Millisecond)
			cb := registry.Breaker("token")

			// Trip the circuit
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))

			// Wait for short timeout
			time.Sleep(60 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})
	})

	Describe("Concurrent access", func() {
		It("should handle concurrent Breaker calls safely", func() {
			const goroutines = 100
			const callsPerGoroutine = 10

			var wg sync.WaitGroup
			wg.Add(goroutines)

			for i := 0; i < goroutines; i++ {
				go func(id int) {
					defer wg.Done()
					for j := 0; j < callsPerGoroutine; j++ {
						cb := registry.Breaker("token")
						Expect(cb).NotTo(BeNil())
					}
				}(i)
			}

			wg.Wait()

			// One breaker per endpoint
			stats := registry.Stats()
			Expect(stats).To(HaveLen(1))
		})

		It("should handle concurrent operations on same breaker", func() {
			const goroutines = 50

			var wg sync.WaitGroup
			wg.Add(goroutines * 2)

			cb := registry.Breaker("token")

			// Half recording failures
			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					cb.RecordFailure()
				}()
			}

			// Half recording successes
			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					cb.RecordSuccess()
				}()
			}

			wg.Wait()

			// Should not panic and state should be valid
			state := cb.State()
			Expect(state).To(BeElementOf(
				circuitbreaker.StateClosed,
				circuitbreaker.StateOpen,
				circuitbreaker.StateHalfOpen,
			))
		})
	})

	Describe("Do", func() {
		It("should route calls through the endpoint breaker", func() {
			registry = circuitbreaker.NewRegistry(1, time.Hour)
			Expect(registry.Do("token", func() error { return errors.New("down") })).To(HaveOccurred())

			Expect(registry.Do("token", func() error { return nil })).To(MatchError(circuitbreaker.ErrOpen))
			Expect(registry.Do("userinfo", func() error { return nil })).To(Succeed())
		})
	})

	Describe("DoIf", func() {
		It("should only trip the endpoint on counted errors", func() {
			registry = circuitbreaker.NewRegistry(1, time.Hour)
			ignore := func(error) bool { return false }

			Expect(registry.DoIf("token", func() error { return errors.New("bad code") }, ignore)).To(HaveOccurred())
			Expect(registry.Stats()).To(HaveKeyWithValue("token", circuitbreaker.StateClosed))

			Expect(registry.DoIf("token", func() error { return errors.New("down") }, nil)).To(HaveOccurred())
			Expect(registry.Stats()).To(HaveKeyWithValue("token", circuitbreaker.StateOpen))
		})
	})

	Describe("Stats", func() {
		It("should return state of all breakers", func() {
			cb1 := registry.Breaker("token")
			cb2 := registry.Breaker("userinfo")

			// Trip cb2
			for i := 0; i < 5; i++ {
				cb2.RecordFailure()
			}

			stats := registry.Stats()
			Expect(stats).To(HaveLen(2))
			Expect(stats["token"]).To(Equal(circuitbreaker.StateClosed))
			Expect(stats["userinfo"]).To(Equal(circuitbreaker.StateOpen))

			Expect(cb1.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})
})
