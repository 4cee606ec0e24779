package mpm

import (
	"fmt"
	"testing"
)

// Benchmark a full step for a settled dam-break block at several sizes.
func BenchmarkAdvance(b *testing.B) {
	for _, side := range []int{16, 32, 64} {
		b.Run(fmt.Sprintf("particles=%d", side*side), func(b *testing.B) {
			cfg := testConfig()
			cfg.Workers = 0
			s := New(cfg)
			defer s.Close()
			damBreak(s, side, side)
			for i := 0; i < 5; i++ {
				s.Advance(1.0 / 120)
			}

			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				s.Advance(1.0 / 120)
			}
		})
	}
}

// Benchmark the serial path against the worker pool.
func BenchmarkAdvanceWorkers(b *testing.B) {
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			cfg := testConfig()
			cfg.Workers = workers
			s := New(cfg)
			defer s.Close()
			damBreak(s, 40, 40)

			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				s.Advance(1.0 / 120)
			}
		})
	}
}
