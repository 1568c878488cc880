package bucket

import (
	"testing"

	"github.com/limitr/limitr/pkg/clock"
)

func BenchmarkTokenBucket_Allow(b *testing.B) {
	vc := clock.NewVirtualClock(epoch)
	tb, _ := NewTokenBucket(1_000_000, 1_000_000, vc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tb.Allow(ctx)
	}
}

func BenchmarkTokenBucket_Parallel(b *testing.B) {
	vc := clock.NewVirtualClock(epoch)
	tb, _ := NewTokenBucket(1_000_000, 1_000_000, vc)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tb.Allow(ctx)
		}
	})
}

func BenchmarkLeakyBucket_Allow(b *testing.B) {
	vc := clock.NewVirtualClock(epoch)
	lb, _ := NewLeakyBucket(1_000_000, 1_000_000, vc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lb.Allow(ctx)
	}
}

func BenchmarkLeakyBucket_Parallel(b *testing.B) {
	vc := clock.NewVirtualClock(epoch)
	lb, _ := NewLeakyBucket(1_000_000, 1_000_000, vc)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			lb.Allow(ctx)
		}
	})
}

func BenchmarkTokenBucket_SystemClock(b *testing.B) {
	tb, _ := NewTokenBucket(1_000_000, 1_000_000, clock.NewSystemClock())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tb.Allow(ctx)
	}
}
