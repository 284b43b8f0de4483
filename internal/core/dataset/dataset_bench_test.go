package dataset

import (
	"strconv"
	"testing"

	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

// benchBuffer registers a float64 buffer holding 0..n-1.
func benchBuffer(b *testing.B, r *models.Registry, n uint64) *DataSet {
	d, err := Create(r, nil, "bench", true)
	if err != nil {
		b.Fatal(err)
	}
	d.CreateBuffer(fields.Float64, 0, n)
	for i := uint64(0); i < n; i++ {
		d.SetValueAt(i, float64(i))
	}
	return d
}

func benchRegistry(b *testing.B) *models.Registry {
	r := models.NewRegistry(log.NewNop())
	if err := r.RegisterFactory(Factory{}); err != nil {
		b.Fatal(err)
	}
	return r
}

func BenchmarkRefresh(b *testing.B) {
	for _, n := range []uint64{64, 4096, 1 << 16} {
		b.Run("elements="+strconv.FormatUint(n, 10), func(b *testing.B) {
			r := benchRegistry(b)
			src := benchBuffer(b, r, n)
			mirror, err := CreateRemote(r, src, nil, true)
			if err != nil {
				b.Fatal(err)
			}
			b.SetBytes(int64(n) * 8)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := mirror.Refresh(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBoundingIndices(b *testing.B) {
	r := benchRegistry(b)
	d := benchBuffer(b, r, 1<<16)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := float64(i % (1 << 15))
		_, _, _ = d.BoundingIndices(start, start+1000.5)
	}
}

func BenchmarkValueAt(b *testing.B) {
	r := benchRegistry(b)
	d := benchBuffer(b, r, 1024)
	var sum float64
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum += d.ValueAt(uint64(i & 1023))
	}
	_ = sum
}
