package rowset

import (
	"math"
	"sort"

	treemap "github.com/liyue201/gostl/ds/map"

	"github.com/voradb/vora/pkg/util"
)

// QuantileAcc is a streaming quantile accumulator. The slot stores a
// handle to one; decoding invokes Quantile. An accumulator that was
// never fed decodes to the null sentinel.
type QuantileAcc interface {
	Add(val float64)
	Count() uint64
	Quantile(q float64) float64
}

// exactQuantile keeps an ordered multiset of every value fed.
type exactQuantile struct {
	_ordered *treemap.Map[float64, int]
	_counts  map[float64]int
	_total   uint64
}

func newExactQuantile() *exactQuantile {
	cmp := func(a, b float64) int {
		if a < b {
			return -1
		} else if a > b {
			return 1
		}
		return 0
	}
	return &exactQuantile{
		_ordered: treemap.New[float64, int](cmp),
		_counts:  make(map[float64]int),
	}
}

func (acc *exactQuantile) Add(val float64) {
	if _, has := acc._counts[val]; !has {
		acc._ordered.Insert(val, 0)
	}
	acc._counts[val]++
	acc._total++
}

func (acc *exactQuantile) Count() uint64 {
	return acc._total
}

func (acc *exactQuantile) Quantile(q float64) float64 {
	util.AssertFunc(q >= 0 && q <= 1)
	if acc._total == 0 {
		return math.NaN()
	}
	rank := uint64(q * float64(acc._total-1))
	var seen uint64
	for iter := acc._ordered.First(); iter.IsValid(); iter.Next() {
		val := iter.Key()
		seen += uint64(acc._counts[val])
		if seen > rank {
			return val
		}
	}
	panic("quantile rank out of range")
}

// approxQuantile is a merging-digest sketch: buffered values are
// folded into size-bounded centroids, quantiles interpolate between
// centroid means.
type approxQuantile struct {
	_centroids []centroid
	_buf       []float64
	_total     uint64
	_compress  float64
}

type centroid struct {
	_mean   float64
	_weight float64
}

const approxQuantileBufCap = 512

func newApproxQuantile() *approxQuantile {
	return &approxQuantile{_compress: 100}
}

func (acc *approxQuantile) Add(val float64) {
	acc._buf = append(acc._buf, val)
	acc._total++
	if len(acc._buf) >= approxQuantileBufCap {
		acc.flush()
	}
}

func (acc *approxQuantile) Count() uint64 {
	return acc._total
}

func (acc *approxQuantile) flush() {
	if len(acc._buf) == 0 {
		return
	}
	merged := make([]centroid, 0, len(acc._centroids)+len(acc._buf))
	merged = append(merged, acc._centroids...)
	for _, v := range acc._buf {
		merged = append(merged, centroid{_mean: v, _weight: 1})
	}
	acc._buf = acc._buf[:0]
	sort.Slice(merged, func(i, j int) bool {
		return merged[i]._mean < merged[j]._mean
	})

	total := float64(0)
	for _, c := range merged {
		total += c._weight
	}
	out := make([]centroid, 0, len(merged))
	cum := float64(0)
	for _, c := range merged {
		if len(out) > 0 {
			last := &out[len(out)-1]
			q := (cum + last._weight/2) / total
			bound := 4 * total * q * (1 - q) / acc._compress
			if last._weight+c._weight <= bound {
				w := last._weight + c._weight
				last._mean = (last._mean*last._weight + c._mean*c._weight) / w
				last._weight = w
				continue
			}
			cum += last._weight
		}
		out = append(out, c)
	}
	acc._centroids = out
}

func (acc *approxQuantile) Quantile(q float64) float64 {
	util.AssertFunc(q >= 0 && q <= 1)
	acc.flush()
	if len(acc._centroids) == 0 {
		return math.NaN()
	}
	target := q * float64(acc._total)
	cum := float64(0)
	for _, c := range acc._centroids {
		if cum+c._weight >= target {
			return c._mean
		}
		cum += c._weight
	}
	return acc._centroids[len(acc._centroids)-1]._mean
}
