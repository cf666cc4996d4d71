// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quality

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// =============================================================================
// BUCKET EDGES
// =============================================================================

// AngleEdges are the minimum-angle bucket boundaries in degrees:
// [0,10) [10,20) [20,30) [30,40) [40,50) [50,60) [60,90].
var AngleEdges = []float64{0, 10, 20, 30, 40, 50, 60, 90}

// AspectRatioEdges are the aspect-ratio bucket boundaries:
// [1,2) [2,5) [5,10) [10,20) [20,50) [50,100) [100,inf).
var AspectRatioEdges = []float64{1, 2, 5, 10, 20, 50, 100, math.Inf(1)}

// Bucket is one histogram bin. Lower is inclusive. Upper is exclusive except
// for the last bucket, which is closed (or unbounded when Upper is +Inf).
type Bucket struct {
	Label string `json:"label"`
	Lower Float  `json:"lower"`
	Upper Float  `json:"upper"`
	Count int    `json:"count"`
}

// bucketIndex returns the bucket for v given len(edges)-1 buckets. Values
// below the first edge land in the first bucket and values at or above the
// last edge land in the last one, so every value is counted exactly once.
func bucketIndex(edges []float64, v float64) int {
	n := len(edges) - 1
	return sort.Search(n-1, func(i int) bool {
		return edges[i+1] > v
	})
}

// histogram counts values into the buckets delimited by edges.
func histogram(edges []float64, values []float64, unit string) []Bucket {
	buckets := make([]Bucket, len(edges)-1)
	for i := range buckets {
		buckets[i] = Bucket{
			Label: bucketLabel(edges[i], edges[i+1], unit),
			Lower: Float(edges[i]),
			Upper: Float(edges[i+1]),
		}
	}
	for _, v := range values {
		buckets[bucketIndex(edges, v)].Count++
	}
	return buckets
}

func bucketLabel(lo, hi float64, unit string) string {
	return fmt.Sprintf("%s-%s%s", formatEdge(lo), formatEdge(hi), unit)
}

func formatEdge(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
