// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// z975 is the two-sided normal critical value for 0.95 coverage.
var z975 = distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)

// SummaryStats describes one set of signal values. All statistics are
// computed over non-missing values only; with zero values everything is
// NaN, and with a single value the standard deviation and standard
// error are NaN (n−1 divisor).
type SummaryStats struct {
	N        int
	Mean     float64
	Median   float64
	StdDev   float64
	StdErr   float64
	IQR      float64
	Min      float64
	Max      float64
	CI95Low  float64
	CI95High float64
}

// summarize computes SummaryStats for values, which must already be
// free of NaN.
func summarize(values []float64) SummaryStats {
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return SummaryStats{
			Mean: nan, Median: nan, StdDev: nan, StdErr: nan,
			IQR: nan, Min: nan, Max: nan, CI95Low: nan, CI95High: nan,
		}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := SummaryStats{N: n}
	s.Mean = stat.Mean(values, nil)
	s.Median = quantileLinear(sorted, 0.5)
	s.IQR = quantileLinear(sorted, 0.75) - quantileLinear(sorted, 0.25)
	s.Min = sorted[0]
	s.Max = sorted[n-1]
	if n > 1 {
		s.StdDev = stat.StdDev(values, nil)
		s.StdErr = s.StdDev / math.Sqrt(float64(n))
	} else {
		s.StdDev = math.NaN()
		s.StdErr = math.NaN()
	}
	s.CI95Low = s.Mean - z975*s.StdErr
	s.CI95High = s.Mean + z975*s.StdErr
	return s
}

// quantileLinear returns the pth quantile of the sorted values v using
// linear interpolation between order statistics (the R-7 method, which
// numpy calls "linear").
func quantileLinear(v []float64, p float64) float64 {
	h := float64(len(v)-1) * p
	i := int(h)
	if i >= len(v)-1 {
		return v[len(v)-1]
	}
	return v[i] + (h-math.Floor(h))*(v[i+1]-v[i])
}

// dropMissing returns the non-missing values, always as a fresh slice.
func dropMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// ZScoreRows standardizes each gene's signal distribution in place:
// (x − mean) / sd over the row's non-missing values. Missing values
// stay missing. Rows with fewer than two non-missing values, or with
// zero spread, are left untouched.
func (t *SignalTable) ZScoreRows() {
	for _, row := range t.Values {
		vals := dropMissing(row)
		if len(vals) < 2 {
			continue
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if std == 0 {
			continue
		}
		for i, x := range row {
			if !math.IsNaN(x) {
				row[i] = (x - mean) / std
			}
		}
	}
}
