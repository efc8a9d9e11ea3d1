package analysis

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	// PolynomialDegree is the degree of the trend polynomial.
	PolynomialDegree = 3
	// TrendWindow is the number of trailing days averaged by the posting trend.
	TrendWindow = 7

	// unixEpochOrdinal is the ordinal of 1970-01-01 when 0001-01-01 is day 1.
	unixEpochOrdinal = 719163
	dateLayout       = "2006-01-02"
)

// Ordinal returns the proleptic Gregorian day number of t's calendar date, 0001-01-01 being 1.
func Ordinal(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Floor(float64(d.Unix())/86400)) + unixEpochOrdinal
}

// FromOrdinal is the inverse of Ordinal.
func FromOrdinal(n int) time.Time {
	return time.Unix(0, 0).UTC().AddDate(0, 0, n-unixEpochOrdinal)
}

// FitPolynomial least-squares fits a polynomial of the given degree to (xs, ys) and evaluates it at every
// value of at. NaN observations are skipped. The abscissae are mapped onto [-1, 1] before fitting.
// With fewer observations than coefficients the minimum-norm solution is used.
func FitPolynomial(xs, ys []float64, degree int, at []float64) []float64 {
	var px, py []float64
	for i := range xs {
		if i >= len(ys) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}

	out := make([]float64, len(at))
	if len(px) == 0 {
		return out
	}

	lo, hi := px[0], px[0]
	for _, x := range px {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	scale := func(x float64) float64 {
		if hi == lo {
			return 0
		}
		return (2*x - (hi + lo)) / (hi - lo)
	}

	coef, ok := solveLeastSquares(px, py, degree, scale)
	if !ok {
		m := mean(py)
		for i := range out {
			out[i] = m
		}
		return out
	}

	for i, x := range at {
		out[i] = horner(coef, scale(x))
	}
	return out
}

func solveLeastSquares(xs, ys []float64, degree int, scale func(float64) float64) ([]float64, bool) {
	rows, cols := len(xs), degree+1
	vander := mat.NewDense(rows, cols, nil)
	for i, x := range xs {
		s := scale(x)
		v := 1.0
		for j := 0; j < cols; j++ {
			vander.Set(i, j, v)
			v *= s
		}
	}

	var coef mat.VecDense
	err := coef.SolveVec(vander, mat.NewVecDense(rows, append([]float64(nil), ys...)))
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}

	out := make([]float64, cols)
	for j := range out {
		out[j] = coef.AtVec(j)
		if math.IsNaN(out[j]) || math.IsInf(out[j], 0) {
			return nil, false
		}
	}
	return out, true
}

func horner(coef []float64, x float64) float64 {
	v := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		v = v*x + coef[i]
	}
	return v
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// FitSeries fits a degree-3 trend to a daily series and evaluates it at every date of the series.
func FitSeries(dates []time.Time, values []float64) Series {
	xs := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = float64(Ordinal(d))
	}
	fitted := FitPolynomial(xs, values, PolynomialDegree, xs)

	out := make(Series, len(dates))
	for i, d := range dates {
		out[i] = Point{Date: FromOrdinal(Ordinal(d)).Format(dateLayout), Value: fitted[i]}
	}
	return out
}

// MovingAverage returns the trailing mean over window values. Leading positions without
// a full window are dropped, so the result has len(values)-window+1 entries.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	out := make([]float64, 0, len(values)-window+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}
