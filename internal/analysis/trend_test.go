package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOrdinal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Ordinal(day("0001-01-01")))
	assert.Equal(t, 719163, Ordinal(day("1970-01-01")))
	assert.Equal(t, 738521, Ordinal(day("2023-01-01")))
	assert.Equal(t, Ordinal(day("2023-03-04")), Ordinal(time.Date(2023, 3, 4, 23, 59, 0, 0, time.UTC)))

	d := day("2024-02-29")
	assert.True(t, FromOrdinal(Ordinal(d)).Equal(d))
}

func TestFitPolynomialConstantRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		dates []string
	}{
		{name: "single date", dates: []string{"2023-05-01"}},
		{name: "two dates", dates: []string{"2023-05-01", "2023-05-03"}},
		{name: "three dates", dates: []string{"2023-01-01", "2023-01-02", "2023-01-03"}},
		{name: "many dates", dates: []string{"2023-01-01", "2023-01-05", "2023-02-01", "2023-02-02", "2023-03-10", "2023-06-30", "2023-12-31"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dates := make([]time.Time, len(tt.dates))
			values := make([]float64, len(tt.dates))
			for i, d := range tt.dates {
				dates[i] = day(d)
				values[i] = 4.5
			}

			fitted := FitSeries(dates, values)
			require.Len(t, fitted, len(tt.dates))
			for i, p := range fitted {
				assert.Equal(t, tt.dates[i], p.Date)
				assert.InDelta(t, 4.5, p.Value, 1e-6)
			}
		})
	}
}

func TestFitPolynomialRecoversCubic(t *testing.T) {
	t.Parallel()

	cubic := func(x float64) float64 { return 2 - x + 0.5*x*x + 0.25*x*x*x }
	var xs, ys []float64
	for x := -3.0; x <= 3; x++ {
		xs = append(xs, x)
		ys = append(ys, cubic(x))
	}

	fitted := FitPolynomial(xs, ys, PolynomialDegree, []float64{-2.5, 0, 1.5, 4})
	for i, x := range []float64{-2.5, 0, 1.5, 4} {
		assert.InDelta(t, cubic(x), fitted[i], 1e-6)
	}
}

func TestFitPolynomialSkipsMissingValues(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{3, math.NaN(), 3, math.NaN(), 3}
	fitted := FitPolynomial(xs, ys, PolynomialDegree, xs)
	for _, v := range fitted {
		assert.InDelta(t, 3, v, 1e-6)
	}

	empty := FitPolynomial(xs, []float64{math.NaN(), math.NaN()}, PolynomialDegree, xs)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, empty)
}

func TestMovingAverage(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MovingAverage([]float64{1, 2, 3, 4, 5, 6}, TrendWindow))

	got := MovingAverage([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, TrendWindow)
	assert.Equal(t, []float64{4, 5, 6}, got)

	assert.Equal(t, []float64{7}, MovingAverage([]float64{7, 7, 7, 7, 7, 7, 7}, TrendWindow))
}
