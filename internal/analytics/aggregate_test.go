package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(3, -1))
	assert.Equal(t, 50.0, Rate(1, 2))
	assert.Equal(t, 100.0, Rate(7, 7))

	for d := 1; d <= 25; d++ {
		for n := 0; n <= d; n++ {
			r := Rate(float64(n), float64(d))
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 100.0)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{1.235, 1.24},
		{1.005, 1.01},
		{2.5, 2.5},
		{0, 0},
		{66.666666, 66.67},
		{-1.234, -1.23},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestAverageAndUtilization(t *testing.T) {
	assert.Equal(t, 0.0, Average(10, 0))
	assert.Equal(t, 2.5, Average(10, 4))

	assert.Equal(t, 0.0, Utilization(10, 0, 3))
	assert.Equal(t, 0.0, Utilization(10, 40, 0))
	assert.Equal(t, 25.0, Utilization(20, 40, 2))
}

func TestCountByAndSumWhere(t *testing.T) {
	words := []string{"bus", "tram", "bus", "ferry"}

	counts := CountBy(words, func(s string) string { return s })
	assert.Equal(t, map[string]int{"bus": 2, "tram": 1, "ferry": 1}, counts)
	assert.Equal(t, []KeyCount{{"bus", 2}, {"ferry", 1}, {"tram", 1}}, SortedCounts(counts))

	length := func(s string) float64 { return float64(len(s)) }
	assert.Equal(t, 15.0, SumWhere(words, length, nil))
	assert.Equal(t, 6.0, SumWhere(words, length, func(s string) bool { return s == "bus" }))
	assert.Equal(t, 0.0, SumWhere([]string{}, length, nil))
}

func TestGroupAmounts(t *testing.T) {
	type tx struct {
		method string
		amount float64
		ok     bool
	}
	rows := GroupAmounts(
		[]tx{{"card", 10, true}, {"cash", 5, true}, {"card", 2.555, true}, {"card", 100, false}},
		func(x tx) string { return x.method },
		func(x tx) float64 { return x.amount },
		func(x tx) bool { return x.ok },
	)
	assert.Equal(t, []KeyAmount{
		{Key: "card", Count: 3, Amount: 12.56},
		{Key: "cash", Count: 1, Amount: 5},
	}, rows)
}
