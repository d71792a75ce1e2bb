package collections_test

import (
	"strings"
	"testing"

	"github.com/alkime/liftlog/pkg/collections"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("basic types", func(t *testing.T) {
		ints := []int{1, 2, 3, 4}
		squared := collections.Apply(ints, func(i int) int {
			return i * i
		})
		require.Equal(t, []int{1, 4, 9, 16}, squared)
	})

	t.Run("empty", func(t *testing.T) {
		out := collections.Apply([]string{}, strings.ToUpper)
		require.Empty(t, out)
	})
}

func TestFilterAndCount(t *testing.T) {
	names := []string{"Squat", "Leg Press", "squat", "Row"}
	isSquat := func(s string) bool { return strings.EqualFold(s, "squat") }

	assert.Equal(t, []string{"Squat", "squat"}, collections.Filter(names, isSquat))
	assert.Equal(t, 2, collections.Count(names, isSquat))
	assert.Equal(t, 0, collections.Count(nil, isSquat))
}

func TestMaxBy(t *testing.T) {
	type row struct {
		id   int
		name string
	}

	_, ok := collections.MaxBy([]row{}, func(r row) int { return r.id })
	assert.False(t, ok)

	max, ok := collections.MaxBy([]row{{3, "c"}, {7, "g"}, {7, "h"}, {1, "a"}}, func(r row) int { return r.id })
	require.True(t, ok)
	assert.Equal(t, "g", max.name)
}

func TestSum(t *testing.T) {
	assert.Equal(t, 10, collections.Sum([]int{1, 2, 3, 4}))
	assert.InDelta(t, 3.5, collections.Sum([]float64{1.25, 2.25}), 0.0001)
	assert.Zero(t, collections.Sum[int](nil))
}
