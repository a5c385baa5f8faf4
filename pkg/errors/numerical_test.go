package errors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCheckScalar(t *testing.T) {
	assert.NoError(t, CheckScalar("loss", 0.25, 1))
	assert.Error(t, CheckScalar("loss", math.NaN(), 1))
	assert.Error(t, CheckScalar("loss", math.Inf(1), 1))
}

func TestCheckMatrix(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, CheckMatrix("grad", m, 0))

	m.Set(1, 0, math.Inf(-1))
	err := CheckMatrix("grad", m, 7)
	require.Error(t, err)

	var ni *NumericalInstabilityError
	require.True(t, As(err, &ni))
	assert.Equal(t, 7, ni.Iteration)
	assert.Len(t, ni.Values, 1)
}

func TestClipValueAndStabilizeLog(t *testing.T) {
	assert.Equal(t, 1e-7, ClipValue(0, 1e-7, 1-1e-7))
	assert.Equal(t, 1-1e-7, ClipValue(1, 1e-7, 1-1e-7))
	assert.Equal(t, 0.5, ClipValue(0.5, 0, 1))
	assert.InDelta(t, math.Log(1e-7), StabilizeLog(0, 1e-7), 1e-12)
	assert.InDelta(t, math.Log(0.3), StabilizeLog(0.3, 1e-7), 1e-12)
}
