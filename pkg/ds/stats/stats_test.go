// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZ(t *testing.T) {
	z, err := Z(0.05, true)
	require.NoError(t, err)
	require.InDelta(t, 1.9600, z, 1e-3)

	z, err = Z(0.05, false)
	require.NoError(t, err)
	require.InDelta(t, 1.6449, z, 1e-3)

	z, err = Z(0.5, true)
	require.NoError(t, err)
	require.InDelta(t, 0.6745, z, 1e-3)

	_, err = Z(-0.1, true)
	require.ErrorIs(t, err, ErrInput)
	_, err = Z(1.1, true)
	require.ErrorIs(t, err, ErrInput)
}

func TestCorrPerfect(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{2, 4, 6, 8, 10, 12}
	ci, err := Corr(x, y, 0.05)
	require.NoError(t, err)
	require.InDelta(t, 1, ci.R, 1e-12)
	require.Less(t, ci.P, 0.01)
}

func TestCorrNoisy(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 500
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
		y[i] = 0.8*x[i] + 0.6*rng.NormFloat64()
	}
	ci, err := Corr(x, y, 0.05)
	require.NoError(t, err)
	require.Greater(t, ci.R, 0.6)
	require.Less(t, ci.Low, ci.R)
	require.Greater(t, ci.High, ci.R)
	require.Less(t, ci.P, 1e-6)
	require.Contains(t, ci.String(), "Correlation")
}

func TestCorrErrors(t *testing.T) {
	_, err := Corr([]float64{1, 2}, []float64{1}, 0.05)
	require.ErrorIs(t, err, ErrInput)
	_, err = Corr([]float64{1, 2, 3}, []float64{1, 2, 3}, 0.05)
	require.ErrorIs(t, err, ErrInput)
	_, err = Corr([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4}, 0.05)
	require.ErrorIs(t, err, ErrInput)
}
