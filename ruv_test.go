// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type ruvSuite struct{}

var _ = check.Suite(&ruvSuite{})

// randnMatrix returns a rows x cols matrix of standard normals.
func randnMatrix(rnd *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rnd.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

func labeledMatrix(c *check.C, d *mat.Dense) *Matrix {
	nrow, ncol := d.Dims()
	rows := make([]string, nrow)
	for i := range rows {
		rows[i] = fmt.Sprintf("s%03d", i)
	}
	cols := make([]string, ncol)
	for j := range cols {
		cols[j] = fmt.Sprintf("g%04d", j)
	}
	data := make([]float64, 0, nrow*ncol)
	for i := 0; i < nrow; i++ {
		data = append(data, rawRow(d, i)...)
	}
	m, err := NewMatrix(rows, cols, data)
	c.Assert(err, check.IsNil)
	return m
}

func colMeans(m *Matrix) []float64 {
	nrow, ncol := m.Dims()
	means := make([]float64, ncol)
	for j := 0; j < ncol; j++ {
		for i := 0; i < nrow; i++ {
			means[j] += m.At(i, j)
		}
		means[j] /= float64(nrow)
	}
	return means
}

// A matrix that is nothing but low-rank nuisance variation should be
// flattened to its column means when every column is a control.
func (s *ruvSuite) TestRemoveAllNuisance(c *check.C) {
	const (
		numSamples = 50
		numGenes   = 80
		numFactors = 5
	)
	rnd := rand.New(rand.NewSource(137))
	w := randnMatrix(rnd, numSamples, numFactors)
	alpha := randnMatrix(rnd, numFactors, numGenes)
	var y mat.Dense
	y.Mul(w, alpha)
	m := labeledMatrix(c, &y)

	controls := make([]int, numGenes)
	for j := range controls {
		controls[j] = j
	}
	out, lf, err := RemoveUnwantedVariation{Center: true}.FitTransform(m, controls, 1)
	c.Assert(err, check.IsNil)
	c.Check(lf.K(), check.Equals, numFactors)

	wantMeans := colMeans(m)
	gotMeans := colMeans(out)
	nrow, ncol := out.Dims()
	for j := 0; j < ncol; j++ {
		checkNear(c, gotMeans[j], wantMeans[j], 1e-8)
	}
	for i := 0; i < nrow; i++ {
		for j := 0; j < ncol; j++ {
			checkNear(c, out.At(i, j)-wantMeans[j], 0, 1e-8)
		}
	}
}

// With a planted nuisance dimensionality the retained rank must match
// it exactly, even though the non-control genes carry signal.
func (s *ruvSuite) TestPlantedFactorCount(c *check.C) {
	const (
		numSamples      = 100
		numGenes        = 300
		numControlGenes = 40
		numXFactors     = 8
		numWFactors     = 6
	)
	rnd := rand.New(rand.NewSource(42))
	x := randnMatrix(rnd, numSamples, numXFactors)
	beta := randnMatrix(rnd, numXFactors, numGenes)
	w := randnMatrix(rnd, numSamples, numWFactors)
	alpha := randnMatrix(rnd, numWFactors, numGenes)

	var signal, nuisance mat.Dense
	signal.Mul(x, beta)
	nuisance.Mul(w, alpha)

	data := make([]float64, 0, numSamples*numGenes)
	for i := 0; i < numSamples; i++ {
		for j := 0; j < numGenes; j++ {
			v := nuisance.At(i, j)
			if j >= numControlGenes {
				v += signal.At(i, j)
			}
			data = append(data, v)
		}
	}
	d := mat.NewDense(numSamples, numGenes, data)
	m := labeledMatrix(c, d)

	controls := make([]int, numControlGenes)
	for j := range controls {
		controls[j] = j
	}
	ruv := RemoveUnwantedVariation{Center: false}
	lf, err := ruv.Fit(m, controls, 1)
	c.Assert(err, check.IsNil)
	c.Check(lf.K(), check.Equals, numWFactors)

	// The control columns span the fitted subspace, so they come
	// back as pure zeros (no centering).
	out, err := lf.Transform(m)
	c.Assert(err, check.IsNil)
	for i := 0; i < numSamples; i++ {
		for j := 0; j < numControlGenes; j++ {
			checkNear(c, out.At(i, j), 0, 1e-8)
		}
	}
}

func (s *ruvSuite) TestPartialVarianceCutoff(c *check.C) {
	rnd := rand.New(rand.NewSource(7))
	// One dominant factor plus faint ones.
	w := randnMatrix(rnd, 30, 4)
	alpha := randnMatrix(rnd, 4, 20)
	for j := 0; j < 20; j++ {
		alpha.Set(0, j, alpha.At(0, j)*100)
	}
	var y mat.Dense
	y.Mul(w, alpha)
	m := labeledMatrix(c, &y)

	controls := make([]int, 20)
	for j := range controls {
		controls[j] = j
	}
	ruv := RemoveUnwantedVariation{Center: true}
	lf, err := ruv.Fit(m, controls, 0.9)
	c.Assert(err, check.IsNil)
	c.Check(lf.K(), check.Equals, 1)

	all, err := ruv.Fit(m, controls, 1)
	c.Assert(err, check.IsNil)
	c.Check(all.K(), check.Equals, 4)
}

// Controls with no variation at all (for example genes that never
// express) leave nothing to estimate: the fit holds zero factors and
// transforming is the identity.
func (s *ruvSuite) TestRankZeroControls(c *check.C) {
	m, err := NewMatrix(
		[]string{"s1", "s2", "s3"},
		[]string{"a", "b", "c"},
		[]float64{
			0, 0, 5,
			0, 0, 7,
			0, 0, 11,
		})
	c.Assert(err, check.IsNil)

	for _, center := range []bool{false, true} {
		lf, err := RemoveUnwantedVariation{Center: center}.Fit(m, []int{0, 1}, 1)
		c.Assert(err, check.IsNil)
		c.Check(lf.K(), check.Equals, 0)

		out, err := lf.Transform(m)
		c.Assert(err, check.IsNil)
		checkMatrixNear(c, out, m, 1e-12)

		other := labeledMatrix(c, randnMatrix(rand.New(rand.NewSource(9)), 4, 3))
		_, err = lf.Transform(other)
		c.Check(err, check.ErrorMatches, `.*4 rows but factors were fitted on 3 samples.*`)
	}
}

func (s *ruvSuite) TestFitErrors(c *check.C) {
	m, err := NewMatrix([]string{"s1", "s2"}, []string{"a", "b"}, []float64{1, 2, 3, 4})
	c.Assert(err, check.IsNil)
	ruv := RemoveUnwantedVariation{}

	_, err = ruv.Fit(m, []int{0}, 0)
	c.Check(err, check.Equals, ErrVarianceCutoff)
	_, err = ruv.Fit(m, []int{0}, 1.5)
	c.Check(err, check.Equals, ErrVarianceCutoff)
	_, err = ruv.Fit(m, nil, 1)
	c.Check(err, check.Equals, ErrNoControls)
	_, err = ruv.Fit(m, []int{2}, 1)
	c.Check(err, check.ErrorMatches, `.*control index 2 out of range.*`)

	empty, err := NewMatrix(nil, []string{"a"}, nil)
	c.Assert(err, check.IsNil)
	_, err = ruv.Fit(empty, []int{0}, 1)
	c.Check(err, check.ErrorMatches, `.*matrix has no samples`)
}

func (s *ruvSuite) TestTransformShapeMismatch(c *check.C) {
	rnd := rand.New(rand.NewSource(1))
	m := labeledMatrix(c, randnMatrix(rnd, 10, 6))
	lf, err := RemoveUnwantedVariation{Center: true}.Fit(m, []int{0, 1, 2}, 1)
	c.Assert(err, check.IsNil)

	other := labeledMatrix(c, randnMatrix(rnd, 9, 6))
	_, err = lf.Transform(other)
	c.Check(err, check.ErrorMatches, `.*9 rows but factors were fitted on 10 samples.*`)
}

// A fitted model can be reused: transforming a second matrix with the
// same samples removes the same factor realizations from it.
func (s *ruvSuite) TestFitOnceTransformTwice(c *check.C) {
	rnd := rand.New(rand.NewSource(3))
	w := randnMatrix(rnd, 25, 3)
	alphaA := randnMatrix(rnd, 3, 15)
	alphaB := randnMatrix(rnd, 3, 12)
	var a, b mat.Dense
	a.Mul(w, alphaA)
	b.Mul(w, alphaB)
	ma := labeledMatrix(c, &a)
	mb := labeledMatrix(c, &b)

	controls := make([]int, 15)
	for j := range controls {
		controls[j] = j
	}
	lf, err := RemoveUnwantedVariation{}.Fit(ma, controls, 1)
	c.Assert(err, check.IsNil)

	out, err := lf.Transform(mb)
	c.Assert(err, check.IsNil)
	nrow, ncol := out.Dims()
	for i := 0; i < nrow; i++ {
		for j := 0; j < ncol; j++ {
			checkNear(c, out.At(i, j), 0, 1e-8)
		}
	}
}
