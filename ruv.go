// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// RUV2: estimate latent nuisance factors from control genes assumed
// free of the signal of interest, then regress them out of the full
// matrix. "Using control genes to correct for unwanted variation in
// microarray data", Gagnon-Bartsch and Speed,
// https://doi.org/10.1093/biostatistics/kxr034.

package genemunge

import (
	"errors"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RemoveUnwantedVariation configures a RUV2 fit. Center controls
// whether columns are mean-centered before factor estimation; when
// false, the nuisance estimate absorbs the column means.
type RemoveUnwantedVariation struct {
	Center bool
}

// LatentFactors is the immutable result of a RUV2 fit: the estimated
// per-sample nuisance factor realizations, ready to be regressed out
// of matrices with the same samples. Fit returns it and Transform
// consumes it, so there is no unfitted state to misuse.
type LatentFactors struct {
	// L holds the left singular vectors of the control sub-matrix
	// scaled by their singular values, samples x K. It is nil when
	// the controls carried no variation at all (rank zero), in
	// which case Transform has nothing to remove.
	L *mat.Dense

	samples int
	center  bool
}

// K is the number of retained nuisance factors.
func (lf *LatentFactors) K() int {
	if lf.L == nil {
		return 0
	}
	_, k := lf.L.Dims()
	return k
}

// Fit estimates nuisance factors from the columns named by controls.
// The control sub-matrix (column mean-centered first if Center is
// set) is decomposed by SVD, and the smallest number of leading
// singular values whose cumulative share of squared singular value
// mass reaches varianceCutoff is retained; numerically zero singular
// values never count, so a cutoff of 1 retains exactly the numerical
// rank. varianceCutoff must lie in (0,1] and controls must be a
// non-empty set of valid column positions.
func (ruv RemoveUnwantedVariation) Fit(m *Matrix, controls []int, varianceCutoff float64) (*LatentFactors, error) {
	if !(varianceCutoff > 0 && varianceCutoff <= 1) {
		return nil, ErrVarianceCutoff
	}
	if len(controls) == 0 {
		return nil, ErrNoControls
	}
	nrow, ncol := m.Dims()
	if nrow == 0 {
		return nil, errors.New("genemunge: matrix has no samples")
	}
	for _, j := range controls {
		if j < 0 || j >= ncol {
			return nil, fmt.Errorf("genemunge: control index %d out of range [0,%d)", j, ncol)
		}
	}

	work := mat.DenseCopyOf(m.data)
	if ruv.Center {
		centerColumns(work)
	}
	sub := mat.NewDense(nrow, len(controls), nil)
	for i := 0; i < nrow; i++ {
		for k, j := range controls {
			sub.Set(i, k, work.At(i, j))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(sub, mat.SVDThin) {
		return nil, errors.New("genemunge: SVD of control sub-matrix failed")
	}
	s := svd.Values(nil)
	k := retainedRank(s, varianceCutoff, nrow, len(controls))
	if k == 0 {
		// All-zero (or otherwise rank-free) controls: there is no
		// nuisance subspace to estimate.
		return &LatentFactors{samples: nrow, center: ruv.Center}, nil
	}

	var u mat.Dense
	svd.UTo(&u)
	L := mat.NewDense(nrow, k, nil)
	for i := 0; i < nrow; i++ {
		for j := 0; j < k; j++ {
			L.Set(i, j, u.At(i, j)*s[j])
		}
	}
	return &LatentFactors{L: L, samples: nrow, center: ruv.Center}, nil
}

// retainedRank chooses the smallest k whose cumulative squared
// singular value share reaches or exceeds cutoff, over the
// numerically nonzero singular values only.
func retainedRank(s []float64, cutoff float64, nrow, ncol int) int {
	if len(s) == 0 {
		return 0
	}
	dim := nrow
	if ncol > dim {
		dim = ncol
	}
	tol := float64(dim) * eps * s[0]
	rank := 0
	total := 0.0
	for _, v := range s {
		if v <= tol {
			break
		}
		rank++
		total += v * v
	}
	if rank == 0 || total == 0 {
		return 0
	}
	cum := 0.0
	for k := 1; k <= rank; k++ {
		cum += s[k-1] * s[k-1]
		if cum >= cutoff*total {
			return k
		}
	}
	return rank
}

const eps = 2.220446049250313e-16 // IEEE 754 double ulp of 1

// Transform regresses m columnwise onto the fitted factors by
// ordinary least squares and subtracts the fitted nuisance
// component. The matrix is centered the same way as during fit; the
// column means are restored afterwards, so the returned matrix keeps
// each column's mean level. m must have the same samples (rows) the
// factors were fitted on.
func (lf *LatentFactors) Transform(m *Matrix) (*Matrix, error) {
	nrow, ncol := m.Dims()
	if nrow != lf.samples {
		return nil, fmt.Errorf("genemunge: matrix has %d rows but factors were fitted on %d samples", nrow, lf.samples)
	}
	k := lf.K()

	work := mat.DenseCopyOf(m.data)
	var means []float64
	if lf.center {
		means = centerColumns(work)
	}
	if k > 0 {
		var coef mat.Dense
		if err := coef.Solve(lf.L, work); err != nil {
			return nil, fmt.Errorf("genemunge: regressing onto latent factors: %w", err)
		}
		var fitted mat.Dense
		fitted.Mul(lf.L, &coef)
		work.Sub(work, &fitted)
	}
	if lf.center {
		for i := 0; i < nrow; i++ {
			row := rawRow(work, i)
			for j := 0; j < ncol; j++ {
				row[j] += means[j]
			}
		}
	}

	data := make([]float64, 0, nrow*ncol)
	for i := 0; i < nrow; i++ {
		data = append(data, rawRow(work, i)...)
	}
	return m.withData(data), nil
}

// FitTransform fits on m and immediately transforms it.
func (ruv RemoveUnwantedVariation) FitTransform(m *Matrix, controls []int, varianceCutoff float64) (*Matrix, *LatentFactors, error) {
	lf, err := ruv.Fit(m, controls, varianceCutoff)
	if err != nil {
		return nil, nil, err
	}
	out, err := lf.Transform(m)
	if err != nil {
		return nil, nil, err
	}
	return out, lf, nil
}

// centerColumns subtracts each column's mean in place and returns
// the means.
func centerColumns(d *mat.Dense) []float64 {
	nrow, ncol := d.Dims()
	means := make([]float64, ncol)
	col := make([]float64, nrow)
	for j := 0; j < ncol; j++ {
		mat.Col(col, j, d)
		means[j] = stat.Mean(col, nil)
	}
	for i := 0; i < nrow; i++ {
		row := rawRow(d, i)
		for j := 0; j < ncol; j++ {
			row[j] -= means[j]
		}
	}
	return means
}

type ruvcmd struct{}

func (cmd *ruvcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input GCT `file`")
	outputFilename := flags.String("o", "-", "output GCT `file`")
	controlsFilename := flags.String("controls", "", "`file` listing control gene labels, one per line")
	varianceCutoff := flags.Float64("variance-cutoff", 1, "`fraction` of squared singular value mass to retain, in (0,1]")
	center := flags.Bool("center", true, "mean-center columns before factor estimation")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *controlsFilename == "" {
		err = errors.New("-controls file is required")
		return 2
	}

	m, err := readGCTFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	labels, err := readLabelFile(*controlsFilename)
	if err != nil {
		return 1
	}
	controls, err := m.ColIndices(labels)
	if err != nil {
		return 1
	}
	log.Printf("ruv: %d control genes, variance cutoff %g, center %v", len(controls), *varianceCutoff, *center)
	out, lf, err := RemoveUnwantedVariation{Center: *center}.FitTransform(m, controls, *varianceCutoff)
	if err != nil {
		return 1
	}
	log.Printf("ruv: retained %d latent factors", lf.K())
	err = writeGCTFile(*outputFilename, stdout, out)
	if err != nil {
		return 1
	}
	return 0
}
