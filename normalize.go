// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Conversions between read-count derived expression units. Counts,
// RPKM and TPM are related by per-gene length scaling and a
// per-sample rescaling so that every sample (row) sums to one
// million; the centered log-ratio transform removes the resulting
// unit-sum constraint for linear modeling.

package genemunge

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const tpmRowSum = 1e6

// Normalizer converts expression matrices among counts, RPKM, TPM
// and CLR representations using a gene length table loaded for one
// identifier scheme.
type Normalizer struct {
	// Identifier is the gene identifier scheme the length table is
	// keyed by, e.g. "symbol" or "ensembl".
	Identifier string

	// GeneLengths is the ordered gene -> transcript length (bases)
	// mapping the length-dependent conversions use.
	GeneLengths *GeneLengthTable

	// Strict makes length-dependent conversions fail with a
	// *MissingGeneError when the input has genes absent from
	// GeneLengths, instead of silently dropping those columns.
	Strict bool
}

// NewNormalizer loads the length table for the given identifier
// scheme from src.
func NewNormalizer(identifier string, src LengthSource) (*Normalizer, error) {
	tbl, err := src.GeneLengths(identifier)
	if err != nil {
		return nil, err
	}
	return &Normalizer{Identifier: identifier, GeneLengths: tbl}, nil
}

// knownColumns splits m's columns into those covered by the length
// table (in matrix order, with their lengths) and those missing.
func (n *Normalizer) knownColumns(m *Matrix) (idx []int, lengths []float64, missing []string) {
	for j, gene := range m.cols {
		if l, ok := n.GeneLengths.Lookup(gene); ok {
			idx = append(idx, j)
			lengths = append(lengths, l)
		} else {
			missing = append(missing, gene)
		}
	}
	return idx, lengths, missing
}

// TPMFromCounts converts raw read counts to TPM: each count is
// divided by its gene's length in kilobases, then each row is
// rescaled to sum to one million. Genes absent from the length table
// are dropped (or rejected in Strict mode). Rows with no reads over
// the convertible genes stay zero.
func (n *Normalizer) TPMFromCounts(counts *Matrix) (*Matrix, error) {
	idx, lengths, missing := n.knownColumns(counts)
	if n.Strict && len(missing) > 0 {
		return nil, &MissingGeneError{Genes: missing}
	}
	sel, err := counts.SelectColumns(idx)
	if err != nil {
		return nil, err
	}
	nrow, ncol := sel.Dims()
	for i := 0; i < nrow; i++ {
		row := rawRow(sel.data, i)
		for j := 0; j < ncol; j++ {
			row[j] /= lengths[j] / 1e3
		}
	}
	rescaleRows(sel)
	return sel, nil
}

// TPMFromRPKM converts RPKM to TPM. RPKM is already
// length-normalized, so only the per-sample rescaling remains.
func (n *Normalizer) TPMFromRPKM(rpkm *Matrix) (*Matrix, error) {
	out := rpkm.Clone()
	rescaleRows(out)
	return out, nil
}

// TPMFromSubset restricts tpm to the given gene labels (nil means
// all genes, making this the identity) and rescales each row to sum
// to one million over the restricted set, so a sub-panel's
// abundances are comparable to full-panel TPM.
func (n *Normalizer) TPMFromSubset(tpm *Matrix, subset []string) (*Matrix, error) {
	var out *Matrix
	if subset == nil {
		out = tpm.Clone()
	} else {
		var err error
		out, err = tpm.SelectColumnLabels(subset)
		if err != nil {
			return nil, err
		}
	}
	rescaleRows(out)
	return out, nil
}

// CLRFromTPM applies the centered log-ratio transform: per row,
// log(x) minus the row mean of log(x). Every entry must be strictly
// positive; impute zeros first.
func (n *Normalizer) CLRFromTPM(tpm *Matrix) (*Matrix, error) {
	nrow, ncol := tpm.Dims()
	data := make([]float64, 0, nrow*ncol)
	for i := 0; i < nrow; i++ {
		row := rawRow(tpm.data, i)
		var meanLog float64
		for _, v := range row {
			if !(v > 0) {
				return nil, ErrNonPositive
			}
			meanLog += math.Log(v)
		}
		meanLog /= float64(ncol)
		for _, v := range row {
			data = append(data, math.Log(v)-meanLog)
		}
	}
	return tpm.withData(data), nil
}

// TPMFromCLR inverts CLRFromTPM: exponentiate, then rescale each row
// to sum to one million. The one-million convention fixes the global
// scale the CLR transform discards, so this recovers the original
// TPM exactly.
func (n *Normalizer) TPMFromCLR(clr *Matrix) (*Matrix, error) {
	nrow, ncol := clr.Dims()
	data := make([]float64, 0, nrow*ncol)
	for i := 0; i < nrow; i++ {
		for _, v := range rawRow(clr.data, i) {
			data = append(data, math.Exp(v))
		}
	}
	out := clr.withData(data)
	rescaleRows(out)
	return out, nil
}

// rescaleRows scales each row of m in place to sum to one million.
// All-zero rows are left alone rather than producing NaN.
func rescaleRows(m *Matrix) {
	nrow, _ := m.Dims()
	for i := 0; i < nrow; i++ {
		row := rawRow(m.data, i)
		sum := floats.Sum(row)
		if sum == 0 {
			continue
		}
		f := tpmRowSum / sum
		for j := range row {
			row[j] *= f
		}
	}
}
