// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNonPositive reports a zero or negative entry passed to a
	// log-ratio transform.
	ErrNonPositive = errors.New("genemunge: non-positive entry in log-ratio transform")

	// ErrVarianceCutoff reports a variance cutoff outside (0,1].
	ErrVarianceCutoff = errors.New("genemunge: variance cutoff must be in (0,1]")

	// ErrNoControls reports an empty control index set.
	ErrNoControls = errors.New("genemunge: control index set is empty")

	// ErrScale reports a non-positive imputation scale.
	ErrScale = errors.New("genemunge: imputation scale must be positive")
)

// MissingGeneError reports genes absent from a gene length table. It
// is returned only by strict-mode conversions; otherwise missing
// genes are silently excluded.
type MissingGeneError struct {
	Genes []string
}

func (e *MissingGeneError) Error() string {
	if len(e.Genes) > 3 {
		return fmt.Sprintf("genemunge: %d genes missing from length table (first: %s)", len(e.Genes), strings.Join(e.Genes[:3], ", "))
	}
	return fmt.Sprintf("genemunge: genes missing from length table: %s", strings.Join(e.Genes, ", "))
}
