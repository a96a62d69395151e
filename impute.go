// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"flag"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"
)

// DefaultImputeScale is the fraction of a row's minimum positive
// value used to fill that row's zero entries.
const DefaultImputeScale = 0.5

// Impute replaces zero and NaN entries with scale times the minimum
// strictly-positive value of their row. Entries that are already
// positive pass through exactly. A row with no positive entry is
// returned unchanged: there is no defined replacement value for it.
func Impute(m *Matrix, scale float64) (*Matrix, error) {
	if !(scale > 0) {
		return nil, ErrScale
	}
	nrow, ncol := m.Dims()
	data := make([]float64, 0, nrow*ncol)
	for i := 0; i < nrow; i++ {
		row := rawRow(m.data, i)
		minPos := math.Inf(1)
		for _, v := range row {
			if v > 0 && v < minPos {
				minPos = v
			}
		}
		fill := scale * minPos
		for _, v := range row {
			if math.IsInf(minPos, 1) || v > 0 {
				data = append(data, v)
			} else {
				data = append(data, fill)
			}
		}
	}
	return m.withData(data), nil
}

type imputecmd struct{}

func (cmd *imputecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	scale := flags.Float64("scale", DefaultImputeScale, "`fraction` of each row's minimum positive value used to fill zeros")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	m, err := readGCTFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	log.Printf("impute: scale %g", *scale)
	m, err = Impute(m, *scale)
	if err != nil {
		return 1
	}
	err = writeGCTFile(*outputFilename, stdout, m)
	if err != nil {
		return 1
	}
	return 0
}
