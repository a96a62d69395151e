// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Deduplicate collapses repeated column labels by summing the
// duplicate columns element-wise. The output has one column per
// distinct label, in order of first appearance; row labels and order
// are unchanged. A matrix whose labels are already unique comes back
// as a copy of itself.
func Deduplicate(m *Matrix) *Matrix {
	nrow, ncol := m.Dims()
	var distinct []string
	group := make(map[string][]int, ncol)
	for j, label := range m.cols {
		if _, seen := group[label]; !seen {
			distinct = append(distinct, label)
		}
		group[label] = append(group[label], j)
	}
	data := make([]float64, nrow*len(distinct))
	for i := 0; i < nrow; i++ {
		for k, label := range distinct {
			var sum float64
			for _, j := range group[label] {
				sum += m.At(i, j)
			}
			data[i*len(distinct)+k] = sum
		}
	}
	out, err := NewMatrix(m.rows, distinct, data)
	if err != nil {
		panic(err) // dims are consistent by construction
	}
	return out
}

type dedupcmd struct{}

func (cmd *dedupcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	_, before := m.Dims()
	m = Deduplicate(m)
	_, after := m.Dims()
	log.Printf("deduplicate: %d columns in, %d out", before, after)
	err = writeGCTFile(*outputFilename, stdout, m)
	if err != nil {
		return 1
	}
	return 0
}
