// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/james-bowman/nlp"
)

// pca projects an expression matrix (typically CLR-transformed) onto
// its leading principal components for exploratory sample
// clustering. Output is a samples x components .npy array plus the
// sample labels as CSV.
type pcacmd struct{}

func (cmd *pcacmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input GCT `file`")
	outputFilename := flags.String("o", "-", "output .npy `file`")
	labelsFilename := flags.String("output-labels", "", "write sample labels to `file`")
	components := flags.Int("components", 4, "number of components")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	log.Print("reading")
	m, err := readGCTFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	nrow, ncol := m.Dims()

	// nlp expects feature x observation matrices, so fit on the
	// transpose and transpose back afterwards.
	log.Printf("fitting %d components: %d samples, %d genes", *components, nrow, ncol)
	mtx := mat.Matrix(m.Dense().T())
	transformer := nlp.NewPCA(*components)
	transformer.Fit(mtx)
	log.Print("transforming")
	mtx, err = transformer.Transform(mtx)
	if err != nil {
		return 1
	}
	mtx = mtx.T()

	rows, cols := mtx.Dims()
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = mtx.At(i, j)
		}
	}

	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0777)
		if err != nil {
			return 1
		}
		defer output.Close()
	}
	bufw := bufio.NewWriter(output)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return 1
	}
	npw.Shape = []int{rows, cols}
	log.Printf("writing numpy: %d rows, %d cols", rows, cols)
	err = npw.WriteFloat64(out)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	if *labelsFilename != "" {
		err = writeLabels(*labelsFilename, m.Rows())
		if err != nil {
			return 1
		}
	}
	log.Print("done")
	return 0
}
