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
)

// exportNumpy converts a GCT matrix to a NumPy .npy array for
// downstream Python tooling, with row/column labels written to CSV
// sidecar files.
type exportNumpy struct{}

func (cmd *exportNumpy) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	rowsFilename := flags.String("output-rows", "", "write sample labels to `file`")
	colsFilename := flags.String("output-cols", "", "write gene labels to `file`")
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
	nrow, ncol := m.Dims()
	out := make([]float64, nrow*ncol)
	for i := 0; i < nrow; i++ {
		copy(out[i*ncol:], rawRow(m.Dense(), i))
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
	npw.Shape = []int{nrow, ncol}
	log.Printf("writing numpy: %d rows, %d cols", nrow, ncol)
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
	if *rowsFilename != "" {
		err = writeLabels(*rowsFilename, m.Rows())
		if err != nil {
			return 1
		}
	}
	if *colsFilename != "" {
		err = writeLabels(*colsFilename, m.Cols())
		if err != nil {
			return 1
		}
	}
	return 0
}

func writeLabels(path string, labels []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0777)
	if err != nil {
		return err
	}
	bufw := bufio.NewWriter(f)
	for i, label := range labels {
		fmt.Fprintf(bufw, "%d,%s\n", i, label)
	}
	if err := bufw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
