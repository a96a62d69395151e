// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"errors"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

type tpmcmd struct{}

func (cmd *tpmcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	from := flags.String("from", "counts", "input `unit`: counts or rpkm")
	lengthsFilename := flags.String("lengths", "", "gene info CSV `file` with gene lengths")
	identifier := flags.String("identifier", "symbol", "gene identifier `scheme` in the input matrix")
	strict := flags.Bool("strict", false, "fail on genes missing from the length table instead of dropping them")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *lengthsFilename == "" {
		err = errors.New("-lengths file is required")
		return 2
	}

	norm, err := NewNormalizer(*identifier, FileLengthSource{Path: *lengthsFilename})
	if err != nil {
		return 1
	}
	norm.Strict = *strict
	m, err := readGCTFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	switch *from {
	case "counts":
		m, err = norm.TPMFromCounts(m)
	case "rpkm":
		m, err = norm.TPMFromRPKM(m)
	default:
		err = fmt.Errorf("unknown -from unit %q", *from)
		return 2
	}
	if err != nil {
		return 1
	}
	_, ngenes := m.Dims()
	log.Printf("tpm: %d genes converted from %s", ngenes, *from)
	err = writeGCTFile(*outputFilename, stdout, m)
	if err != nil {
		return 1
	}
	return 0
}

type subsetcmd struct{}

func (cmd *subsetcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input TPM GCT `file`")
	outputFilename := flags.String("o", "-", "output GCT `file`")
	genesFilename := flags.String("genes", "", "`file` listing the gene subset, one label per line (default: all genes)")
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
	var subset []string
	if *genesFilename != "" {
		subset, err = readLabelFile(*genesFilename)
		if err != nil {
			return 1
		}
	}
	var norm Normalizer
	m, err = norm.TPMFromSubset(m, subset)
	if err != nil {
		return 1
	}
	_, ngenes := m.Dims()
	log.Printf("subset: renormalized over %d genes", ngenes)
	err = writeGCTFile(*outputFilename, stdout, m)
	if err != nil {
		return 1
	}
	return 0
}

type clrcmd struct{}

func (cmd *clrcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	invert := flags.Bool("invert", false, "convert CLR back to TPM instead of TPM to CLR")
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
	var norm Normalizer
	if *invert {
		m, err = norm.TPMFromCLR(m)
	} else {
		m, err = norm.CLRFromTPM(m)
	}
	if err != nil {
		return 1
	}
	err = writeGCTFile(*outputFilename, stdout, m)
	if err != nil {
		return 1
	}
	return 0
}
