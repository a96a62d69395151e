// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

// TissueStats holds reference summary statistics for one tissue,
// indexed by gene identifier the same way expression matrices are.
type TissueStats struct {
	Tissue string
	Genes  []string
	Mean   map[string]float64
	Median map[string]float64
	Std    map[string]float64
}

// StatsSource supplies per-tissue reference statistics tables. The
// contract mirrors LengthSource: given a tissue name, return summary
// statistics indexed by gene identifier.
type StatsSource interface {
	TissueStats(tissue string) (*TissueStats, error)
}

// FileStatsSource loads tissue statistics from a CSV (optionally
// gzip-compressed) with columns tissue, gene, mean, median, std.
type FileStatsSource struct {
	Path string
}

func (s FileStatsSource) TissueStats(tissue string) (*TissueStats, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(s.Path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	header, err := rdr.Read()
	if err != nil {
		return nil, fmt.Errorf("tissue stats %s: reading header: %w", s.Path, err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, need := range []string{"tissue", "gene", "mean", "median", "std"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("tissue stats %s: no %q column", s.Path, need)
		}
	}

	ts := &TissueStats{
		Tissue: tissue,
		Mean:   map[string]float64{},
		Median: map[string]float64{},
		Std:    map[string]float64{},
	}
	for {
		record, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("tissue stats %s: %w", s.Path, err)
		}
		if len(record) < len(header) {
			continue
		}
		if record[col["tissue"]] != tissue {
			continue
		}
		gene := record[col["gene"]]
		mean, err1 := strconv.ParseFloat(record[col["mean"]], 64)
		median, err2 := strconv.ParseFloat(record[col["median"]], 64)
		std, err3 := strconv.ParseFloat(record[col["std"]], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		if _, dup := ts.Mean[gene]; dup {
			continue
		}
		ts.Genes = append(ts.Genes, gene)
		ts.Mean[gene] = mean
		ts.Median[gene] = median
		ts.Std[gene] = std
	}
	if len(ts.Genes) == 0 {
		return nil, fmt.Errorf("tissue stats %s: no rows for tissue %q", s.Path, tissue)
	}
	return ts, nil
}

// ZScore compares an expression matrix against the reference:
// (x - median) / std per gene, over the genes present in both the
// matrix and the reference (genes with zero or missing std are
// dropped). Column order follows the matrix.
func (ts *TissueStats) ZScore(m *Matrix) (*Matrix, error) {
	var idx []int
	var median, std []float64
	for j, gene := range m.cols {
		sd, ok := ts.Std[gene]
		if !ok || !(sd > 0) {
			continue
		}
		idx = append(idx, j)
		median = append(median, ts.Median[gene])
		std = append(std, sd)
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("genemunge: no genes shared with %s reference", ts.Tissue)
	}
	sel, err := m.SelectColumns(idx)
	if err != nil {
		return nil, err
	}
	nrow, ncol := sel.Dims()
	for i := 0; i < nrow; i++ {
		row := rawRow(sel.data, i)
		for j := 0; j < ncol; j++ {
			row[j] = (row[j] - median[j]) / std[j]
		}
	}
	return sel, nil
}

type tissuezcmd struct{}

func (cmd *tissuezcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	statsFilename := flags.String("stats", "", "tissue statistics CSV `file`")
	tissue := flags.String("tissue", "", "reference tissue `name`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *statsFilename == "" || *tissue == "" {
		err = errors.New("-stats file and -tissue name are required")
		return 2
	}

	ts, err := FileStatsSource{Path: *statsFilename}.TissueStats(*tissue)
	if err != nil {
		return 1
	}
	m, err := readGCTFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	out, err := ts.ZScore(m)
	if err != nil {
		return 1
	}
	_, ngenes := out.Dims()
	log.Printf("tissue-z: %d genes scored against %s reference (%d in table)", ngenes, *tissue, len(ts.Genes))
	err = writeGCTFile(*outputFilename, stdout, out)
	if err != nil {
		return 1
	}
	return 0
}
