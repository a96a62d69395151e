// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
)

// ReadGCT parses a GCT v1.2 stream (the GTEx expression-matrix
// exchange format: "#1.2" line, dims line, then a Name/Description
// header and one row per gene) into a samples x genes Matrix. The
// Description column is discarded.
func ReadGCT(r io.Reader) (*Matrix, error) {
	tsv := csv.NewReader(bufio.NewReader(r))
	tsv.Comma = '\t'
	tsv.LazyQuotes = true
	tsv.FieldsPerRecord = -1

	version, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("gct: reading version line: %w", err)
	}
	if len(version) == 0 || !strings.HasPrefix(version[0], "#1.") {
		return nil, fmt.Errorf("gct: unsupported version line %q", strings.Join(version, "\t"))
	}
	if _, err = tsv.Read(); err != nil {
		return nil, fmt.Errorf("gct: reading dimensions line: %w", err)
	}
	header, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("gct: reading header line: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("gct: header has %d fields, need Name, Description and at least one sample", len(header))
	}
	samples := header[2:]

	var genes []string
	var byGene [][]float64
	for {
		record, err := tsv.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("gct: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("gct: gene %q has %d fields, expected %d", record[0], len(record), len(header))
		}
		row := make([]float64, len(samples))
		for i, field := range record[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("gct: gene %q sample %q: %w", record[0], samples[i], err)
			}
			row[i] = v
		}
		genes = append(genes, record[0])
		byGene = append(byGene, row)
	}

	// GCT is genes x samples; Matrix is samples x genes.
	data := make([]float64, len(samples)*len(genes))
	for j, row := range byGene {
		for i, v := range row {
			data[i*len(genes)+j] = v
		}
	}
	return NewMatrix(samples, genes, data)
}

// WriteGCT writes m as GCT v1.2, transposing back to genes x samples.
// Descriptions are written as "na".
func WriteGCT(w io.Writer, m *Matrix) error {
	bufw := bufio.NewWriter(w)
	nrow, ncol := m.Dims()
	fmt.Fprintf(bufw, "#1.2\n%d\t%d\n", ncol, nrow)
	bufw.WriteString("Name\tDescription")
	for _, sample := range m.rows {
		bufw.WriteByte('\t')
		bufw.WriteString(sample)
	}
	bufw.WriteByte('\n')
	for j, gene := range m.cols {
		bufw.WriteString(gene)
		bufw.WriteString("\tna")
		for i := 0; i < nrow; i++ {
			bufw.WriteByte('\t')
			bufw.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

// readLabelFile reads one label per line, skipping blank lines and
// #-comments.
func readLabelFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// readGCTFile reads a GCT matrix from path, or from stdin when path
// is "-". Files ending in .gz are decompressed transparently.
func readGCTFile(path string, stdin io.Reader) (*Matrix, error) {
	if path == "-" {
		return ReadGCT(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return ReadGCT(r)
}

// writeGCTFile writes m to path, or to stdout when path is "-".
// Files ending in .gz are compressed.
func writeGCTFile(path string, stdout io.Writer, m *Matrix) error {
	if path == "-" {
		return WriteGCT(stdout, m)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0777)
	if err != nil {
		return err
	}
	defer f.Close()
	if strings.HasSuffix(path, ".gz") {
		gz := pgzip.NewWriter(f)
		if err := WriteGCT(gz, m); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		return f.Close()
	}
	if err := WriteGCT(f, m); err != nil {
		return err
	}
	return f.Close()
}
