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
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// GeneLengthTable is an ordered mapping from gene identifier to
// transcript length in bases.
type GeneLengthTable struct {
	Genes  []string
	Length map[string]float64
}

// Lookup returns the length for gene, and whether it is present.
func (t *GeneLengthTable) Lookup(gene string) (float64, bool) {
	l, ok := t.Length[gene]
	return l, ok
}

// LengthSource supplies gene length tables keyed by identifier
// scheme ("symbol", "ensembl", ...). Implementations own retrieval
// and parsing of the underlying annotation data; the normalizer only
// consumes the resulting table.
type LengthSource interface {
	GeneLengths(identifier string) (*GeneLengthTable, error)
}

// FileLengthSource loads gene length tables from a gene-info CSV
// (optionally gzip-compressed): a header row naming one column per
// identifier scheme plus a "length" column, then one row per gene.
// Rows whose identifier is empty or whose length is not a positive
// number are skipped. The first occurrence wins when an identifier
// repeats.
type FileLengthSource struct {
	Path string
}

func (s FileLengthSource) GeneLengths(identifier string) (*GeneLengthTable, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	var r io.Reader = io.TeeReader(bufio.NewReaderSize(f, 1<<20), hasher)
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
		return nil, fmt.Errorf("gene info %s: reading header: %w", s.Path, err)
	}
	idCol, lenCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case strings.ToLower(identifier):
			idCol = i
		case "length", "bp_length":
			lenCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("gene info %s: no %q column", s.Path, identifier)
	}
	if lenCol < 0 {
		return nil, fmt.Errorf("gene info %s: no length column", s.Path)
	}

	tbl := &GeneLengthTable{Length: map[string]float64{}}
	for {
		record, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("gene info %s: %w", s.Path, err)
		}
		if idCol >= len(record) || lenCol >= len(record) {
			continue
		}
		gene := strings.TrimSpace(record[idCol])
		if gene == "" {
			continue
		}
		length, err := strconv.ParseFloat(record[lenCol], 64)
		if err != nil || !(length > 0) {
			continue
		}
		if _, dup := tbl.Length[gene]; dup {
			continue
		}
		tbl.Genes = append(tbl.Genes, gene)
		tbl.Length[gene] = length
	}
	log.Printf("gene info %s: %d %s lengths, blake2b %x", s.Path, len(tbl.Genes), identifier, hasher.Sum(nil)[:8])
	return tbl, nil
}
