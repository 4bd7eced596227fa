// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"bufio"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// Tables are stored as tab-delimited text, with a ".gz" suffix
// selecting transparent compression. Signal tables additionally
// support a ".gob" / ".gob.gz" binary format for fast reload of large
// matrices. Missing numeric values are empty cells or "NA" on input,
// and empty cells on output.

func openInput(filename string) (io.ReadCloser, error) {
	if filename == "" {
		return nil, fmt.Errorf("input filename not specified")
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(bufio.NewReaderSize(f, 4*1024*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzReadCloser{gz, f}, nil
}

type gzReadCloser struct {
	*pgzip.Reader
	f *os.File
}

func (r *gzReadCloser) Close() error {
	err := r.Reader.Close()
	if err2 := r.f.Close(); err == nil {
		err = err2
	}
	return err
}

// writeOutput writes to filename ("-" means stdout), compressing when
// the name ends in ".gz", and logs a content fingerprint of the
// uncompressed bytes.
func writeOutput(filename string, stdout io.Writer, write func(io.Writer) error) error {
	var out io.Writer
	var f *os.File
	if filename == "-" {
		out = stdout
	} else {
		var err error
		f, err = os.Create(filename)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	var gz *pgzip.Writer
	if strings.HasSuffix(filename, ".gz") {
		gz = pgzip.NewWriter(out)
		out = gz
	}
	hash, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	bufw := bufio.NewWriter(io.MultiWriter(out, hash))
	if err := write(bufw); err != nil {
		return err
	}
	if err := bufw.Flush(); err != nil {
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return err
		}
	}
	log.Infof("wrote %s (blake2b %x)", filename, hash.Sum(nil))
	return nil
}

func readCells(filename string) ([][]string, error) {
	rdr, err := openInput(filename)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	csvr := csv.NewReader(bufio.NewReaderSize(rdr, 4*1024*1024))
	csvr.Comma = '\t'
	csvr.FieldsPerRecord = -1
	cells, err := csvr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s: empty table", filename)
	}
	return cells, nil
}

// saveCells writes rows of cells as tab-delimited text.
func saveCells(cells [][]string, filename string, stdout io.Writer) error {
	return writeOutput(filename, stdout, func(w io.Writer) error {
		csvw := csv.NewWriter(w)
		csvw.Comma = '\t'
		if err := csvw.WriteAll(cells); err != nil {
			return err
		}
		csvw.Flush()
		return csvw.Error()
	})
}

func parseCell(s string) (float64, error) {
	if s == "" || s == "NA" || s == "NaN" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// LoadSampleTable reads a sample attribute table. The first column
// holds sample identifiers; the remaining columns are categorical
// attributes.
func LoadSampleTable(filename string) (*SampleTable, error) {
	cells, err := readCells(filename)
	if err != nil {
		return nil, err
	}
	header := cells[0]
	if len(header) < 1 {
		return nil, fmt.Errorf("%s: missing header", filename)
	}
	tab := &SampleTable{
		IDColumn: header[0],
		Columns:  append([]string(nil), header[1:]...),
	}
	for _, line := range cells[1:] {
		row := SampleRow{ID: line[0], Attrs: make(map[string]string, len(header)-1)}
		for i, col := range header[1:] {
			if i+1 < len(line) {
				row.Attrs[col] = line[i+1]
			}
		}
		tab.Rows = append(tab.Rows, row)
	}
	return tab, nil
}

// SaveSampleTable writes a sample attribute table as tab-delimited
// text.
func SaveSampleTable(t *SampleTable, filename string, stdout io.Writer) error {
	cells := [][]string{append([]string{t.IDColumn}, t.Columns...)}
	for _, row := range t.Rows {
		line := []string{row.ID}
		for _, col := range t.Columns {
			line = append(line, row.Attrs[col])
		}
		cells = append(cells, line)
	}
	return saveCells(cells, filename, stdout)
}

// LoadGeneTable reads a gene annotation table. The first column holds
// gene identifiers.
func LoadGeneTable(filename string) (*GeneTable, error) {
	cells, err := readCells(filename)
	if err != nil {
		return nil, err
	}
	header := cells[0]
	tab := NewGeneTable(header[0], header[1:])
	for _, line := range cells[1:] {
		attrs := make(map[string]string, len(header)-1)
		for i, col := range header[1:] {
			if i+1 < len(line) {
				attrs[col] = line[i+1]
			}
		}
		if err := tab.AddRow(line[0], attrs); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return tab, nil
}

// LoadSignalTable reads a gene-by-sample signal matrix, either
// tab-delimited text (first column gene identifiers, remaining header
// cells sample identifiers) or the binary format written by
// SaveSignalTable when the name ends in ".gob" or ".gob.gz".
func LoadSignalTable(filename string) (*SignalTable, error) {
	if isGob(filename) {
		return loadSignalTableGob(filename)
	}
	cells, err := readCells(filename)
	if err != nil {
		return nil, err
	}
	header := cells[0]
	tab := NewSignalTable(header[1:])
	for _, line := range cells[1:] {
		values := make([]float64, len(header)-1)
		for i := range values {
			v := ""
			if i+1 < len(line) {
				v = line[i+1]
			}
			values[i], err = parseCell(v)
			if err != nil {
				return nil, fmt.Errorf("%s: row %q: %w", filename, line[0], err)
			}
		}
		if err := tab.AddRow(line[0], values); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return tab, nil
}

// SaveSignalTable writes a signal matrix, choosing the format by
// filename suffix as in LoadSignalTable.
func SaveSignalTable(t *SignalTable, filename string, stdout io.Writer) error {
	if isGob(filename) {
		return writeOutput(filename, stdout, func(w io.Writer) error {
			return gob.NewEncoder(w).Encode(signalTableGob{
				Samples: t.Samples,
				Genes:   t.Genes,
				Values:  t.Values,
			})
		})
	}
	cells := [][]string{append([]string{"gene_identifier"}, t.Samples...)}
	for i, gene := range t.Genes {
		line := make([]string, 0, len(t.Samples)+1)
		line = append(line, gene)
		for _, v := range t.Values[i] {
			line = append(line, formatFloat(v))
		}
		cells = append(cells, line)
	}
	return saveCells(cells, filename, stdout)
}

func isGob(filename string) bool {
	return strings.HasSuffix(filename, ".gob") || strings.HasSuffix(filename, ".gob.gz")
}

type signalTableGob struct {
	Samples []string
	Genes   []string
	Values  [][]float64
}

func loadSignalTableGob(filename string) (*SignalTable, error) {
	rdr, err := openInput(filename)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	var ent signalTableGob
	err = gob.NewDecoder(bufio.NewReaderSize(rdr, 4*1024*1024)).Decode(&ent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	tab := NewSignalTable(ent.Samples)
	for i, gene := range ent.Genes {
		if err := tab.AddRow(gene, ent.Values[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return tab, nil
}

// LoadStatsTable reads a numeric table keyed by gene identifier. The
// first column holds the identifiers; all other columns are parsed as
// floats, with empty cells and "NA" read as missing.
func LoadStatsTable(filename string) (*StatsTable, error) {
	cells, err := readCells(filename)
	if err != nil {
		return nil, err
	}
	header := cells[0]
	tab := NewStatsTable(header[1:])
	for _, line := range cells[1:] {
		values := make([]float64, len(header)-1)
		for i := range values {
			v := ""
			if i+1 < len(line) {
				v = line[i+1]
			}
			values[i], err = parseCell(v)
			if err != nil {
				return nil, fmt.Errorf("%s: row %q: %w", filename, line[0], err)
			}
		}
		if err := tab.AddRow(line[0], values); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return tab, nil
}

// SaveStatsTable writes a numeric table as tab-delimited text with
// gene identifiers in the first column.
func SaveStatsTable(t *StatsTable, filename string, stdout io.Writer) error {
	cells := [][]string{append([]string{"identifier_gene"}, t.Columns...)}
	for i, gene := range t.Genes {
		line := make([]string, 0, len(t.Columns)+1)
		line = append(line, gene)
		for _, v := range t.Values[i] {
			line = append(line, formatFloat(v))
		}
		cells = append(cells, line)
	}
	return saveCells(cells, filename, stdout)
}
