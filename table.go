// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"fmt"
	"math"
)

// NotFoundError reports a lookup miss: a key that a table was expected
// to contain, but did not. Table names the role of the table ("gene
// annotation table", "interaction statistics table"), Column the column
// involved in the lookup, if any.
type NotFoundError struct {
	Key    string
	Table  string
	Column string
}

func (e *NotFoundError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: no entry for %q in column %q", e.Table, e.Key, e.Column)
	}
	return fmt.Sprintf("%s: no entry for %q", e.Table, e.Key)
}

// SampleRow is one sample: an identifier plus categorical attributes.
// Attribute values are strings; a missing attribute is simply absent
// from Attrs.
type SampleRow struct {
	ID    string
	Attrs map[string]string
}

// SampleTable holds per-sample attributes in source row order. Rows are
// immutable once loaded; subgroup membership is always derived from
// them, never written back.
type SampleTable struct {
	IDColumn string
	Columns  []string
	Rows     []SampleRow
}

func (t *SampleTable) Copy() *SampleTable {
	out := &SampleTable{
		IDColumn: t.IDColumn,
		Columns:  append([]string(nil), t.Columns...),
		Rows:     make([]SampleRow, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		attrs := make(map[string]string, len(row.Attrs))
		for k, v := range row.Attrs {
			attrs[k] = v
		}
		out.Rows = append(out.Rows, SampleRow{ID: row.ID, Attrs: attrs})
	}
	return out
}

// IDs returns the sample identifiers in source row order.
func (t *SampleTable) IDs() []string {
	ids := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func (t *SampleTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// SignalTable is a genes-by-samples matrix of signal intensities.
// Missing measurements are NaN. Rows are keyed uniquely by gene
// identifier; sample order is fixed at construction.
type SignalTable struct {
	Samples []string
	Genes   []string
	Values  [][]float64

	geneRow   map[string]int
	sampleCol map[string]int
}

func NewSignalTable(samples []string) *SignalTable {
	t := &SignalTable{Samples: append([]string(nil), samples...)}
	t.reindex()
	return t
}

func (t *SignalTable) reindex() {
	t.geneRow = make(map[string]int, len(t.Genes))
	for i, g := range t.Genes {
		t.geneRow[g] = i
	}
	t.sampleCol = make(map[string]int, len(t.Samples))
	for i, s := range t.Samples {
		t.sampleCol[s] = i
	}
}

// AddRow appends one gene's signal values, in the table's sample order.
func (t *SignalTable) AddRow(gene string, values []float64) error {
	if len(values) != len(t.Samples) {
		return fmt.Errorf("signal table: row %q has %d values, want %d", gene, len(values), len(t.Samples))
	}
	if _, ok := t.geneRow[gene]; ok {
		return fmt.Errorf("signal table: duplicate gene %q", gene)
	}
	t.geneRow[gene] = len(t.Genes)
	t.Genes = append(t.Genes, gene)
	t.Values = append(t.Values, append([]float64(nil), values...))
	return nil
}

func (t *SignalTable) Copy() *SignalTable {
	out := &SignalTable{
		Samples: append([]string(nil), t.Samples...),
		Genes:   append([]string(nil), t.Genes...),
		Values:  make([][]float64, 0, len(t.Values)),
	}
	for _, row := range t.Values {
		out.Values = append(out.Values, append([]float64(nil), row...))
	}
	out.reindex()
	return out
}

// Row returns the signal values for a gene, in sample order.
func (t *SignalTable) Row(gene string) ([]float64, bool) {
	i, ok := t.geneRow[gene]
	if !ok {
		return nil, false
	}
	return t.Values[i], true
}

func (t *SignalTable) SampleIndex(sample string) (int, bool) {
	i, ok := t.sampleCol[sample]
	return i, ok
}

func (t *SignalTable) HasGene(gene string) bool {
	_, ok := t.geneRow[gene]
	return ok
}

// SelectSamples returns a copy restricted to the given sample columns,
// keeping only identifiers that exist in the table and preserving the
// given order.
func (t *SignalTable) SelectSamples(samples []string) *SignalTable {
	keep := make([]int, 0, len(samples))
	kept := make([]string, 0, len(samples))
	for _, s := range samples {
		if i, ok := t.sampleCol[s]; ok {
			keep = append(keep, i)
			kept = append(kept, s)
		}
	}
	out := &SignalTable{
		Samples: kept,
		Genes:   append([]string(nil), t.Genes...),
		Values:  make([][]float64, 0, len(t.Values)),
	}
	for _, row := range t.Values {
		sel := make([]float64, len(keep))
		for j, i := range keep {
			sel[j] = row[i]
		}
		out.Values = append(out.Values, sel)
	}
	out.reindex()
	return out
}

// SelectGenes returns a copy keeping only the rows whose gene
// identifier satisfies keep, preserving row order.
func (t *SignalTable) SelectGenes(keep func(gene string) bool) *SignalTable {
	out := NewSignalTable(t.Samples)
	for i, g := range t.Genes {
		if keep(g) {
			out.geneRow[g] = len(out.Genes)
			out.Genes = append(out.Genes, g)
			out.Values = append(out.Values, append([]float64(nil), t.Values[i]...))
		}
	}
	return out
}

// GeneTable holds static per-gene annotations (name, biotype,
// chromosome, ...). Values are strings keyed by gene identifier and
// column name.
type GeneTable struct {
	IDColumn string
	Columns  []string
	Genes    []string
	attrs    map[string]map[string]string
}

func NewGeneTable(idColumn string, columns []string) *GeneTable {
	return &GeneTable{
		IDColumn: idColumn,
		Columns:  append([]string(nil), columns...),
		attrs:    map[string]map[string]string{},
	}
}

func (t *GeneTable) AddRow(gene string, attrs map[string]string) error {
	if _, ok := t.attrs[gene]; ok {
		return fmt.Errorf("gene table: duplicate gene %q", gene)
	}
	cp := make(map[string]string, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	t.Genes = append(t.Genes, gene)
	t.attrs[gene] = cp
	return nil
}

func (t *GeneTable) Copy() *GeneTable {
	out := NewGeneTable(t.IDColumn, t.Columns)
	for _, g := range t.Genes {
		out.AddRow(g, t.attrs[g])
	}
	return out
}

// Value returns the annotation for (gene, column), or a NotFoundError
// naming the missing key.
func (t *GeneTable) Value(gene, column string) (string, error) {
	attrs, ok := t.attrs[gene]
	if !ok {
		return "", &NotFoundError{Key: gene, Table: "gene annotation table"}
	}
	v, ok := attrs[column]
	if !ok {
		return "", &NotFoundError{Key: gene, Table: "gene annotation table", Column: column}
	}
	return v, nil
}

// StatsTable is a numeric table keyed by gene identifier, used for
// pre-computed differential-expression and interaction statistics.
// Missing values are NaN.
type StatsTable struct {
	Columns []string
	Genes   []string
	Values  [][]float64

	geneRow map[string]int
	col     map[string]int
}

func NewStatsTable(columns []string) *StatsTable {
	t := &StatsTable{Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *StatsTable) reindex() {
	t.geneRow = make(map[string]int, len(t.Genes))
	for i, g := range t.Genes {
		t.geneRow[g] = i
	}
	t.col = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.col[c] = i
	}
}

func (t *StatsTable) AddRow(gene string, values []float64) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("statistics table: row %q has %d values, want %d", gene, len(values), len(t.Columns))
	}
	if _, ok := t.geneRow[gene]; ok {
		return fmt.Errorf("statistics table: duplicate gene %q", gene)
	}
	t.geneRow[gene] = len(t.Genes)
	t.Genes = append(t.Genes, gene)
	t.Values = append(t.Values, append([]float64(nil), values...))
	return nil
}

func (t *StatsTable) Copy() *StatsTable {
	out := &StatsTable{
		Columns: append([]string(nil), t.Columns...),
		Genes:   append([]string(nil), t.Genes...),
		Values:  make([][]float64, 0, len(t.Values)),
	}
	for _, row := range t.Values {
		out.Values = append(out.Values, append([]float64(nil), row...))
	}
	out.reindex()
	return out
}

func (t *StatsTable) HasColumn(name string) bool {
	_, ok := t.col[name]
	return ok
}

// Value returns the statistic for (gene, column). A missing gene or
// column is a NotFoundError; a present-but-missing measurement is NaN.
func (t *StatsTable) Value(gene, column string) (float64, error) {
	i, ok := t.geneRow[gene]
	if !ok {
		return math.NaN(), &NotFoundError{Key: gene, Table: "statistics table"}
	}
	j, ok := t.col[column]
	if !ok {
		return math.NaN(), &NotFoundError{Key: gene, Table: "statistics table", Column: column}
	}
	return t.Values[i][j], nil
}

// Rename renames columns according to the given mapping. Names without
// a mapping entry are left alone.
func (t *StatsTable) Rename(translations map[string]string) {
	for i, c := range t.Columns {
		if to, ok := translations[c]; ok {
			t.Columns[i] = to
		}
	}
	t.reindex()
}
