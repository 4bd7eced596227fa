// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// InteractionParams configures AssembleInteractionTable.
type InteractionParams struct {
	// GeneIDs lists the genes to summarize, in output row order.
	// Duplicates produce duplicate rows.
	GeneIDs []string
	// GeneIDColumn names the identifier column in the output table.
	GeneIDColumn string
	// AnnotationColumns are copied from the gene table, in this order.
	AnnotationColumns []string
	// First and Second define the sample partition.
	First, Second Dimension
	// PValueColumn and QValueColumn name the source columns in the
	// interaction statistics table.
	PValueColumn, QValueColumn string
	// ZScore standardizes each gene's signal distribution across the
	// full sample population before subgroup extraction.
	ZScore bool
	// Spread adds {set}_median and {set}_interquartile columns.
	Spread bool
}

// InteractionRow is one gene's interaction summary before columnar
// assembly: fixed fields plus per-subgroup statistics keyed by the
// subgroup name.
type InteractionRow struct {
	GeneID      string
	Annotations map[string]string
	Sets        map[string]SubgroupStats
	PValue      float64
	QValue      float64
}

// InteractionTable is the assembled one-row-per-gene summary. Columns
// holds the deterministic column order; rows keep assembly order.
type InteractionTable struct {
	Columns  []string
	SetNames []string
	Spread   bool
	Rows     []InteractionRow
}

// interactionColumns is the pure function fixing the output column
// order: identifier, annotation columns in caller order, per-subgroup
// statistics in subgroup-definition order, then p-value and q-value.
func interactionColumns(geneIDColumn string, annotationColumns, setNames []string, spread bool) []string {
	columns := []string{geneIDColumn}
	columns = append(columns, annotationColumns...)
	suffixes := []string{"mean", "error"}
	if spread {
		suffixes = append(suffixes, "median", "interquartile")
	}
	for _, name := range setNames {
		for _, suffix := range suffixes {
			columns = append(columns, name+"_"+suffix)
		}
	}
	columns = append(columns, "p_value_interaction", "q_value_interaction")
	return columns
}

// AssembleInteractionTable builds the cross-subgroup comparison table:
// per gene, annotation fields, per-subgroup signal statistics, and the
// externally computed interaction p/q values. It does not persist the
// result; the caller decides where and how to store it.
func AssembleInteractionTable(p InteractionParams, samples *SampleTable, genes *GeneTable, signal *SignalTable, interaction *StatsTable) (*InteractionTable, error) {
	if p.GeneIDColumn == "" {
		return nil, fmt.Errorf("interaction: gene identifier column not configured")
	}
	for _, col := range []string{p.PValueColumn, p.QValueColumn} {
		if col == "" {
			return nil, fmt.Errorf("interaction: p-value/q-value source columns not configured")
		}
		if !interaction.HasColumn(col) {
			return nil, fmt.Errorf("interaction: statistics table has no column %q", col)
		}
	}

	subgroups, err := PartitionByTwoDimensions(samples, p.First, p.Second)
	if err != nil {
		return nil, err
	}
	setNames := make([]string, 0, len(subgroups))
	memberUnion := []string{}
	seen := map[string]bool{}
	for _, sg := range subgroups {
		setNames = append(setNames, sg.Name)
		for _, id := range sg.Samples {
			if !seen[id] {
				seen[id] = true
				memberUnion = append(memberUnion, id)
			}
		}
	}

	// Working copy restricted to subgroup members; the caller's table
	// is never touched.
	signal = signal.SelectSamples(memberUnion)
	if p.ZScore {
		signal.ZScoreRows()
	}

	tab := &InteractionTable{
		Columns:  interactionColumns(p.GeneIDColumn, p.AnnotationColumns, setNames, p.Spread),
		SetNames: setNames,
		Spread:   p.Spread,
	}
	for _, gene := range p.GeneIDs {
		row := InteractionRow{
			GeneID:      gene,
			Annotations: make(map[string]string, len(p.AnnotationColumns)),
			Sets:        make(map[string]SubgroupStats, len(subgroups)),
		}
		for _, col := range p.AnnotationColumns {
			v, err := genes.Value(gene, col)
			if err != nil {
				return nil, err
			}
			row.Annotations[col] = v
		}
		if row.PValue, err = interaction.Value(gene, p.PValueColumn); err != nil {
			return nil, err
		}
		if row.QValue, err = interaction.Value(gene, p.QValueColumn); err != nil {
			return nil, err
		}
		stats, err := AggregateGeneSubgroupStats(gene, signal, subgroups)
		if err != nil {
			return nil, err
		}
		for _, s := range stats {
			row.Sets[s.Subgroup] = s
		}
		tab.Rows = append(tab.Rows, row)
	}
	log.Infof("interaction: assembled %d rows x %d columns (%d subgroups)", len(tab.Rows), len(tab.Columns), len(subgroups))
	return tab, nil
}

// Cells renders the table as delimited-text cells, header first.
// Missing numeric values render as empty cells.
func (t *InteractionTable) Cells() [][]string {
	cells := [][]string{append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		line := []string{row.GeneID}
		for _, col := range t.Columns[1:] {
			switch {
			case col == "p_value_interaction":
				line = append(line, formatFloat(row.PValue))
			case col == "q_value_interaction":
				line = append(line, formatFloat(row.QValue))
			case strings.Contains(col, ";"):
				name, suffix := splitSetColumn(col)
				s := row.Sets[name]
				switch suffix {
				case "mean":
					line = append(line, formatFloat(s.Mean))
				case "error":
					line = append(line, formatFloat(s.StdErr))
				case "median":
					line = append(line, formatFloat(s.Median))
				case "interquartile":
					line = append(line, formatFloat(s.IQR))
				}
			default:
				line = append(line, row.Annotations[col])
			}
		}
		cells = append(cells, line)
	}
	return cells
}

// splitSetColumn splits "{set name}_{statistic}" at the final
// underscore. Set names contain ':' and ';' but never '_' after the
// statistic suffix is appended.
func splitSetColumn(col string) (name, suffix string) {
	i := strings.LastIndex(col, "_")
	return col[:i], col[i+1:]
}

type interactionCmd struct{}

func (cmd *interactionCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	samplesFilename := flags.String("samples", "", "sample attribute table `file`")
	genesFilename := flags.String("genes", "", "gene annotation table `file`")
	signalFilename := flags.String("signal", "", "gene-by-sample signal table `file`")
	interactionFilename := flags.String("interaction", "", "interaction statistics table `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	geneList := flags.String("gene-ids", "", "comma-separated gene `identifiers` to summarize")
	dim1 := flags.String("dimension-1", "", "first dimension as `column=level,level`")
	dim2 := flags.String("dimension-2", "", "second dimension as `column=level,level`")
	annotation := flags.String("annotation-columns", "gene_name,gene_type,gene_chromosome", "gene `columns` to carry into the output")
	pColumn := flags.String("p-column", "p_value_threshold", "interaction p-value source `column`")
	qColumn := flags.String("q-column", "q_value_threshold", "interaction q-value source `column`")
	zscore := flags.Bool("z-score", false, "standardize each gene's signals before aggregation")
	spread := flags.Bool("spread", false, "include median and interquartile columns")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	p := InteractionParams{
		GeneIDs:           splitList(*geneList),
		GeneIDColumn:      "gene_identifier",
		AnnotationColumns: splitList(*annotation),
		PValueColumn:      *pColumn,
		QValueColumn:      *qColumn,
		ZScore:            *zscore,
		Spread:            *spread,
	}
	if p.First, err = parseDimension(*dim1); err != nil {
		return 2
	}
	if p.Second, err = parseDimension(*dim2); err != nil {
		return 2
	}

	samples, err := LoadSampleTable(*samplesFilename)
	if err != nil {
		return 1
	}
	genes, err := LoadGeneTable(*genesFilename)
	if err != nil {
		return 1
	}
	signal, err := LoadSignalTable(*signalFilename)
	if err != nil {
		return 1
	}
	interaction, err := LoadStatsTable(*interactionFilename)
	if err != nil {
		return 1
	}

	coh := CheckSampleIdentity(samples.IDs(), signal.Samples)
	coh.Report("sample table", "signal table")

	tab, err := AssembleInteractionTable(p, samples, genes, signal, interaction)
	if err != nil {
		return 1
	}
	err = saveCells(tab.Cells(), *outputFilename, stdout)
	if err != nil {
		return 1
	}
	return 0
}

// parseDimension parses "column=level1,level2".
func parseDimension(s string) (Dimension, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return Dimension{}, fmt.Errorf("invalid dimension %q (want column=level,level)", s)
	}
	return Dimension{Name: parts[0], Levels: splitList(parts[1])}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	items := strings.Split(s, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

func formatFloat(v float64) string {
	if v != v {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
