// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// pvalueFloor approximates the smallest p/q value the upstream
// differential-expression tool reports with full precision; it returns
// exact zero below roughly this magnitude.
const pvalueFloor = 1e-250

// changeColumnTranslations maps the upstream tool's column names to
// ours.
var changeColumnTranslations = map[string]string{
	"log2FoldChange": "fold_change_log2",
	"lfcSE":          "fold_change_log2_standard_error",
	"pvalue":         "p_value",
	"padj":           "q_value",
}

// changeColumnSequence fixes the column order of the organized
// change table.
var changeColumnSequence = []string{
	"fold_change_log2",
	"fold_change_log2_standard_error",
	"p_value",
	"p_value_threshold",
	"p_value_negative_log10",
	"q_value",
	"q_value_threshold",
	"q_value_negative_log10",
}

// OrganizeChangeTable prepares an upstream differential-expression
// table for selection and plotting: renames the tool's columns, drops
// rows with missing or negative p/q values (a value of exactly zero is
// retained and clamped), clamps p/q below pvalueFloor to the floor,
// and derives negative base-ten logarithm columns from the clamped
// values. The input table is not modified.
func OrganizeChangeTable(t *StatsTable) (*StatsTable, error) {
	t = t.Copy()
	t.Rename(changeColumnTranslations)
	for _, col := range []string{"fold_change_log2", "fold_change_log2_standard_error", "p_value", "q_value"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("change table: missing column %q", col)
		}
	}

	out := NewStatsTable(changeColumnSequence)
	dropped := 0
	for _, gene := range t.Genes {
		fold, _ := t.Value(gene, "fold_change_log2")
		se, _ := t.Value(gene, "fold_change_log2_standard_error")
		p, _ := t.Value(gene, "p_value")
		q, _ := t.Value(gene, "q_value")
		if math.IsNaN(p) || math.IsNaN(q) || p < 0 || q < 0 {
			dropped++
			continue
		}
		pThr := p
		if pThr < pvalueFloor {
			pThr = pvalueFloor
		}
		qThr := q
		if qThr < pvalueFloor {
			qThr = pvalueFloor
		}
		if math.IsNaN(fold) || math.IsNaN(se) {
			dropped++
			continue
		}
		err := out.AddRow(gene, []float64{
			fold, se,
			p, pThr, -math.Log10(pThr),
			q, qThr, -math.Log10(qThr),
		})
		if err != nil {
			return nil, err
		}
	}
	if dropped > 0 {
		log.Infof("change table: dropped %d of %d rows with missing or negative statistics", dropped, len(t.Genes))
	}
	return out, nil
}

// GeneSets is the outcome of threshold selection: identifiers of genes
// changed upward, downward, and in either direction beyond the
// thresholds. A gene appears in at most one of Up/Down and, if in
// either, also in Threshold.
type GeneSets struct {
	Threshold []string
	Up        []string
	Down      []string
}

// SelectByFoldAndSignificance partitions genes by independent
// thresholds on fold change and significance. The significance column
// must already be on a higher-is-more-significant scale (negative
// base-ten logarithm). Comparisons are strict at both boundaries, and
// rows with missing values never land in any set.
func SelectByFoldAndSignificance(t *StatsTable, foldColumn, sigColumn string, foldThreshold, sigThreshold float64) (GeneSets, error) {
	var sets GeneSets
	for _, col := range []string{foldColumn, sigColumn} {
		if !t.HasColumn(col) {
			return sets, fmt.Errorf("selection: table has no column %q", col)
		}
	}
	for _, gene := range t.Genes {
		fold, _ := t.Value(gene, foldColumn)
		sig, _ := t.Value(gene, sigColumn)
		if math.IsNaN(fold) || math.IsNaN(sig) || sig <= sigThreshold {
			continue
		}
		switch {
		case fold > foldThreshold:
			sets.Up = append(sets.Up, gene)
			sets.Threshold = append(sets.Threshold, gene)
		case fold < -foldThreshold:
			sets.Down = append(sets.Down, gene)
			sets.Threshold = append(sets.Threshold, gene)
		}
	}
	return sets, nil
}

type selectGenesCmd struct{}

func (cmd *selectGenesCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "differential-expression table `file`")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	foldRatio := flags.Float64("threshold-fold-ratio", 1.7, "fold-change threshold as a plain `ratio` (applied on the log2 scale)")
	sigThreshold := flags.Float64("threshold-significance", 2.0, "significance threshold on the negative log10 `scale`")
	foldColumn := flags.String("fold-column", "fold_change_log2", "fold-change `column`")
	sigColumn := flags.String("significance-column", "q_value_negative_log10", "significance `column`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	source, err := LoadStatsTable(*inputFilename)
	if err != nil {
		return 1
	}
	change, err := OrganizeChangeTable(source)
	if err != nil {
		return 1
	}
	sets, err := SelectByFoldAndSignificance(change, *foldColumn, *sigColumn, math.Log2(*foldRatio), *sigThreshold)
	if err != nil {
		return 1
	}
	log.Infof("select-genes: %d beyond thresholds (%d up, %d down)", len(sets.Threshold), len(sets.Up), len(sets.Down))

	err = SaveStatsTable(change, filepath.Join(*outputDir, "table_change.tsv"), stdout)
	if err != nil {
		return 1
	}
	for name, genes := range map[string][]string{
		"genes_threshold.txt": sets.Threshold,
		"genes_up.txt":        sets.Up,
		"genes_down.txt":      sets.Down,
	} {
		err = writeLines(filepath.Join(*outputDir, name), genes)
		if err != nil {
			return 1
		}
	}
	return 0
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return f.Close()
}
