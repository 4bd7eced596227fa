// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"flag"
	"fmt"
	"io"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultKeepBiotypes is the standard allow-list of gene biotype
// categories retained by the identity filter.
// https://www.gencodegenes.org/pages/biotypes.html
var DefaultKeepBiotypes = []string{
	"protein_coding",
	"lncRNA",
	"misc_RNA",
	"snRNA",
	"miRNA",
	"TEC",
	"snoRNA",
	"IG_V_gene",
	"TR_V_gene",
	"TR_J_gene",
	"rRNA",
	"scaRNA",
	"IG_D_gene",
	"Mt_tRNA",
	"IG_J_gene",
	"IG_C_gene",
	"ribozyme",
	"TR_C_gene",
	"sRNA",
	"TR_D_gene",
	"vault_RNA",
	"Mt_rRNA",
	"scRNA",
}

// IdentityFilter keeps a gene row iff its identifier is non-empty,
// contains IdentifierPrefix, and its biotype (read from BiotypeColumn
// in the gene table) is in the allow-list. All conditions are
// conjunctive.
type IdentityFilter struct {
	IdentifierPrefix string
	BiotypeColumn    string
	KeepBiotypes     []string
}

func (f *IdentityFilter) keepSet() map[string]bool {
	keep := make(map[string]bool, len(f.KeepBiotypes))
	for _, t := range f.KeepBiotypes {
		keep[t] = true
	}
	return keep
}

// Keep reports whether a row with the given identifier and biotype
// survives the filter.
func (f *IdentityFilter) Keep(id, biotype string) bool {
	return id != "" &&
		strings.Contains(id, f.IdentifierPrefix) &&
		f.keepSet()[biotype]
}

// ConditionSubset is one experimental arm's sample identifiers and the
// proportion of valid signals required within it.
type ConditionSubset struct {
	Name       string
	Samples    []string
	Proportion float64
}

// SignalFilter drops gene rows whose signals are not sufficiently
// detectable. ThresholdHigh <= 0 means no upper bound. A row must pass
// the all-samples proportion unconditionally; when ByCondition is set
// it must additionally pass at least one condition subset (OR across
// conditions), which deliberately retains genes detectable in only one
// experimental arm.
type SignalFilter struct {
	ThresholdLow  float64
	ThresholdHigh float64
	AllSamples    []string
	ProportionAll float64
	ByCondition   bool
	Conditions    []ConditionSubset
}

// validProportion reports whether the proportion of valid values in the
// subset columns meets the requirement. An empty subset is a
// configuration error, not a silent pass or fail.
func (f *SignalFilter) validProportion(sig *SignalTable, row []float64, subset []string, proportion float64) (bool, error) {
	if len(subset) == 0 {
		return false, fmt.Errorf("signal filter: empty sample subset")
	}
	valid := 0
	for _, sample := range subset {
		i, ok := sig.SampleIndex(sample)
		if !ok {
			continue
		}
		v := row[i]
		if math.IsNaN(v) || v <= f.ThresholdLow {
			continue
		}
		if f.ThresholdHigh > 0 && v > f.ThresholdHigh {
			continue
		}
		valid++
	}
	return float64(valid)/float64(len(subset)) >= proportion, nil
}

// keepRow evaluates the composite signal-validity policy for one row.
func (f *SignalFilter) keepRow(sig *SignalTable, row []float64) (bool, error) {
	ok, err := f.validProportion(sig, row, f.AllSamples, f.ProportionAll)
	if err != nil || !ok {
		return false, err
	}
	if !f.ByCondition {
		return true, nil
	}
	for _, cond := range f.Conditions {
		ok, err := f.validProportion(sig, row, cond.Samples, cond.Proportion)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// FilterGenes applies the identity filter and/or the signal-validity
// filter, conjunctively when both are given, and returns a filtered
// copy of the signal table. Rows are dropped, never nulled, so the row
// count only decreases. The gene table supplies biotypes for the
// identity filter; pass nil filters to skip either stage.
func FilterGenes(sig *SignalTable, genes *GeneTable, identity *IdentityFilter, signal *SignalFilter) (*SignalTable, error) {
	out := sig.Copy()

	if identity != nil {
		keep := identity.keepSet()
		out = out.SelectGenes(func(gene string) bool {
			if gene == "" || !strings.Contains(gene, identity.IdentifierPrefix) {
				return false
			}
			biotype, err := genes.Value(gene, identity.BiotypeColumn)
			if err != nil {
				return false
			}
			return keep[biotype]
		})
	}

	if signal != nil {
		filtered := NewSignalTable(out.Samples)
		for i, gene := range out.Genes {
			ok, err := signal.keepRow(out, out.Values[i])
			if err != nil {
				return nil, err
			}
			if ok {
				filtered.AddRow(gene, out.Values[i])
			}
		}
		out = filtered
	}

	log.Infof("filter: kept %d of %d gene rows", len(out.Genes), len(sig.Genes))
	return out, nil
}

type filterCmd struct{}

func (cmd *filterCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	signalFilename := flags.String("signal", "", "gene-by-sample signal table `file`")
	genesFilename := flags.String("genes", "", "gene annotation table `file`")
	samplesFilename := flags.String("samples", "", "sample attribute table `file` (required with -condition-column)")
	outputFilename := flags.String("o", "-", "output `file`")
	skipIdentity := flags.Bool("skip-identity", false, "skip the gene identity filter")
	skipSignal := flags.Bool("skip-signal", false, "skip the signal validity filter")
	prefix := flags.String("identifier-prefix", "ENSG", "required `substring` of gene identifiers")
	biotypes := flags.String("biotypes", "", "comma-separated biotype `allow-list` (default: standard list)")
	biotypeColumn := flags.String("biotype-column", "gene_type", "gene table `column` holding the biotype")
	thresholdLow := flags.Float64("threshold-low", 0, "values <= `T` are invalid")
	thresholdHigh := flags.Float64("threshold-high", 0, "values > `T` are invalid (0 = no upper bound)")
	proportionAll := flags.Float64("proportion-all", 0.1, "required `proportion` of valid values across all samples")
	conditionColumn := flags.String("condition-column", "", "sample attribute `column` defining condition subsets (enables OR-across-conditions filtering)")
	proportionCondition := flags.Float64("proportion-condition", 0.5, "required `proportion` of valid values within at least one condition subset")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	signal, err := LoadSignalTable(*signalFilename)
	if err != nil {
		return 1
	}

	var identity *IdentityFilter
	if !*skipIdentity {
		identity = &IdentityFilter{
			IdentifierPrefix: *prefix,
			BiotypeColumn:    *biotypeColumn,
			KeepBiotypes:     DefaultKeepBiotypes,
		}
		if *biotypes != "" {
			identity.KeepBiotypes = splitList(*biotypes)
		}
	}

	var genes *GeneTable
	if identity != nil {
		genes, err = LoadGeneTable(*genesFilename)
		if err != nil {
			return 1
		}
	}

	var validity *SignalFilter
	if !*skipSignal {
		validity = &SignalFilter{
			ThresholdLow:  *thresholdLow,
			ThresholdHigh: *thresholdHigh,
			AllSamples:    signal.Samples,
			ProportionAll: *proportionAll,
		}
		if *conditionColumn != "" {
			samples, err2 := LoadSampleTable(*samplesFilename)
			if err2 != nil {
				err = err2
				return 1
			}
			validity.ByCondition = true
			validity.Conditions, err = conditionSubsets(samples, *conditionColumn, *proportionCondition)
			if err != nil {
				return 1
			}
		}
	}

	filtered, err := FilterGenes(signal, genes, identity, validity)
	if err != nil {
		return 1
	}
	err = SaveSignalTable(filtered, *outputFilename, stdout)
	if err != nil {
		return 1
	}
	return 0
}

// conditionSubsets groups sample identifiers by the values of one
// sample attribute, in first-appearance order.
func conditionSubsets(tab *SampleTable, column string, proportion float64) ([]ConditionSubset, error) {
	if !tab.HasColumn(column) {
		return nil, fmt.Errorf("sample table has no column %q", column)
	}
	var subsets []ConditionSubset
	index := map[string]int{}
	for _, row := range tab.Rows {
		level, ok := row.Attrs[column]
		if !ok || level == "" {
			continue
		}
		i, ok := index[level]
		if !ok {
			i = len(subsets)
			index[level] = i
			subsets = append(subsets, ConditionSubset{Name: level, Proportion: proportion})
		}
		subsets[i].Samples = append(subsets[i].Samples, row.ID)
	}
	return subsets, nil
}
