// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"math"

	"gopkg.in/check.v1"
)

type filterSuite struct{}

var _ = check.Suite(&filterSuite{})

func (s *filterSuite) TestIdentityKeep(c *check.C) {
	f := &IdentityFilter{
		IdentifierPrefix: "ENSG",
		BiotypeColumn:    "gene_type",
		KeepBiotypes:     DefaultKeepBiotypes,
	}
	c.Check(f.Keep("ENSG00000119508.18", "protein_coding"), check.Equals, true)
	c.Check(f.Keep("ENSG00000119508.18", "lncRNA"), check.Equals, true)
	c.Check(f.Keep("", "protein_coding"), check.Equals, false)
	c.Check(f.Keep("ENSG00000119508.18", "artifact"), check.Equals, false)
	c.Check(f.Keep("ENST00000000001.1", "protein_coding"), check.Equals, false)
}

func (s *filterSuite) TestValidProportion(c *check.C) {
	samples := make([]string, 10)
	values := make([]float64, 10)
	for i := range samples {
		samples[i] = string(rune('a' + i))
		values[i] = 0
	}
	values[0], values[1], values[2] = 5, 6, 7
	sig := NewSignalTable(samples)
	c.Assert(sig.AddRow("g1", values), check.IsNil)

	f := &SignalFilter{ThresholdLow: 0}
	row, _ := sig.Row("g1")
	// 3 of 10 valid
	ok, err := f.validProportion(sig, row, samples, 0.3)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	ok, err = f.validProportion(sig, row, samples, 0.31)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)

	_, err = f.validProportion(sig, row, nil, 0.5)
	c.Check(err, check.ErrorMatches, `signal filter: empty sample subset`)
}

func (s *filterSuite) TestUpperBound(c *check.C) {
	sig := NewSignalTable([]string{"a", "b"})
	c.Assert(sig.AddRow("g1", []float64{5, 1e9}), check.IsNil)
	row, _ := sig.Row("g1")

	f := &SignalFilter{ThresholdLow: 0, ThresholdHigh: 1e6}
	ok, err := f.validProportion(sig, row, []string{"a", "b"}, 1.0)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)

	// ThresholdHigh <= 0 disables the upper bound
	f.ThresholdHigh = 0
	ok, err = f.validProportion(sig, row, []string{"a", "b"}, 1.0)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
}

func (s *filterSuite) TestOrAcrossConditions(c *check.C) {
	sig := NewSignalTable([]string{"a1", "a2", "b1", "b2"})
	// detectable only in the first arm
	c.Assert(sig.AddRow("g1", []float64{5, 6, 0, 0}), check.IsNil)
	// detectable in neither arm but 25% overall
	c.Assert(sig.AddRow("g2", []float64{5, 0, 0, 0}), check.IsNil)
	row1, _ := sig.Row("g1")
	row2, _ := sig.Row("g2")

	f := &SignalFilter{
		ThresholdLow:  0,
		AllSamples:    sig.Samples,
		ProportionAll: 0.25,
		ByCondition:   true,
		Conditions: []ConditionSubset{
			{Name: "one", Samples: []string{"a1", "a2"}, Proportion: 1.0},
			{Name: "two", Samples: []string{"b1", "b2"}, Proportion: 1.0},
		},
	}
	ok, err := f.keepRow(sig, row1)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	ok, err = f.keepRow(sig, row2)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
}

func (s *filterSuite) TestFilterGenes(c *check.C) {
	genes := NewGeneTable("gene_identifier", []string{"gene_type"})
	genes.AddRow("ENSG01", map[string]string{"gene_type": "protein_coding"})
	genes.AddRow("ENSG02", map[string]string{"gene_type": "artifact"})
	genes.AddRow("ENSG03", map[string]string{"gene_type": "lncRNA"})

	sig := NewSignalTable([]string{"a", "b"})
	c.Assert(sig.AddRow("ENSG01", []float64{5, 5}), check.IsNil)
	c.Assert(sig.AddRow("ENSG02", []float64{5, 5}), check.IsNil)
	c.Assert(sig.AddRow("ENSG03", []float64{0, math.NaN()}), check.IsNil)
	c.Assert(sig.AddRow("ENSG04", []float64{5, 5}), check.IsNil) // not annotated

	identity := &IdentityFilter{
		IdentifierPrefix: "ENSG",
		BiotypeColumn:    "gene_type",
		KeepBiotypes:     DefaultKeepBiotypes,
	}
	validity := &SignalFilter{
		ThresholdLow:  0,
		AllSamples:    sig.Samples,
		ProportionAll: 0.5,
	}
	out, err := FilterGenes(sig, genes, identity, validity)
	c.Assert(err, check.IsNil)
	c.Check(out.Genes, check.DeepEquals, []string{"ENSG01"})

	// identity only
	out, err = FilterGenes(sig, genes, identity, nil)
	c.Assert(err, check.IsNil)
	c.Check(out.Genes, check.DeepEquals, []string{"ENSG01", "ENSG03"})

	// signal only
	out, err = FilterGenes(sig, genes, nil, validity)
	c.Assert(err, check.IsNil)
	c.Check(out.Genes, check.DeepEquals, []string{"ENSG01", "ENSG02", "ENSG04"})

	// input untouched
	c.Check(sig.Genes, check.HasLen, 4)
}

func (s *filterSuite) TestConditionSubsets(c *check.C) {
	tab := samplesFixture()
	subsets, err := conditionSubsets(tab, "exercise", 0.5)
	c.Assert(err, check.IsNil)
	c.Assert(subsets, check.HasLen, 2)
	c.Check(subsets[0].Name, check.Equals, "before")
	c.Check(subsets[0].Samples, check.DeepEquals, []string{"s1", "s2", "s5", "s6"})
	c.Check(subsets[0].Proportion, check.Equals, 0.5)
	c.Check(subsets[1].Name, check.Equals, "after")
	c.Check(subsets[1].Samples, check.DeepEquals, []string{"s3", "s4", "s7", "s8"})

	_, err = conditionSubsets(tab, "tissue", 0.5)
	c.Check(err, check.ErrorMatches, `sample table has no column "tissue"`)
}
