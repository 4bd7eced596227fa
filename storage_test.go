// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"bytes"
	"io/ioutil"
	"math"
	"os"
	"strings"

	"gopkg.in/check.v1"
)

type storageSuite struct{}

var _ = check.Suite(&storageSuite{})

func (s *storageSuite) TestSampleTableRoundTrip(c *check.C) {
	filename := c.MkDir() + "/samples.tsv"
	in := samplesFixture()
	c.Assert(SaveSampleTable(in, filename, nil), check.IsNil)
	out, err := LoadSampleTable(filename)
	c.Assert(err, check.IsNil)
	c.Check(out.IDColumn, check.Equals, "identifier_sample")
	c.Check(out.Columns, check.DeepEquals, []string{"sex", "exercise"})
	c.Check(out.Rows, check.DeepEquals, in.Rows)
}

func (s *storageSuite) TestSignalTableRoundTripText(c *check.C) {
	for _, filename := range []string{
		c.MkDir() + "/signal.tsv",
		c.MkDir() + "/signal.tsv.gz",
	} {
		c.Logf("=== %s", filename)
		in := NewSignalTable([]string{"s1", "s2"})
		c.Assert(in.AddRow("g1", []float64{1.5, math.NaN()}), check.IsNil)
		c.Assert(in.AddRow("g2", []float64{0, -2.25}), check.IsNil)
		c.Assert(SaveSignalTable(in, filename, nil), check.IsNil)

		out, err := LoadSignalTable(filename)
		c.Assert(err, check.IsNil)
		c.Check(out.Samples, check.DeepEquals, in.Samples)
		c.Check(out.Genes, check.DeepEquals, in.Genes)
		row, ok := out.Row("g1")
		c.Assert(ok, check.Equals, true)
		c.Check(row[0], check.Equals, 1.5)
		c.Check(math.IsNaN(row[1]), check.Equals, true)
		row, _ = out.Row("g2")
		c.Check(row, check.DeepEquals, []float64{0, -2.25})
	}
}

func (s *storageSuite) TestSignalTableRoundTripGob(c *check.C) {
	for _, filename := range []string{
		c.MkDir() + "/signal.gob",
		c.MkDir() + "/signal.gob.gz",
	} {
		c.Logf("=== %s", filename)
		in := NewSignalTable([]string{"s1", "s2", "s3"})
		c.Assert(in.AddRow("g1", []float64{1, 2, 3}), check.IsNil)
		c.Assert(SaveSignalTable(in, filename, nil), check.IsNil)

		out, err := LoadSignalTable(filename)
		c.Assert(err, check.IsNil)
		c.Check(out.Samples, check.DeepEquals, in.Samples)
		c.Check(out.Values, check.DeepEquals, in.Values)
	}
}

func (s *storageSuite) TestStatsTableRoundTrip(c *check.C) {
	filename := c.MkDir() + "/stats.tsv"
	in := NewStatsTable([]string{"p_value", "q_value"})
	c.Assert(in.AddRow("g1", []float64{0.5, math.NaN()}), check.IsNil)
	c.Assert(SaveStatsTable(in, filename, nil), check.IsNil)

	out, err := LoadStatsTable(filename)
	c.Assert(err, check.IsNil)
	c.Check(out.Columns, check.DeepEquals, in.Columns)
	v, err := out.Value("g1", "p_value")
	c.Assert(err, check.IsNil)
	c.Check(v, check.Equals, 0.5)
	v, err = out.Value("g1", "q_value")
	c.Assert(err, check.IsNil)
	c.Check(math.IsNaN(v), check.Equals, true)
}

func (s *storageSuite) TestLoadStatsTableNA(c *check.C) {
	filename := c.MkDir() + "/deseq.tsv"
	err := ioutil.WriteFile(filename, []byte(""+
		"\tlog2FoldChange\tpvalue\tpadj\n"+
		"g1\t1.5\tNA\tNA\n"+
		"g2\t-0.5\t0.01\t0.05\n"), 0666)
	c.Assert(err, check.IsNil)

	out, err := LoadStatsTable(filename)
	c.Assert(err, check.IsNil)
	c.Check(out.Genes, check.DeepEquals, []string{"g1", "g2"})
	v, err := out.Value("g1", "pvalue")
	c.Assert(err, check.IsNil)
	c.Check(math.IsNaN(v), check.Equals, true)
	v, err = out.Value("g2", "padj")
	c.Assert(err, check.IsNil)
	c.Check(v, check.Equals, 0.05)
}

func (s *storageSuite) TestSaveCellsStdout(c *check.C) {
	var buf bytes.Buffer
	err := saveCells([][]string{{"a", "b"}, {"1", "2"}}, "-", &buf)
	c.Assert(err, check.IsNil)
	c.Check(buf.String(), check.Equals, "a\tb\n1\t2\n")
}

func (s *storageSuite) TestGeneTableLoad(c *check.C) {
	filename := c.MkDir() + "/genes.tsv"
	err := ioutil.WriteFile(filename, []byte(""+
		"gene_identifier\tgene_name\tgene_type\n"+
		"ENSG01\tNR4A3\tprotein_coding\n"+
		"ENSG02\tTGFB1\tprotein_coding\n"), 0666)
	c.Assert(err, check.IsNil)

	tab, err := LoadGeneTable(filename)
	c.Assert(err, check.IsNil)
	c.Check(tab.IDColumn, check.Equals, "gene_identifier")
	c.Check(tab.Genes, check.DeepEquals, []string{"ENSG01", "ENSG02"})
	v, err := tab.Value("ENSG01", "gene_name")
	c.Assert(err, check.IsNil)
	c.Check(v, check.Equals, "NR4A3")
	_, err = tab.Value("ENSG01", "gene_chromosome")
	c.Check(err, check.ErrorMatches, `gene annotation table: no entry for "ENSG01" in column "gene_chromosome"`)
}

func (s *storageSuite) TestGzipOutputIsCompressed(c *check.C) {
	filename := c.MkDir() + "/signal.tsv.gz"
	in := NewSignalTable([]string{"s1"})
	c.Assert(in.AddRow("g1", []float64{1}), check.IsNil)
	c.Assert(SaveSignalTable(in, filename, nil), check.IsNil)

	f, err := os.Open(filename)
	c.Assert(err, check.IsNil)
	defer f.Close()
	magic := make([]byte, 2)
	_, err = f.Read(magic)
	c.Assert(err, check.IsNil)
	c.Check(magic, check.DeepEquals, []byte{0x1f, 0x8b})
}

func (s *storageSuite) TestMissingInput(c *check.C) {
	_, err := LoadSignalTable("")
	c.Check(err, check.ErrorMatches, `input filename not specified`)
	_, err = LoadSignalTable(c.MkDir() + "/nonexistent.tsv")
	c.Check(err, check.NotNil)
	c.Check(strings.Contains(err.Error(), "nonexistent"), check.Equals, true)
}
