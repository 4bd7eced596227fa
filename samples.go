// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Criterion is one membership test on a sample attribute: the sample's
// value in Column must equal one of Values.
type Criterion struct {
	Column string
	Values []string
}

func (c Criterion) match(row SampleRow) bool {
	v, ok := row.Attrs[c.Column]
	if !ok {
		return false
	}
	for _, want := range c.Values {
		if v == want {
			return true
		}
	}
	return false
}

// SelectSampleSet returns the samples satisfying every cohort criterion
// and every factor criterion, preserving source row order. A criterion
// naming a column absent from the table is a configuration error, not
// an empty result.
func SelectSampleSet(tab *SampleTable, cohort, factors []Criterion) (*SampleTable, error) {
	all := append(append([]Criterion(nil), cohort...), factors...)
	for _, c := range all {
		if !tab.HasColumn(c.Column) {
			return nil, fmt.Errorf("sample table has no column %q", c.Column)
		}
		if len(c.Values) == 0 {
			return nil, fmt.Errorf("criterion on column %q has no values", c.Column)
		}
	}
	out := &SampleTable{
		IDColumn: tab.IDColumn,
		Columns:  append([]string(nil), tab.Columns...),
	}
	for _, row := range tab.Rows {
		keep := true
		for _, c := range all {
			if !c.match(row) {
				keep = false
				break
			}
		}
		if keep {
			attrs := make(map[string]string, len(row.Attrs))
			for k, v := range row.Attrs {
				attrs[k] = v
			}
			out.Rows = append(out.Rows, SampleRow{ID: row.ID, Attrs: attrs})
		}
	}
	log.Infof("select-samples: kept %d of %d samples", len(out.Rows), len(tab.Rows))
	return out, nil
}

type selectSamplesCmd struct{}

func (cmd *selectSamplesCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	samplesFilename := flags.String("samples", "", "sample attribute table `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	var cohort, factors criterionFlags
	flags.Var(&cohort, "cohort", "cohort `criterion` as column=value,value (repeatable)")
	flags.Var(&factors, "factor", "factor `criterion` as column=value,value (repeatable)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	samples, err := LoadSampleTable(*samplesFilename)
	if err != nil {
		return 1
	}
	selected, err := SelectSampleSet(samples, cohort, factors)
	if err != nil {
		return 1
	}
	err = SaveSampleTable(selected, *outputFilename, stdout)
	if err != nil {
		return 1
	}
	return 0
}

// criterionFlags parses repeated column=value,value flags.
type criterionFlags []Criterion

func (f *criterionFlags) String() string {
	return fmt.Sprintf("%d criteria", len(*f))
}

func (f *criterionFlags) Set(s string) error {
	dim, err := parseDimension(s)
	if err != nil {
		return err
	}
	*f = append(*f, Criterion{Column: dim.Name, Values: dim.Levels})
	return nil
}
