// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Coherence is the result of comparing the sample identifiers implied
// by two tables that claim to describe the same population.
type Coherence struct {
	MutualInclusion    bool
	PositionalIdentity bool
}

// CheckSampleIdentity compares two ordered identifier lists.
// MutualInclusion is true iff they contain exactly the same set of
// distinct identifiers, ignoring order and duplicates.
// PositionalIdentity is true iff they are equal element by element.
// Pure comparison; the caller decides whether a mismatch is fatal (in
// this pipeline it is reported and the run continues).
func CheckSampleIdentity(a, b []string) Coherence {
	setA := make(map[string]bool, len(a))
	for _, id := range a {
		setA[id] = true
	}
	setB := make(map[string]bool, len(b))
	for _, id := range b {
		setB[id] = true
	}
	c := Coherence{MutualInclusion: len(setA) == len(setB)}
	if c.MutualInclusion {
		for id := range setA {
			if !setB[id] {
				c.MutualInclusion = false
				break
			}
		}
	}
	if len(a) == len(b) {
		c.PositionalIdentity = true
		for i := range a {
			if a[i] != b[i] {
				c.PositionalIdentity = false
				break
			}
		}
	}
	return c
}

// Report logs a warning when the two tables disagree. Positional
// alignment between the tables is only safe when both checks hold.
func (c Coherence) Report(roleA, roleB string) {
	if !c.MutualInclusion {
		log.Warnf("coherence: %s and %s do not contain the same sample identifiers", roleA, roleB)
	} else if !c.PositionalIdentity {
		log.Warnf("coherence: %s and %s contain the same sample identifiers in different order", roleA, roleB)
	}
}

type checkCoherenceCmd struct{}

func (cmd *checkCoherenceCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	samplesFilename := flags.String("samples", "", "sample attribute table `file`")
	signalFilename := flags.String("signal", "", "gene-by-sample signal table `file`")
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
	signal, err := LoadSignalTable(*signalFilename)
	if err != nil {
		return 1
	}
	c := CheckSampleIdentity(samples.IDs(), signal.Samples)
	c.Report("sample table", "signal table")
	err = json.NewEncoder(stdout).Encode(c)
	if err != nil {
		return 1
	}
	return 0
}
