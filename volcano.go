// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	_ "embed"
	"flag"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strings"
)

type volcanoCmd struct{}

//go:embed volcano.py
var volcanoscript string

// volcano renders the organized change table as a fold-change versus
// significance scatter plot, with the selection thresholds drawn and
// optional gene labels.
func (cmd *volcanoCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "organized change table `file`")
	outputFilename := flags.String("o", "", "output `filename` (e.g., './volcano.png')")
	foldColumn := flags.String("fold-column", "fold_change_log2", "fold-change `column`")
	sigColumn := flags.String("significance-column", "q_value_negative_log10", "significance `column`")
	nameColumn := flags.String("name-column", "gene_name", "gene name `column` for emphasis labels")
	foldRatio := flags.Float64("threshold-fold-ratio", 1.7, "fold-change threshold as a plain `ratio`")
	sigThreshold := flags.Float64("threshold-significance", 2.0, "significance threshold on the negative log10 `scale`")
	emphasis := flags.String("emphasis", "", "comma-separated gene `identifiers` to label")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *outputFilename == "" {
		fmt.Fprintln(stderr, "error: must specify -o filename.png (or try -help)")
		return 1
	}

	python := exec.Command("python3", "-",
		*inputFilename,
		*foldColumn,
		*sigColumn,
		*nameColumn,
		fmt.Sprintf("%g", math.Log2(*foldRatio)),
		fmt.Sprintf("%g", *sigThreshold),
		*emphasis,
		*outputFilename,
	)
	python.Stdin = strings.NewReader(volcanoscript)
	python.Stdout = stdout
	python.Stderr = stderr
	err = python.Run()
	if err != nil {
		return 1
	}
	return 0
}
