// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kshedden/gonpy"
)

type exportNumpyCmd struct{}

// export-numpy writes the signal matrix as a float64 .npy array in
// row-major gene-by-sample order, plus sidecar text files listing the
// row and column identifiers.
func (cmd *exportNumpyCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "signal table `file`")
	outputFilename := flags.String("o", "-", "output `file` (.npy)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	sig, err := LoadSignalTable(*inputFilename)
	if err != nil {
		return 1
	}

	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
		if err != nil {
			return 1
		}
		defer output.Close()
	}
	bufw := bufio.NewWriter(output)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return 1
	}
	npw.Shape = []int{len(sig.Genes), len(sig.Samples)}
	data := make([]float64, 0, len(sig.Genes)*len(sig.Samples))
	for _, row := range sig.Values {
		data = append(data, row...)
	}
	err = npw.WriteFloat64(data)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}

	if *outputFilename != "-" {
		base := strings.TrimSuffix(*outputFilename, ".npy")
		err = writeLines(base+".rows.txt", sig.Genes)
		if err != nil {
			return 1
		}
		err = writeLines(base+".columns.txt", sig.Samples)
		if err != nil {
			return 1
		}
	}
	return 0
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
