// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var version = "dev"

// A handler implements one subcommand.
type handler interface {
	RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int
}

var commands = map[string]handler{
	"version":   versionCmd{},
	"-version":  versionCmd{},
	"--version": versionCmd{},

	"select-samples":  &selectSamplesCmd{},
	"filter":          &filterCmd{},
	"select-genes":    &selectGenesCmd{},
	"interaction":     &interactionCmd{},
	"check-coherence": &checkCoherenceCmd{},
	"export-numpy":    &exportNumpyCmd{},
	"volcano":         &volcanoCmd{},
}

type versionCmd struct{}

func (versionCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, prog, version)
	return 0
}

func usage(prog string, stderr io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		if name[0] != '-' {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	fmt.Fprintf(stderr, "usage: %s <command> [options]\n\ncommands:\n", prog)
	for _, name := range names {
		fmt.Fprintf(stderr, "  %s\n", name)
	}
}

// RunCommand dispatches to the named subcommand.
func RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(prog, stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "%s: unrecognized command %q\n", prog, args[0])
		usage(prog, stderr)
		return 2
	}
	return cmd.RunCommand(prog+" "+args[0], args[1:], stdin, stdout, stderr)
}

func Main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
