// Package main provides the fnn command line tool.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

const version = "v0.1.0"

// errUsage marks a bad invocation; main exits with status 2 for it.
var errUsage = errors.New("usage error")

type command struct {
	name  string
	usage string
	run   func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"version", "Show version", cmdVersion},
	{"info", "Describe the records of a model file", cmdInfo},
	{"eval", "Evaluate a model and its tangent-linear map at one point", cmdEval},
	{"check", "Run gradient and adjoint tests on a model", cmdCheck},
	{"oracle", "Write or compare tangent-linear blocks for the external solver", cmdOracle},
	{"convert", "Convert a JSON model description to a model file", cmdConvert},
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("fnn: ")

	err := run(os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		log.Print(err)
		os.Exit(2)
	default:
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:], stdout)
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "fnn - differentiable feed-forward networks %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}

func cmdVersion(_ []string, stdout io.Writer) error {
	fmt.Fprintf(stdout, "fnn %s\n", version)
	return nil
}

// newFlagSet creates a flag set that reports errors instead of exiting.
func newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: fnn %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses flags and returns the single positional argument.
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%w: %s expects exactly one file argument", errUsage, fs.Name())
	}
	return fs.Arg(0), nil
}

// parseVector parses comma or space separated numbers.
func parseVector(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	v := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", errUsage, f)
		}
		v[i] = x
	}
	return v, nil
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'e', 7, 64)
	}
	return strings.Join(parts, " ")
}
