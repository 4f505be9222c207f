// Command marble is the CLI front-end for the marble interpreter: a
// cobra-based replacement for smog's raw os.Args switch in cmd/smog,
// wiring the same four operations (run a file, evaluate an inline
// expression, start a REPL, disassemble a compiled method) onto
// internal/lexer, internal/parser, internal/codegen, internal/vm and
// internal/builtin.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marble-lang/marble/internal/globals"
)

var (
	verbose   bool
	noColor   bool
	maxLocals int
)

var rootCmd = &cobra.Command{
	Use:   "marble",
	Short: "marble is a small Ruby-like bytecode interpreter",
	Long: "marble compiles a Ruby-like surface syntax to a register-free\n" +
		"stack bytecode (ISeq) and executes it on a single-threaded VM.",
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable development logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().IntVar(&maxLocals, "max-locals", 0, "reject programs whose top-level body uses more than this many local slots (0: unlimited)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns a development logger behind --verbose, a no-op
// logger otherwise, matching SPEC_FULL.md's ambient-logging contract for
// internal/vm and internal/codegen.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newGlobals returns a fresh Globals for a codegen+vm pipeline; it
// installs no native methods (newPipeline runs builtin.Bootstrap on it).
func newGlobals(log *zap.Logger) *globals.Globals {
	return globals.New(log)
}

func colorize(c *color.Color, format string, args ...interface{}) string {
	if noColor {
		return fmt.Sprintf(format, args...)
	}
	return c.Sprintf(format, args...)
}
