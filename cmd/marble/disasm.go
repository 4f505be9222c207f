package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/marble-lang/marble/internal/codegen"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Compile a marble source file and print its generated ISeq",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		p := newPipeline()
		body, err := p.parseSource(string(data))
		if err != nil {
			fmt.Fprintln(os.Stderr, colorize(color.New(color.FgRed), "%v", err))
			os.Exit(1)
		}
		cg := codegen.New(p.g, newLogger())
		method, err := cg.GenProgram(body)
		if err != nil {
			fmt.Fprintln(os.Stderr, colorize(color.New(color.FgRed), "%v", errors.Wrap(err, "compile error")))
			os.Exit(1)
		}
		fmt.Println(colorize(color.New(color.FgYellow), "%s", method.ISeq.Disassemble()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}
