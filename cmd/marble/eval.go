package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expr>",
	Short: "Evaluate an inline marble expression and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()
		result, err := p.compileAndRun(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, colorize(color.New(color.FgRed), "%v", err))
			os.Exit(1)
		}
		fmt.Println(colorize(color.New(color.FgCyan), "%s", result))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}
