package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marble-lang/marble/internal/lexer"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive marble REPL",
	RunE: func(cmd *cobra.Command, args []string) error {
		runREPL()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// runREPL reads one logical program (possibly several physical lines,
// buffered until every opened block keyword has a matching `end`) per
// iteration and evaluates it with a fresh pipeline.compileAndRun call,
// mirroring smog's own buffer-until-complete REPL loop. Unlike smog's
// persistent compiler symbol table, marble's pipeline does not carry
// local-variable state between iterations: each line becomes its own
// top-level call frame with its own fresh locals, so a variable assigned
// on one REPL line is not visible on the next — a known, accepted
// simplification of smog's incremental-compilation REPL.
func runREPL() {
	fmt.Println(colorize(color.New(color.FgGreen, color.Bold), "marble REPL"))
	fmt.Println("Type :quit or :exit to leave.")

	p := newPipeline()
	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	depth := 0

	prompt := func() {
		if buf.Len() == 0 {
			fmt.Print(colorize(color.New(color.FgGreen), "marble> "))
		} else {
			fmt.Print(colorize(color.New(color.FgGreen), "....... "))
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		if buf.Len() == 0 {
			switch strings.TrimSpace(line) {
			case ":quit", ":exit":
				return
			case "":
				prompt()
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		depth += blockDelta(line)

		if depth > 0 {
			prompt()
			continue
		}

		input := buf.String()
		buf.Reset()
		depth = 0

		result, err := p.compileAndRun(input)
		if err != nil {
			fmt.Fprintln(os.Stderr, colorize(color.New(color.FgRed), "%v", err))
		} else {
			fmt.Println(colorize(color.New(color.FgCyan), "=> %s", result))
		}
		prompt()
	}
}

// blockDelta reports how many more block keywords (if/for/class/def)
// line opens than `end` tokens it closes, so the REPL can keep reading
// lines until every block is closed.
func blockDelta(line string) int {
	l := lexer.New(line)
	delta := 0
	for {
		tok := l.NextToken()
		if tok.Type == lexer.TokenEOF {
			break
		}
		switch tok.Type {
		case lexer.TokenIf, lexer.TokenFor, lexer.TokenClass, lexer.TokenDef:
			delta++
		case lexer.TokenEnd:
			delta--
		}
	}
	return delta
}
