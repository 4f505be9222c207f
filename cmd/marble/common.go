package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/builtin"
	"github.com/marble-lang/marble/internal/codegen"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/parser"
	"github.com/marble-lang/marble/internal/value"
	"github.com/marble-lang/marble/internal/vm"
)

// pipeline bundles the Globals/VM pair every subcommand needs; they must
// share one Globals instance since identifiers and class registrations
// minted by one are only meaningful to the other.
type pipeline struct {
	g  *globals.Globals
	vm *vm.VM
}

func newPipeline() *pipeline {
	log := newLogger()
	g := newGlobals(log)
	builtin.Bootstrap(g, log)
	return &pipeline{g: g, vm: vm.New(g, log)}
}

// parseSource parses src into the program body AST, reporting every
// accumulated syntax error through one wrapped error.
func (p *pipeline) parseSource(src string) (ast.Node, error) {
	prs := parser.New(src, p.g)
	body, err := prs.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}
	return body, nil
}

// compileAndRun parses, generates, and executes src, returning the
// inspected form of its resulting value.
func (p *pipeline) compileAndRun(src string) (string, error) {
	body, err := p.parseSource(src)
	if err != nil {
		return "", err
	}
	cg := codegen.New(p.g, newLogger())
	method, err := cg.GenProgram(body)
	if err != nil {
		return "", errors.Wrap(err, "compile error")
	}
	if maxLocals > 0 && method.Lvars > maxLocals {
		return "", fmt.Errorf("program uses %d local slots, exceeding --max-locals=%d", method.Lvars, maxLocals)
	}
	result, err := p.vm.Eval(method)
	if err != nil {
		return "", errors.Wrap(err, "runtime error")
	}
	return value.Inspect(result), nil
}
