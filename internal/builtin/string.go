package builtin

import (
	"strings"

	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
)

// installString registers String's instance methods (spec.md §4.8's
// representative contract): +, *, %, start_with?, to_sym/intern, split,
// sub, gsub, scan, =~, tr, size, bytes, chars, sum, upcase.
func installString(g *globals.Globals) {
	c := g.Builtins.String
	register(g, c, "+", stringPlus)
	register(g, c, "*", stringTimes)
	register(g, c, "%", stringRem)
	register(g, c, "start_with?", stringStartWith)
	register(g, c, "to_sym", stringToSym)
	register(g, c, "intern", stringToSym)
	register(g, c, "split", stringSplit)
	register(g, c, "sub", stringSub)
	register(g, c, "gsub", stringGsub)
	register(g, c, "scan", stringScan)
	register(g, c, "=~", stringMatch)
	register(g, c, "tr", stringTr)
	register(g, c, "size", stringSize)
	register(g, c, "length", stringSize)
	register(g, c, "bytes", stringBytes)
	register(g, c, "chars", stringChars)
	register(g, c, "sum", stringSum)
	register(g, c, "upcase", stringUpcase)
	register(g, c, "to_s", stringToS)
}

func asString(vmCtx interface{}, v value.Value, method string) (*value.HeapString, error) {
	h, ok := v.AsHeap()
	if !ok {
		return nil, typeErr(vmCtx, method, "String")
	}
	s, ok := h.(*value.HeapString)
	if !ok {
		return nil, typeErr(vmCtx, method, "String")
	}
	return s, nil
}

func stringToS(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asString(vmCtx, self, "to_s"); err != nil {
		return value.Nil, err
	}
	return self, nil
}

func stringPlus(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	lhs, err := asString(vmCtx, self, "+")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "+", 1, len(args))
	}
	rhs, err := asString(vmCtx, args[0], "+")
	if err != nil {
		return value.Nil, err
	}
	return value.Heap(value.NewString(lhs.Str() + rhs.Str())), nil
}

func stringTimes(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "*")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "*", 1, len(args))
	}
	n, ok := args[0].AsFixnum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "*", "Integer argument")
	}
	if n < 0 {
		return value.Nil, vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "negative argument")
	}
	return value.Heap(value.NewString(strings.Repeat(s.Str(), int(n)))), nil
}

// stringRem implements `%`, preserved bug-for-bug from ruruby's
// string_rem (src/builtin/string.rs): it walks self's characters, and
// every `%` directive (an optional `0` flag followed by decimal-digit
// width) is parsed and silently discarded — including the character
// immediately following the digits, which ruruby's loop structure falls
// through and appends as if it were ordinary literal text, rather than
// substituting it with a converted argument. `%%` still collapses to a
// literal `%`. Arguments are arity-checked but never otherwise consulted,
// matching the original's unused `_arguments` binding.
func stringRem(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "%")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "%", 1, len(args))
	}

	runes := []rune(s.Str())
	var out []rune
	i := 0
	for i < len(runes) {
		ch := runes[i]
		if ch != '%' {
			out = append(out, ch)
			i++
			continue
		}
		i++
		if i >= len(runes) {
			return value.Nil, vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "incomplete format specifier. use '%%' instead.")
		}
		if runes[i] == '%' {
			out = append(out, '%')
			i++
			continue
		}
		ch = runes[i]
		if ch == '0' {
			i++
			if i >= len(runes) {
				return value.Nil, vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "invalid format character")
			}
			ch = runes[i]
		}
		for ch >= '0' && ch <= '9' {
			i++
			if i >= len(runes) {
				return value.Nil, vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "invalid format character")
			}
			ch = runes[i]
		}
		// ch is the directive's conversion character: no argument is
		// substituted for it; it is appended as literal text and skipped.
		out = append(out, ch)
		i++
	}
	return value.Heap(value.NewString(string(out))), nil
}

func stringStartWith(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "start_with?")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "start_with?", 1, len(args))
	}
	prefix, err := asString(vmCtx, args[0], "start_with?")
	if err != nil {
		return value.Nil, err
	}
	return value.Bool(strings.HasPrefix(s.Str(), prefix.Str())), nil
}

func stringToSym(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "to_sym")
	if err != nil {
		return value.Nil, err
	}
	id := vmOf(vmCtx).Globals().Intern(s.Str())
	return value.Symbol(uint32(id)), nil
}

// stringSplit implements spec.md §4.8's split-limit semantics:
// limit == 1 returns the whole string as the only element; limit < 0
// splits without trailing-empty removal; limit == 0 splits and strips
// all trailing empty fields; limit > 0 yields at most that many fields.
func stringSplit(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "split")
	if err != nil {
		return value.Nil, err
	}
	if len(args) < 1 || len(args) > 2 {
		return value.Nil, argErr(vmCtx, "split", 1, len(args))
	}
	sep, err := asString(vmCtx, args[0], "split")
	if err != nil {
		return value.Nil, err
	}
	limit := 0
	if len(args) == 2 {
		n, ok := args[1].AsFixnum()
		if !ok {
			return value.Nil, typeErr(vmCtx, "split", "Integer limit")
		}
		limit = int(n)
	}

	if limit == 1 {
		return value.Heap(value.NewArray([]value.Value{value.Heap(value.NewString(s.Str()))})), nil
	}

	var parts []string
	if sep.Str() == "" {
		for _, r := range s.Str() {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s.Str(), sep.Str())
	}

	if limit > 1 && len(parts) > limit {
		head := parts[:limit-1]
		rest := strings.Join(parts[limit-1:], sep.Str())
		parts = append(append([]string{}, head...), rest)
	}

	if limit <= 0 {
		// limit == 0: strip all trailing empty fields. limit < 0: keep
		// them, matching spec.md §4.8's split-limit table.
		if limit == 0 {
			for len(parts) > 0 && parts[len(parts)-1] == "" {
				parts = parts[:len(parts)-1]
			}
		}
	}

	elems := make([]value.Value, len(parts))
	for i, p := range parts {
		elems[i] = value.Heap(value.NewString(p))
	}
	return value.Heap(value.NewArray(elems)), nil
}

func stringSub(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	return stringSubImpl(vmCtx, self, args, "sub", false)
}

func stringGsub(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	return stringSubImpl(vmCtx, self, args, "gsub", true)
}

func stringSubImpl(vmCtx interface{}, self value.Value, args []value.Value, method string, global bool) (value.Value, error) {
	s, err := asString(vmCtx, self, method)
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 2 {
		return value.Nil, argErr(vmCtx, method, 2, len(args))
	}
	re, err := compilePattern(vmCtx, args[0], method)
	if err != nil {
		return value.Nil, err
	}
	repl, err := asString(vmCtx, args[1], method)
	if err != nil {
		return value.Nil, err
	}
	goRepl := strings.ReplaceAll(repl.Str(), "$", "$$")
	var out string
	if global {
		out = re.ReplaceAllString(s.Str(), goRepl)
	} else {
		loc := re.FindStringIndex(s.Str())
		if loc == nil {
			out = s.Str()
		} else {
			out = s.Str()[:loc[0]] + re.ReplaceAllString(s.Str()[loc[0]:loc[1]], goRepl) + s.Str()[loc[1]:]
		}
	}
	return value.Heap(value.NewString(out)), nil
}

func stringScan(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "scan")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "scan", 1, len(args))
	}
	re, err := compilePattern(vmCtx, args[0], "scan")
	if err != nil {
		return value.Nil, err
	}
	matches := re.FindAllString(s.Str(), -1)
	elems := make([]value.Value, len(matches))
	for i, m := range matches {
		elems[i] = value.Heap(value.NewString(m))
	}
	return value.Heap(value.NewArray(elems)), nil
}

func stringMatch(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "=~")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "=~", 1, len(args))
	}
	re, err := compilePattern(vmCtx, args[0], "=~")
	if err != nil {
		return value.Nil, err
	}
	loc := re.FindStringIndex(s.Str())
	if loc == nil {
		return value.Nil, nil
	}
	return value.Fixnum(int64(loc[0])), nil
}

// stringTr implements a simplified `tr(from, to)`: characters of self
// found in from are replaced by the character at the same position in to
// (the last character of to repeats if to is shorter).
func stringTr(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "tr")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 2 {
		return value.Nil, argErr(vmCtx, "tr", 2, len(args))
	}
	from, err := asString(vmCtx, args[0], "tr")
	if err != nil {
		return value.Nil, err
	}
	to, err := asString(vmCtx, args[1], "tr")
	if err != nil {
		return value.Nil, err
	}
	fromRunes := []rune(from.Str())
	toRunes := []rune(to.Str())
	table := make(map[rune]rune, len(fromRunes))
	for i, r := range fromRunes {
		if len(toRunes) == 0 {
			continue
		}
		if i < len(toRunes) {
			table[r] = toRunes[i]
		} else {
			table[r] = toRunes[len(toRunes)-1]
		}
	}
	out := make([]rune, 0, len(s.Str()))
	for _, r := range s.Str() {
		if repl, ok := table[r]; ok {
			out = append(out, repl)
		} else {
			out = append(out, r)
		}
	}
	return value.Heap(value.NewString(string(out))), nil
}

func stringSize(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "size")
	if err != nil {
		return value.Nil, err
	}
	return value.Fixnum(int64(len([]rune(s.Str())))), nil
}

func stringBytes(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "bytes")
	if err != nil {
		return value.Nil, err
	}
	raw := s.Bytes()
	elems := make([]value.Value, len(raw))
	for i, b := range raw {
		elems[i] = value.Fixnum(int64(b))
	}
	return value.Heap(value.NewArray(elems)), nil
}

func stringChars(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "chars")
	if err != nil {
		return value.Nil, err
	}
	runes := []rune(s.Str())
	elems := make([]value.Value, len(runes))
	for i, r := range runes {
		elems[i] = value.Heap(value.NewString(string(r)))
	}
	return value.Heap(value.NewArray(elems)), nil
}

// stringSum sums self's raw bytes modulo 2^16 (spec.md §4.8).
func stringSum(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "sum")
	if err != nil {
		return value.Nil, err
	}
	var total int64
	for _, b := range s.Bytes() {
		total += int64(b)
	}
	return value.Fixnum(total % (1 << 16)), nil
}

func stringUpcase(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	s, err := asString(vmCtx, self, "upcase")
	if err != nil {
		return value.Nil, err
	}
	return value.Heap(value.NewString(strings.ToUpper(s.Str()))), nil
}
