// Package filter narrows request listings with expr-lang expressions.
//
// Expressions are evaluated against a Request and must yield a boolean.
// contains, startsWith and endsWith are expr operators and match case; the
// icontains, istartsWith and iendsWith functions ignore it:
//
//	Availability == "AVAILABLE" and icontains(Title, "dune")
//	lower(Title) contains "dune"
//	RequestedBy == "Alice" or daysSince(RequestDate) < 7
//	MediaType == "tv" and Season > 1
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultCacheSize is the number of compiled expressions a Compiler keeps.
const DefaultCacheSize = 64

// Request is the environment an expression sees for one result row.
type Request struct {
	Title         string
	MediaType     string
	Availability  string
	RequestStatus string
	RequestedBy   string
	RequestDate   string
	Season        int
	Is4k          bool
}

// Filter is a compiled expression.
type Filter struct {
	program *vm.Program
	expr    string
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Compiler compiles expressions and caches the results.
type Compiler struct {
	cache *lruCache
}

// NewCompiler returns a Compiler caching up to size programs.
func NewCompiler(size int) *Compiler {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Compiler{cache: newLRUCache(size)}
}

// Compile returns the compiled filter for expression.
func (c *Compiler) Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if f, ok := c.cache.Get(expression); ok {
		return f, nil
	}

	f, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	c.cache.Put(expression, f)
	return f, nil
}

// Compile compiles expression without caching.
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	opts := append([]expr.Option{expr.Env(Request{}), expr.AsBool()}, helpers()...)
	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Reason: err.Error(), Err: err}
	}

	return &Filter{program: program, expr: expression}, nil
}

// Match evaluates the filter against a request row.
func (f *Filter) Match(req Request) (bool, error) {
	out, err := expr.Run(f.program, req)
	if err != nil {
		return false, &EvaluationError{Expression: f.expr, Title: req.Title, Reason: err.Error(), Err: err}
	}
	matched, ok := out.(bool)
	if !ok {
		return false, &EvaluationError{Expression: f.expr, Title: req.Title, Reason: fmt.Sprintf("result is %T, not bool", out)}
	}
	return matched, nil
}

func helpers() []expr.Option {
	str2 := func(fn func(a, b string) bool) func(params ...any) (any, error) {
		return func(params ...any) (any, error) {
			return fn(params[0].(string), params[1].(string)), nil
		}
	}

	return []expr.Option{
		expr.Function("icontains", str2(func(s, sub string) bool {
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
		}), new(func(string, string) bool)),
		expr.Function("istartsWith", str2(func(s, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
		}), new(func(string, string) bool)),
		expr.Function("iendsWith", str2(func(s, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
		}), new(func(string, string) bool)),
		// daysSince returns -1 for dates that do not parse
		expr.Function("daysSince", func(params ...any) (any, error) {
			t, err := time.Parse(time.RFC3339, params[0].(string))
			if err != nil {
				return -1, nil
			}
			return int(time.Since(t).Hours() / 24), nil
		}, new(func(string) int)),
	}
}
