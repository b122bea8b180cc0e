package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	hymn "github.com/xirelogy/go-hymn"
)

// Result represents the outcome of running a single case
type Result struct {
	Case       LoadedCase
	Passed     bool
	Skipped    bool
	SkipReason string
	Err        error
}

// Runner executes conformance cases, each in a fresh session.
type Runner struct {
	cfg *hymn.Config
}

// NewRunner creates a runner using the default session settings.
func NewRunner() *Runner {
	return &Runner{}
}

// NewRunnerWithConfig creates a runner whose sessions use cfg.
func NewRunnerWithConfig(cfg *hymn.Config) *Runner {
	return &Runner{cfg: cfg}
}

var faultNames = map[string]error{
	"stack_underflow":   hymn.ErrStackUnderflow,
	"stack_overflow":    hymn.ErrStackOverflow,
	"type_mismatch":     hymn.ErrTypeMismatch,
	"undefined_global":  hymn.ErrUndefinedGlobal,
	"integer_overflow":  hymn.ErrIntegerOverflow,
	"division_by_zero":  hymn.ErrDivisionByZero,
	"negative_shift":    hymn.ErrNegativeShift,
	"instruction_limit": hymn.ErrInstructionLimit,
	"invalid_bytecode":  hymn.ErrInvalidBytecode,
}

// Run executes a single case
func (r *Runner) Run(lc LoadedCase) Result {
	if skipped, reason := lc.Case.IsSkipped(); skipped {
		return Result{Case: lc, Skipped: true, SkipReason: reason}
	}
	fail := func(err error) Result {
		return Result{Case: lc, Err: err}
	}

	var out bytes.Buffer
	opts := []hymn.Option{hymn.WithOutput(&out)}
	if r.cfg != nil {
		opts = append(opts, hymn.WithConfig(r.cfg))
	}
	s, err := hymn.NewSession(opts...)
	if err != nil {
		return fail(err)
	}

	if lc.Suite != nil && lc.Suite.Setup != "" {
		if err := s.CompileAndRun(lc.Suite.Setup); err != nil {
			return fail(fmt.Errorf("suite setup failed: %w", err))
		}
	}

	sources := lc.Case.Sources()
	if len(sources) == 0 {
		return Result{Case: lc, Skipped: true, SkipReason: "no code/inputs"}
	}
	last := len(sources) - 1
	for i, src := range sources[:last] {
		if err := s.CompileAndRun(src); err != nil {
			return fail(fmt.Errorf("input %d failed: %w", i+1, err))
		}
	}
	err = s.CompileAndRun(sources[last])

	if err := check(lc.Case.Expect, s, out.String(), err); err != nil {
		return fail(err)
	}
	return Result{Case: lc, Passed: true}
}

// RunAll executes all loaded cases
func (r *Runner) RunAll(cases []LoadedCase) []Result {
	results := make([]Result, len(cases))
	for i, lc := range cases {
		results[i] = r.Run(lc)
	}
	return results
}

// Stats summarizes a set of results.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from results
func ComputeStats(results []Result) Stats {
	stats := Stats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			stats.Skipped++
		case r.Passed:
			stats.Passed++
		default:
			stats.Failed++
		}
	}
	return stats
}

func (s Stats) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)", s.Passed, s.Failed, s.Skipped, s.Total)
}

func hasExpectation(exp Expectation) bool {
	return exp.Value != nil || exp.Type != "" || exp.Empty || exp.Output != nil ||
		exp.Compile || exp.Fault != "" || exp.Message != "" || len(exp.Globals) > 0
}

// check compares the outcome of the last input against exp.
func check(exp Expectation, s *hymn.Session, out string, runErr error) error {
	if !hasExpectation(exp) {
		return errors.New("no expectation specified")
	}

	switch {
	case exp.Compile:
		var diag *hymn.Diagnostic
		if !errors.As(runErr, &diag) {
			return fmt.Errorf("expected compile error, got %v", runErr)
		}
	case exp.Fault != "":
		cause, ok := faultNames[exp.Fault]
		if !ok {
			return fmt.Errorf("unknown fault class: %s", exp.Fault)
		}
		var fault *hymn.RuntimeFault
		if !errors.As(runErr, &fault) {
			return fmt.Errorf("expected fault %s, got %v", exp.Fault, runErr)
		}
		if !errors.Is(runErr, cause) {
			return fmt.Errorf("expected fault %s, got %v", exp.Fault, fault.Cause)
		}
	case runErr != nil && exp.Message == "":
		return fmt.Errorf("unexpected error: %w", runErr)
	}

	if exp.Message != "" {
		if runErr == nil {
			return fmt.Errorf("expected error %q, got success", exp.Message)
		}
		if runErr.Error() != exp.Message {
			return fmt.Errorf("expected error %q, got %q", exp.Message, runErr.Error())
		}
	}

	if exp.Output != nil && out != *exp.Output {
		return fmt.Errorf("expected output %q, got %q", *exp.Output, out)
	}
	for _, name := range exp.Globals {
		if _, ok := s.Global(name); !ok {
			return fmt.Errorf("expected global %s to be bound", name)
		}
	}

	res, ok := s.Result()
	if exp.Empty && ok {
		return fmt.Errorf("expected empty stack, got %s", res)
	}
	if exp.Type == "" && exp.Value == nil {
		return nil
	}
	if !ok {
		return errors.New("expected a result, stack is empty")
	}
	if exp.Type != "" && res.Kind().String() != exp.Type {
		return fmt.Errorf("expected type %s, got %s", exp.Type, res.Kind())
	}
	if exp.Value != nil {
		return matchValue(exp.Value, res)
	}
	return nil
}

// matchValue compares a decoded YAML scalar with a result. Kinds must
// agree: an integer expectation never matches a float.
func matchValue(want interface{}, got hymn.Value) error {
	matched := false
	switch w := want.(type) {
	case int:
		n, ok := got.Integer()
		matched = ok && n == int64(w)
	case int64:
		n, ok := got.Integer()
		matched = ok && n == w
	case float64:
		f, ok := got.Float()
		matched = ok && (f == w || (math.IsNaN(f) && math.IsNaN(w)))
	case string:
		text, ok := got.Text()
		matched = ok && text == w
	case bool:
		b, ok := got.Bool()
		matched = ok && b == w
	default:
		return fmt.Errorf("unsupported expected value %v (%T)", want, want)
	}
	if !matched {
		return fmt.Errorf("expected %v, got %s %s", want, got.TypeName(), got)
	}
	return nil
}
