package hymn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-hymn/internal/bytecode"
	"github.com/xirelogy/go-hymn/internal/compiler"
	"github.com/xirelogy/go-hymn/internal/config"
	"github.com/xirelogy/go-hymn/internal/lexer"
	"github.com/xirelogy/go-hymn/internal/runtime"
	"github.com/xirelogy/go-hymn/internal/token"
	"github.com/xirelogy/go-hymn/internal/value"
	"github.com/xirelogy/go-hymn/internal/vm"
)

// ErrBusy is returned when a session is used while a run is in flight.
var ErrBusy = errors.New("session is busy")

// Runtime fault classes, matched with errors.Is against a *RuntimeFault.
var (
	ErrStackUnderflow   = vm.ErrStackUnderflow
	ErrStackOverflow    = vm.ErrStackOverflow
	ErrTypeMismatch     = vm.ErrTypeMismatch
	ErrUndefinedGlobal  = vm.ErrUndefinedGlobal
	ErrIntegerOverflow  = vm.ErrIntegerOverflow
	ErrDivisionByZero   = vm.ErrDivisionByZero
	ErrNegativeShift    = vm.ErrNegativeShift
	ErrInstructionLimit = vm.ErrInstructionLimit
	ErrInvalidBytecode  = vm.ErrInvalidBytecode
)

func log() commonlog.Logger {
	return commonlog.GetLogger("hymn.session")
}

// ValueKind mirrors the hymn runtime kinds for convenient inspection.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueBool
	ValueInteger
	ValueFloat
	ValueString
)

func (k ValueKind) String() string {
	switch k {
	case ValueBool:
		return "bool"
	case ValueInteger:
		return "integer"
	case ValueFloat:
		return "float"
	case ValueString:
		return "string"
	default:
		return "none"
	}
}

// Value is a read-only view of a hymn runtime value.
type Value struct {
	v value.Value
}

// Kind returns the runtime kind.
func (v Value) Kind() ValueKind {
	switch v.v.Kind {
	case value.KindBool:
		return ValueBool
	case value.KindInteger:
		return ValueInteger
	case value.KindFloat:
		return ValueFloat
	case value.KindString:
		return ValueString
	default:
		return ValueNone
	}
}

// IsNone reports whether the value is none.
func (v Value) IsNone() bool { return v.v.IsNil() }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	if v.v.Kind != value.KindBool {
		return false, false
	}
	return v.v.B, true
}

// Integer returns the integer payload.
func (v Value) Integer() (int64, bool) {
	if v.v.Kind != value.KindInteger {
		return 0, false
	}
	return v.v.I, true
}

// Float returns the float payload. Integers are not converted; use Number.
func (v Value) Float() (float64, bool) {
	if v.v.Kind != value.KindFloat {
		return 0, false
	}
	return v.v.F, true
}

// Number returns integers and floats as float64.
func (v Value) Number() (float64, bool) {
	return v.v.AsFloat()
}

// Text returns the string payload.
func (v Value) Text() (string, bool) {
	if v.v.Kind != value.KindString {
		return "", false
	}
	return v.v.S.Text(), true
}

// TypeName returns the name the type builtin reports.
func (v Value) TypeName() string {
	return value.TypeName(v.v)
}

// String formats the value the way print does.
func (v Value) String() string {
	return v.v.String()
}

// Equal applies hymn equality: no coercion between kinds, and strings
// compare by content.
func (v Value) Equal(other Value) bool {
	if v.v.Kind == value.KindString && other.v.Kind == value.KindString {
		return v.v.S.Text() == other.v.S.Text()
	}
	return value.Equal(v.v, other.v)
}

// Diagnostic is a compile error. Nothing from the failing source is
// executed.
type Diagnostic struct {
	Script  string
	Row     int
	Column  int
	Lexeme  string
	AtEnd   bool
	Message string
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("[Line %d:%d] Error", d.Row, d.Column)
	switch {
	case d.AtEnd:
		msg += " at end"
	case d.Lexeme != "":
		msg += fmt.Sprintf(" at '%s'", d.Lexeme)
	}
	msg += ": " + d.Message
	if d.Script != "" {
		msg = d.Script + ": " + msg
	}
	return msg
}

// RuntimeFault is an execution error positioned at the faulting
// instruction.
type RuntimeFault struct {
	Script  string
	Row     int
	Column  int
	IP      int
	Op      string
	Message string
	Cause   error
}

func (e *RuntimeFault) Error() string {
	msg := "Runtime error: " + e.Message
	if e.Row > 0 {
		msg = fmt.Sprintf("[Line %d:%d] %s", e.Row, e.Column, msg)
	}
	if e.Script != "" {
		msg = e.Script + ": " + msg
	}
	return msg
}

// Unwrap exposes the underlying cause (if any) for errors.Is/As.
func (e *RuntimeFault) Unwrap() error {
	return e.Cause
}

func convertDiagnostic(err error) error {
	var d *compiler.Diagnostic
	if !errors.As(err, &d) {
		return err
	}
	return &Diagnostic{
		Script:  d.Script,
		Row:     d.Row,
		Column:  d.Column,
		Lexeme:  d.Lexeme,
		AtEnd:   d.AtEnd,
		Message: d.Message,
	}
}

func convertRuntimeFault(err error) error {
	if err == nil {
		return nil
	}
	var f *vm.RuntimeFault
	if !errors.As(err, &f) {
		return err
	}
	return &RuntimeFault{
		Script:  f.Script,
		Row:     f.Row,
		Column:  f.Column,
		IP:      f.IP,
		Op:      bytecode.Name(f.Op),
		Message: f.Message,
		Cause:   f.Cause,
	}
}

// TraceInfo captures execution steps for debug hooks.
type TraceInfo struct {
	Op     string
	Script string
	Row    int
	Column int
	IP     int
	Depth  int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// StringPool is an intern table that several sessions may share.
type StringPool struct {
	p *value.Pool
}

// NewStringPool creates an empty pool.
func NewStringPool() *StringPool {
	return &StringPool{p: value.NewPool()}
}

// Len returns the number of distinct strings interned so far.
func (sp *StringPool) Len() int {
	return sp.p.Len()
}

// Builtin describes a callable builtin function.
type Builtin struct {
	Name  string
	Arity int
}

// Builtins lists the builtin functions scripts may call.
func Builtins() []Builtin {
	specs := runtime.All()
	out := make([]Builtin, len(specs))
	for i, spec := range specs {
		out[i] = Builtin{Name: spec.Name, Arity: spec.Arity}
	}
	return out
}

// Config is the session configuration read from hymn.toml or YAML.
type Config = config.Config

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a TOML or YAML config file, chosen by extension.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

type sessionOptions struct {
	cfg  *config.Config
	out  io.Writer
	hook TraceHook
	pool *StringPool
}

// Option customizes NewSession.
type Option func(*sessionOptions)

// WithConfig applies session settings loaded from hymn.toml or YAML.
func WithConfig(cfg *config.Config) Option {
	return func(o *sessionOptions) { o.cfg = cfg }
}

// WithOutput redirects the print statement (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(o *sessionOptions) { o.out = w }
}

// WithTraceHook attaches an instruction trace hook.
func WithTraceHook(h TraceHook) Option {
	return func(o *sessionOptions) { o.hook = h }
}

// WithStringPool makes the session intern into a shared pool.
func WithStringPool(p *StringPool) Option {
	return func(o *sessionOptions) { o.pool = p }
}

// Session compiles and runs hymn source against one persistent set of
// globals. A session runs one program at a time.
type Session struct {
	core     *vm.VM
	pool     *value.Pool
	cfg      *config.Config
	script   string
	userHook TraceHook
	mu       sync.Mutex
	busy     bool
}

// NewSession constructs a session with an empty globals table.
func NewSession(opts ...Option) (*Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	pool := value.NewPool()
	if o.pool != nil {
		pool = o.pool.p
	}

	s := &Session{
		core:   vm.New(pool),
		pool:   pool,
		cfg:    cfg,
		script: cfg.Session.Script,
	}
	s.core.SetMaxStack(cfg.Session.MaxStack)
	s.core.SetInstructionLimit(cfg.Session.InstructionLimit)
	if o.out != nil {
		s.core.SetOutput(o.out)
	}
	s.SetTraceHook(o.hook)
	return s, nil
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// idle runs fn unless a program is in flight.
func (s *Session) idle(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	fn()
	return true
}

// Fork returns a new session with a copy of the globals and its own
// stack. The intern pool is shared.
func (s *Session) Fork() (*Session, error) {
	if s == nil || s.core == nil {
		return nil, errors.New("nil session")
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	core := s.core.Duplicate()
	if core == nil {
		return nil, errors.New("session fork failed")
	}
	return &Session{
		core:     core,
		pool:     s.pool,
		cfg:      s.cfg,
		script:   s.script,
		userHook: s.userHook,
	}, nil
}

// SetScriptName names the source in diagnostics and faults.
func (s *Session) SetScriptName(name string) {
	s.idle(func() { s.script = name })
}

// SetInstructionLimit caps the instructions a single run may execute (0 for unlimited).
func (s *Session) SetInstructionLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	s.idle(func() { s.core.SetInstructionLimit(limit) })
}

// SetTraceHook attaches a debug hook that observes instruction dispatch.
// When the config enables tracing, each instruction is also logged.
func (s *Session) SetTraceHook(h TraceHook) {
	logTrace := s.cfg.Session.Trace
	s.idle(func() {
		s.userHook = h
		if h == nil && !logTrace {
			s.core.SetTraceHook(nil)
			return
		}
		s.core.SetTraceHook(func(info vm.TraceInfo) {
			if logTrace {
				log().Debugf("%04d %-16s %d:%d depth=%d", info.IP, info.Name, info.Row, info.Column, info.Depth)
			}
			if h != nil {
				h(TraceInfo{
					Op:     info.Name,
					Script: info.Script,
					Row:    info.Row,
					Column: info.Column,
					IP:     info.IP,
					Depth:  info.Depth,
				})
			}
		})
	})
}

func (s *Session) compile(source string) (*compiler.Chunk, error) {
	chunk, err := compiler.Compile(s.script, source, s.pool)
	if err != nil {
		return nil, convertDiagnostic(err)
	}
	return chunk, nil
}

func (s *Session) run(source string) error {
	chunk, err := s.compile(source)
	if err != nil {
		log().Debugf("compile failed: %s", err)
		return err
	}
	return convertRuntimeFault(s.core.Execute(chunk))
}

// CompileAndRun compiles source and executes it. A compile error
// returns a *Diagnostic and executes nothing; an execution error returns
// a *RuntimeFault. Globals bound before a fault stay bound.
func (s *Session) CompileAndRun(source string) error {
	if s == nil || s.core == nil {
		return errors.New("nil session")
	}
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()
	return s.run(source)
}

// CompileAndDisassemble compiles source without running it and returns
// the bytecode listing.
func (s *Session) CompileAndDisassemble(source string) (string, error) {
	if s == nil || s.core == nil {
		return "", errors.New("nil session")
	}
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	chunk, err := s.compile(source)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := bytecode.NewDisassembler(&b).Disassemble(chunk); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RunFuture represents an in-flight run.
type RunFuture struct {
	ch <-chan RunResult
}

// RunResult is the outcome of an asynchronous run.
type RunResult struct {
	Value Value
	Ok    bool
	Err   error
}

// Await waits for completion or context cancellation. The returned
// bool reports whether the run left a result on the stack.
func (f RunFuture) Await(ctx context.Context) (Value, bool, error) {
	select {
	case <-ctx.Done():
		return Value{}, false, ctx.Err()
	case res := <-f.ch:
		return res.Value, res.Ok, res.Err
	}
}

// CompileAndRunAsync runs source on a separate goroutine. The session
// counts as busy until the run completes.
func (s *Session) CompileAndRunAsync(ctx context.Context, source string) RunFuture {
	ch := make(chan RunResult, 1)
	if err := s.acquire(); err != nil {
		ch <- RunResult{Err: err}
		close(ch)
		return RunFuture{ch: ch}
	}

	go func() {
		defer close(ch)
		defer s.release()
		select {
		case <-ctx.Done():
			ch <- RunResult{Err: ctx.Err()}
			return
		default:
		}
		if err := s.run(source); err != nil {
			ch <- RunResult{Err: err}
			return
		}
		res, ok := s.top()
		ch <- RunResult{Value: res, Ok: ok}
	}()
	return RunFuture{ch: ch}
}

func (s *Session) top() (Value, bool) {
	stack := s.core.Stack()
	if len(stack) == 0 {
		return Value{}, false
	}
	return Value{v: stack[len(stack)-1]}, true
}

// Stack returns the values left by the last run, bottom first. It is
// empty while a run is in flight.
func (s *Session) Stack() []Value {
	var out []Value
	s.idle(func() {
		stack := s.core.Stack()
		out = make([]Value, len(stack))
		for i, v := range stack {
			out[i] = Value{v: v}
		}
	})
	return out
}

// Result returns the top of the stack left by the last run.
func (s *Session) Result() (Value, bool) {
	var (
		res Value
		ok  bool
	)
	s.idle(func() { res, ok = s.top() })
	return res, ok
}

// Global returns the value bound to name.
func (s *Session) Global(name string) (Value, bool) {
	var (
		res Value
		ok  bool
	)
	s.idle(func() {
		var v value.Value
		v, ok = s.core.Global(name)
		res = Value{v: v}
	})
	return res, ok
}

// Globals returns the bound global names in sorted order.
func (s *Session) Globals() []string {
	var names []string
	s.idle(func() { names = s.core.GlobalNames() })
	return names
}

// Strings returns the number of distinct strings in the intern pool.
func (s *Session) Strings() int {
	return s.pool.Len()
}

// SetGlobal binds a Go value to a global name. Supported inputs are nil,
// booleans, signed and unsigned integers within int64 range, floats,
// strings, and Value.
func (s *Session) SetGlobal(name string, val any) error {
	if !isIdentifier(name) {
		return fmt.Errorf("invalid global name %q", name)
	}
	v, err := s.marshal(val)
	if err != nil {
		return err
	}
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()
	s.core.DefineGlobal(name, v)
	return nil
}

func isIdentifier(name string) bool {
	lex := lexer.New(name)
	tok := lex.NextToken()
	return tok.Type == token.Ident && tok.Literal == name && lex.NextToken().Type == token.EOF
}

// marshal converts common Go types into a runtime value interned in
// this session's pool.
func (s *Session) marshal(val any) (value.Value, error) {
	switch v := val.(type) {
	case nil:
		return value.Nil(), nil
	case Value:
		if v.v.Kind == value.KindString {
			return value.FromString(s.pool.Intern(v.v.S.Text())), nil
		}
		return v.v, nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.FromString(s.pool.Intern(v)), nil
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Bool:
		return value.Bool(rv.Bool()), nil
	case reflect.String:
		return value.FromString(s.pool.Intern(rv.String())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Integer(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return value.Value{}, fmt.Errorf("integer %d out of range", u)
		}
		return value.Integer(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return value.Float(rv.Float()), nil
	}
	return value.Value{}, fmt.Errorf("cannot marshal %T into a hymn value", val)
}
