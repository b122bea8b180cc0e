package value

import (
	"math"
	"sync"
	"testing"
)

func TestInternReturnsSameHandle(t *testing.T) {
	p := NewPool()
	a := p.Intern("hymn")
	b := p.Intern("hy" + "mn")
	if a != b {
		t.Fatalf("expected identical handles, got %p and %p", a, b)
	}
	c := p.Intern("other")
	if a == c {
		t.Fatalf("expected distinct handles for different text")
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 interned strings, got %d", p.Len())
	}
	if got, ok := p.Lookup("other"); !ok || got != c {
		t.Fatalf("lookup mismatch: %v %v", got, ok)
	}
	if _, ok := p.Lookup("missing"); ok {
		t.Fatalf("lookup must not intern")
	}
	if all := p.All(); len(all) != 2 || all[0] != "hymn" || all[1] != "other" {
		t.Fatalf("unexpected pool contents %v", all)
	}
}

func TestInternConcurrent(t *testing.T) {
	p := NewPool()
	var wg sync.WaitGroup
	handles := make([]*String, 16)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = p.Intern("shared")
		}(i)
	}
	wg.Wait()
	for i, h := range handles {
		if h != handles[0] {
			t.Fatalf("goroutine %d got a different handle", i)
		}
	}
	if p.Len() != 1 {
		t.Fatalf("expected one entry, got %d", p.Len())
	}
}

func TestEqualNoCoercion(t *testing.T) {
	p := NewPool()
	tests := []struct {
		a, b Value
		want bool
	}{
		{Nil(), Nil(), true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Integer(1), Integer(1), true},
		{Integer(1), Float(1), false},
		{Float(2.5), Float(2.5), true},
		{FromString(p.Intern("a")), FromString(p.Intern("a")), true},
		{FromString(p.Intern("a")), FromString(p.Intern("b")), false},
		{Nil(), Bool(false), false},
		{Integer(0), Bool(false), false},
	}
	for i, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Fatalf("case %d: Equal(%v, %v) = %v, want %v", i, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	p := NewPool()
	falsey := []Value{Nil(), Bool(false), Integer(0), Float(0), FromString(p.Intern(""))}
	for _, v := range falsey {
		if Truthy(v) {
			t.Fatalf("expected %s %v to be falsey", TypeName(v), v)
		}
	}
	truthy := []Value{Bool(true), Integer(-1), Float(0.5), FromString(p.Intern("x"))}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Fatalf("expected %s %v to be truthy", TypeName(v), v)
		}
	}
}

func TestFormatting(t *testing.T) {
	p := NewPool()
	tests := []struct {
		v    Value
		want string
	}{
		{Nil(), "none"},
		{Bool(true), "true"},
		{Integer(-42), "-42"},
		{Float(3), "3.0"},
		{Float(2.5), "2.5"},
		{Float(1e21), "1e+21"},
		{Float(math.Inf(1)), "inf"},
		{FromString(p.Intern("hi")), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
	if got := Quote(FromString(p.Intern("a\"b"))); got != `"a\"b"` {
		t.Fatalf("unexpected quote %s", got)
	}
}

func TestTypeNames(t *testing.T) {
	tests := map[string]Value{
		"none":    Nil(),
		"bool":    Bool(false),
		"integer": Integer(1),
		"float":   Float(1),
		"string":  FromString(NewPool().Intern("s")),
	}
	for want, v := range tests {
		if got := TypeName(v); got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
	if FromString(nil).Kind != KindNil {
		t.Fatalf("nil handle must produce Nil")
	}
}
