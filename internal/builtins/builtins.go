// Package builtins links every built-in function into the runtime
// registry. Import it for side effects.
package builtins

import (
	_ "github.com/xirelogy/go-hymn/internal/builtins/length"
	_ "github.com/xirelogy/go-hymn/internal/builtins/tofloat"
	_ "github.com/xirelogy/go-hymn/internal/builtins/toint"
	_ "github.com/xirelogy/go-hymn/internal/builtins/tostring"
	_ "github.com/xirelogy/go-hymn/internal/builtins/typeof"
)
