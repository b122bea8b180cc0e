package compiler

import "github.com/xirelogy/go-hymn/internal/bytecode"

type Chunk = bytecode.Chunk
type LineInfo = bytecode.LineInfo
