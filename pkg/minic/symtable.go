package minic

import "minic.dev/compiler/pkg/utils"

// SymbolTable assigns each distinct local-variable identifier a stable
// stack-frame offset, in order of first appearance. Built on
// utils.OrderedMap rather than a bare map so tests over slot assignment
// order stay deterministic.
type SymbolTable struct {
	offsets utils.OrderedMap[string, int]
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Offset returns the stack-frame offset for 'identifier', assigning the
// next free slot ({8, 16, 24, ...}) on first reference.
func (st *SymbolTable) Offset(identifier string) int {
	if offset, ok := st.offsets.Get(identifier); ok {
		return offset
	}
	offset := (st.offsets.Size() + 1) * 8
	st.offsets.Set(identifier, offset)
	return offset
}
