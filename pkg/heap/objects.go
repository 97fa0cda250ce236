package heap

// Objects is the three-heap aggregate of §3.2: metas, functions, packages.
// It is read-only after bytecode load aside from package member cells
// (§5); the tables themselves are never mutated after Load except to
// install lazily-resolved FFI signature metas, which still only ever
// Insert (append), never Remove, in normal operation.
type Objects struct {
	Metas     *Table[*Meta]
	Functions *Table[*Function]
	Packages  *Table[*Package]
}

func NewObjects() *Objects {
	return &Objects{
		Metas:     NewTable[*Meta](),
		Functions: NewTable[*Function](),
		Packages:  NewTable[*Package](),
	}
}
