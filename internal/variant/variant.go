package variant

import "fmt"

// Variant is one test configuration tag. The integer value is the variant's
// priority and is used only for ordering.
type Variant int

const (
	Std Variant = iota + 1
	Thread
	MPI
	Decomp
	Restart
	Bit32
	Debug
)

var names = map[Variant]string{
	Std:     "std",
	Thread:  "thread",
	MPI:     "mpi",
	Decomp:  "decomp",
	Restart: "restart",
	Bit32:   "32bit",
	Debug:   "debug",
}

// RunVocabulary lists every run variant in priority order.
var RunVocabulary = []Variant{Std, Thread, MPI, Decomp, Restart, Bit32, Debug}

// CompileVocabulary lists the variants that need a build of their own.
var CompileVocabulary = []Variant{Std, Bit32, Debug}

// String returns the variant tag as typed on the command line.
func (v Variant) String() string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Priority returns the ordering weight of the variant.
func (v Variant) Priority() int {
	return int(v)
}

// Valid reports whether v is a member of the run vocabulary.
func (v Variant) Valid() bool {
	_, ok := names[v]
	return ok
}

// RequiredCompile returns the compile-case whose executable the variant runs.
// Only 32bit and debug change the build; everything else reuses std.
func (v Variant) RequiredCompile() Variant {
	switch v {
	case Bit32, Debug:
		return v
	default:
		return Std
	}
}

// ComparisonName is the tag of the baseline artifacts a run of v is compared
// against.
func (v Variant) ComparisonName() string {
	return v.RequiredCompile().String()
}

// IsCompileCase reports whether v is in the compile vocabulary.
func (v Variant) IsCompileCase() bool {
	return v.RequiredCompile() == v
}

// Lookup resolves a tag to its Variant. Matching is literal.
func Lookup(tag string) (Variant, bool) {
	for v, name := range names {
		if name == tag {
			return v, true
		}
	}
	return 0, false
}
