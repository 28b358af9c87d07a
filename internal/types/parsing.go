package types

// Symbol represents a declaration found while parsing submitted code.
type Symbol struct {
	Name      string // The declared name
	Kind      string // function, class, method, type...
	StartLine int    // 1-based first line of the declaration
	EndLine   int    // 1-based last line of the declaration
}
