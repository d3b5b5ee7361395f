// Package executor resolves interpreter binaries for the supported
// executor categories.
package executor

import "fmt"

// Category is the interpreter family a script runs under.
type Category string

const (
	Python     Category = "python"
	PowerShell Category = "powershell"
	Bash       Category = "bash"
	Node       Category = "node"
	// Binary scripts are executed directly with no interpreter.
	Binary Category = "binary"
)

// Categories lists every supported executor category.
var Categories = []Category{Python, PowerShell, Bash, Node, Binary}

var categorySet = func() map[Category]bool {
	m := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// ParseCategory validates a string as a known executor category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !categorySet[c] {
		return "", fmt.Errorf("unknown executor category: %q", s)
	}
	return c, nil
}

func (c Category) String() string { return string(c) }

// Valid reports whether c is a supported category.
func (c Category) Valid() bool { return categorySet[c] }
