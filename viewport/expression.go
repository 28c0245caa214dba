package viewport

import "strings"

// Op is the comparator of an expression.
type Op byte

const (
	Less    Op = '<'
	Greater Op = '>'
)

// Expression is a parsed range query such as "<md" or ">=sm".
type Expression struct {
	Op      Op
	OrEqual bool
	Name    string
}

// IsExpression reports whether s is a range query rather than a name.
func IsExpression(s string) bool {
	return len(s) > 0 && (s[0] == '<' || s[0] == '>')
}

// ParseExpression splits s into comparator, '=' flag and breakpoint name.
// Everything after the comparator (and optional '=') is the name, even
// if empty.
func ParseExpression(s string) (Expression, bool) {
	if !IsExpression(s) {
		return Expression{}, false
	}
	e := Expression{Op: Op(s[0])}
	rest := s[1:]
	if strings.HasPrefix(rest, "=") {
		e.OrEqual = true
		rest = rest[1:]
	}
	e.Name = rest
	return e, true
}

// String returns the expression in its textual form.
func (e Expression) String() string {
	s := string(rune(e.Op))
	if e.OrEqual {
		s += "="
	}
	return s + e.Name
}

// Range returns the half-open index range [start, end) of the breakpoints
// the expression accepts in set. ok is false when the name is not in set.
func (e Expression) Range(set Set) (start, end int, ok bool) {
	pos := set.Index(e.Name)
	if pos < 0 {
		return 0, 0, false
	}
	switch e.Op {
	case Less:
		start, end = 0, pos
		if e.OrEqual {
			end++
		}
	case Greater:
		start, end = pos+1, set.Len()
		if e.OrEqual {
			start = pos
		}
	default:
		return 0, 0, false
	}
	return start, end, true
}
