// Package condition reads and writes custom watch conditions of the form
// "(Corners > 10) AND (BTTS) OR (Shots >= 5)".
package condition

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxClauses is the most clauses one expression may hold
const MaxClauses = 10

var (
	ErrTooManyClauses   = fmt.Errorf("maximum %d conditions", MaxClauses)
	ErrParenthesis      = errors.New("condition text must not contain parentheses")
	ErrNoRecommendation = errors.New("no recommended condition available")
	ErrIndex            = errors.New("condition index out of range")
	ErrReadOnly         = errors.New("condition row is kept as typed and cannot be edited")
)

// Operator joins two clauses
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// ParseOperator reads AND or OR case-insensitively
func ParseOperator(s string) (Operator, error) {
	switch Operator(strings.ToUpper(strings.TrimSpace(s))) {
	case And:
		return And, nil
	case Or:
		return Or, nil
	}
	return "", fmt.Errorf("invalid operator '%s' (use AND or OR)", s)
}

func (o Operator) orAnd() Operator {
	if o == Or {
		return Or
	}
	return And
}

// Clause is one parenthesised condition. Op joins it to the next clause.
// A Verbatim clause holds a whole expression that does not split into
// clauses; alone it is written back exactly as stored.
type Clause struct {
	Text     string
	Op       Operator
	Verbatim bool
}

var clauseRe = regexp.MustCompile(`\(([^)]+)\)(?:\s+(AND|OR))?`)

// Parse splits an expression into clauses. Text with no parenthesised
// group becomes a single clause.
func Parse(s string) []Clause {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	matches := clauseRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return []Clause{{Text: s}}
	}
	clauses := make([]Clause, 0, len(matches))
	for _, m := range matches {
		clauses = append(clauses, Clause{Text: m[1], Op: Operator(m[2])})
	}
	return clauses
}

// Serialize renders clauses, skipping blank ones. Each emitted clause after
// the first is joined by the Op of the clause just before it in the list;
// an unset Op means AND.
func Serialize(clauses []Clause) string {
	emitted := 0
	for _, c := range clauses {
		if strings.TrimSpace(c.Text) != "" {
			emitted++
		}
	}

	var sb strings.Builder
	for i, c := range clauses {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
			sb.WriteString(string(clauses[i-1].Op.orAnd()))
			sb.WriteString(" ")
		}
		if c.Verbatim && emitted == 1 {
			sb.WriteString(text)
			continue
		}
		sb.WriteString("(")
		sb.WriteString(text)
		sb.WriteString(")")
	}
	return sb.String()
}

// reproduces reports whether clauses serialize back to expr, ignoring
// whitespace. Bare text with no parentheses is one clause and always does.
func reproduces(expr string, clauses []Clause) bool {
	if !strings.ContainsAny(expr, "()") {
		return true
	}
	for _, c := range clauses {
		if strings.ContainsAny(c.Text, "()") {
			return false
		}
	}
	return squash(Serialize(clauses)) == squash(expr)
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// ValidateText rejects clause text that would not survive a round trip
func ValidateText(text string) error {
	if strings.ContainsAny(text, "()") {
		return ErrParenthesis
	}
	return nil
}
