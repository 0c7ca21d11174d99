package condition

import "strings"

// Builder edits a clause list the way the condition editor does: each row
// after the first carries the operator joining it to the row above.
type Builder struct {
	clauses []Clause
}

// NewBuilder loads expr into a builder. An expression that would not be
// written back unchanged, such as nested groups or a lowercase operator, is
// loaded as a single read-only row.
func NewBuilder(expr string) (*Builder, error) {
	expr = strings.TrimSpace(expr)
	clauses := Parse(expr)
	if !reproduces(expr, clauses) {
		return &Builder{clauses: []Clause{{Text: expr, Verbatim: true}}}, nil
	}
	if len(clauses) > MaxClauses {
		return nil, ErrTooManyClauses
	}
	return &Builder{clauses: clauses}, nil
}

// Len returns the number of rows, blanks included
func (b *Builder) Len() int {
	return len(b.clauses)
}

// Verbatim reports whether row i is kept as typed
func (b *Builder) Verbatim(i int) bool {
	return i >= 0 && i < len(b.clauses) && b.clauses[i].Verbatim
}

// Clauses returns a copy of the rows
func (b *Builder) Clauses() []Clause {
	out := make([]Clause, len(b.clauses))
	copy(out, b.clauses)
	return out
}

// String returns the serialized expression
func (b *Builder) String() string {
	return Serialize(b.clauses)
}

// Add appends a row joined to the previous one by op
func (b *Builder) Add(text string, op Operator) error {
	if len(b.clauses) >= MaxClauses {
		return ErrTooManyClauses
	}
	if err := ValidateText(text); err != nil {
		return err
	}
	if n := len(b.clauses); n > 0 {
		b.clauses[n-1].Op = op.orAnd()
	}
	b.clauses = append(b.clauses, Clause{Text: strings.TrimSpace(text)})
	return nil
}

// Set replaces the text of row i
func (b *Builder) Set(i int, text string) error {
	if i < 0 || i >= len(b.clauses) {
		return ErrIndex
	}
	if b.clauses[i].Verbatim {
		return ErrReadOnly
	}
	if err := ValidateText(text); err != nil {
		return err
	}
	b.clauses[i].Text = strings.TrimSpace(text)
	return nil
}

// SetOp changes the operator joining row i to row i-1
func (b *Builder) SetOp(i int, op Operator) error {
	if i < 1 || i >= len(b.clauses) {
		return ErrIndex
	}
	b.clauses[i-1].Op = op.orAnd()
	return nil
}

// Remove deletes row i. The row below keeps its own joining operator.
func (b *Builder) Remove(i int) error {
	if i < 0 || i >= len(b.clauses) {
		return ErrIndex
	}
	if i > 0 {
		// the operator stored on row i joined row i+1 to it; move it up
		b.clauses[i-1].Op = b.clauses[i].Op
	}
	b.clauses = append(b.clauses[:i], b.clauses[i+1:]...)
	return nil
}

// Clear removes every row
func (b *Builder) Clear() {
	b.clauses = nil
}

// ApplyRecommended merges an AI-suggested expression into the builder. It
// reports false when rec is already part of the current expression. A
// non-empty expression becomes row one verbatim with rec OR-ed as row two;
// an empty one is replaced by rec's own clauses.
func (b *Builder) ApplyRecommended(rec string) (bool, error) {
	rec = strings.TrimSpace(rec)
	if rec == "" {
		return false, ErrNoRecommendation
	}
	current := b.String()
	if current != "" && strings.Contains(current, rec) {
		return false, nil
	}

	if current == "" {
		clauses := Parse(rec)
		if len(clauses) > MaxClauses {
			return false, ErrTooManyClauses
		}
		b.clauses = clauses
		return true, nil
	}

	b.clauses = []Clause{
		{Text: current, Op: Or, Verbatim: true},
		{Text: rec},
	}
	return true, nil
}
