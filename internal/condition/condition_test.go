package condition

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestSerialize(t *testing.T) {
	clauses := []Clause{
		{Text: "Corners > 10", Op: And},
		{Text: "BTTS", Op: Or},
		{Text: "Shots >= 5"},
	}
	want := "(Corners > 10) AND (BTTS) OR (Shots >= 5)"
	if got := Serialize(clauses); got != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
}

func TestSerializeSkipsBlanks(t *testing.T) {
	clauses := []Clause{
		{Text: "A", Op: And},
		{Text: "  ", Op: Or},
		{Text: "B"},
	}
	// the blank row's operator is the one joining B
	if got := Serialize(clauses); got != "(A) OR (B)" {
		t.Errorf("Serialize = %q", got)
	}
	if got := Serialize([]Clause{{Text: ""}, {Text: " "}}); got != "" {
		t.Errorf("Serialize of blanks = %q", got)
	}
}

func TestSerializeDefaultsToAnd(t *testing.T) {
	if got := Serialize([]Clause{{Text: "A"}, {Text: "B"}}); got != "(A) AND (B)" {
		t.Errorf("Serialize = %q", got)
	}
}

func TestParseFallback(t *testing.T) {
	if got := Parse("  over 2.5 goals "); !reflect.DeepEqual(got, []Clause{{Text: "over 2.5 goals"}}) {
		t.Errorf("Parse fallback = %+v", got)
	}
	if got := Parse("   "); got != nil {
		t.Errorf("Parse blank = %+v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := [][]Clause{
		{{Text: "BTTS"}},
		{{Text: "Corners > 10", Op: And}, {Text: "BTTS"}},
		{{Text: "A", Op: Or}, {Text: "B", Op: And}, {Text: "C", Op: Or}, {Text: "D"}},
	}
	var ten []Clause
	for i := 0; i < MaxClauses; i++ {
		op := And
		if i%3 == 0 {
			op = Or
		}
		ten = append(ten, Clause{Text: fmt.Sprintf("Cond %d >= %d", i, i*2), Op: op})
	}
	ten[len(ten)-1].Op = ""
	cases = append(cases, ten)

	for _, clauses := range cases {
		got := Parse(Serialize(clauses))
		if !reflect.DeepEqual(got, clauses) {
			t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, clauses)
		}
	}
}

func TestBuilderCap(t *testing.T) {
	b, err := NewBuilder("")
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	for i := 0; i < MaxClauses; i++ {
		if err := b.Add(fmt.Sprintf("c%d", i), And); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}
	before := b.String()
	if err := b.Add("one too many", Or); !errors.Is(err, ErrTooManyClauses) {
		t.Fatalf("expected ErrTooManyClauses, got %v", err)
	}
	if b.Len() != MaxClauses || b.String() != before {
		t.Error("rejected add changed the builder")
	}
}

func TestBuilderRejectsParentheses(t *testing.T) {
	b, _ := NewBuilder("(A)")
	if err := b.Add("x (y)", And); !errors.Is(err, ErrParenthesis) {
		t.Errorf("Add: expected ErrParenthesis, got %v", err)
	}
	if err := b.Set(0, "f(x)"); !errors.Is(err, ErrParenthesis) {
		t.Errorf("Set: expected ErrParenthesis, got %v", err)
	}
}

func TestBuilderLoadOverCap(t *testing.T) {
	expr := ""
	for i := 0; i <= MaxClauses; i++ {
		if i > 0 {
			expr += " AND "
		}
		expr += fmt.Sprintf("(c%d)", i)
	}
	if _, err := NewBuilder(expr); !errors.Is(err, ErrTooManyClauses) {
		t.Errorf("expected ErrTooManyClauses, got %v", err)
	}
}

func TestBuilderEdit(t *testing.T) {
	b, _ := NewBuilder("(A) AND (B) OR (C)")
	if err := b.SetOp(1, Or); err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "(A) OR (B) OR (C)" {
		t.Errorf("after SetOp: %q", got)
	}
	if err := b.Remove(1); err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "(A) OR (C)" {
		t.Errorf("after Remove: %q", got)
	}
	if err := b.Set(5, "x"); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
}

func TestApplyRecommended(t *testing.T) {
	t.Run("empty builder takes recommendation", func(t *testing.T) {
		b, _ := NewBuilder("")
		applied, err := b.ApplyRecommended("(Corners > 9) AND (BTTS)")
		if err != nil || !applied {
			t.Fatalf("applied=%v err=%v", applied, err)
		}
		if got := b.String(); got != "(Corners > 9) AND (BTTS)" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("existing expression is OR-ed", func(t *testing.T) {
		b, _ := NewBuilder("(A) AND (B)")
		applied, err := b.ApplyRecommended("(C)")
		if err != nil || !applied {
			t.Fatalf("applied=%v err=%v", applied, err)
		}
		if got := b.String(); got != "((A) AND (B)) OR ((C))" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		b, _ := NewBuilder("(A)")
		if _, err := b.ApplyRecommended("(C)"); err != nil {
			t.Fatal(err)
		}
		first := b.String()
		applied, err := b.ApplyRecommended("(C)")
		if err != nil || applied {
			t.Errorf("second apply: applied=%v err=%v", applied, err)
		}
		if b.String() != first {
			t.Errorf("second apply changed expression: %q", b.String())
		}
	})

	t.Run("blank recommendation", func(t *testing.T) {
		b, _ := NewBuilder("(A)")
		if _, err := b.ApplyRecommended("  "); !errors.Is(err, ErrNoRecommendation) {
			t.Errorf("expected ErrNoRecommendation, got %v", err)
		}
	})
}

func TestApplyRecommendedThenReopen(t *testing.T) {
	tests := []struct {
		name string
		expr string
		rec  string
	}{
		{"clean expression", "(A) AND (B)", "(C)"},
		{"unbalanced expression", "(A) AND (B", "C"},
		{"empty expression", "", "(Corners > 8) OR (BTTS)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(tt.expr)
			if err != nil {
				t.Fatalf("NewBuilder: %v", err)
			}
			if _, err := b.ApplyRecommended(tt.rec); err != nil {
				t.Fatalf("ApplyRecommended: %v", err)
			}
			saved := b.String()

			reopened, err := NewBuilder(saved)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			if got := reopened.String(); got != saved {
				t.Errorf("reopened %q, saved %q", got, saved)
			}
			applied, err := reopened.ApplyRecommended(tt.rec)
			if err != nil || applied {
				t.Errorf("second apply: applied=%v err=%v", applied, err)
			}
		})
	}
}

func TestBuilderKeepsUnsplittableExpression(t *testing.T) {
	for _, expr := range []string{
		"((A) AND (B)) OR ((C))",
		"(x (y)) OR (z)",
		"(A) or (B)",
		"(A) (B)",
		"((x)",
	} {
		b, err := NewBuilder(expr)
		if err != nil {
			t.Fatalf("NewBuilder(%q): %v", expr, err)
		}
		if got := b.String(); got != expr {
			t.Errorf("NewBuilder(%q).String() = %q", expr, got)
		}
		if b.Len() != 1 || !b.Verbatim(0) {
			t.Errorf("%q: expected one read-only row, got %+v", expr, b.Clauses())
		}
		if err := b.Set(0, "other"); !errors.Is(err, ErrReadOnly) {
			t.Errorf("%q: Set expected ErrReadOnly, got %v", expr, err)
		}
	}
}

func TestBuilderNormalizesCleanExpression(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"over 2.5 goals", "(over 2.5 goals)"},
		{"(A)   AND  (B) OR (C)", "(A) AND (B) OR (C)"},
		{"  (BTTS)  ", "(BTTS)"},
	}
	for _, tt := range tests {
		b, err := NewBuilder(tt.expr)
		if err != nil {
			t.Fatalf("NewBuilder(%q): %v", tt.expr, err)
		}
		if got := b.String(); got != tt.want {
			t.Errorf("NewBuilder(%q).String() = %q, want %q", tt.expr, got, tt.want)
		}
		if b.Verbatim(0) {
			t.Errorf("%q should load as editable rows", tt.expr)
		}
	}
}

func TestVerbatimRowWrappedWhenJoined(t *testing.T) {
	b, _ := NewBuilder("(x (y)) OR (z)")
	if err := b.Add("w", And); err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "((x (y)) OR (z)) AND (w)" {
		t.Errorf("String = %q", got)
	}
	if err := b.Remove(1); err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "(x (y)) OR (z)" {
		t.Errorf("after Remove = %q", got)
	}
}
