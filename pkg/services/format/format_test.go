package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoman(t *testing.T) {
	cases := map[int]string{
		1: "I", 2: "II", 3: "III", 4: "IV", 5: "V",
		9: "IX", 14: "XIV", 40: "XL", 90: "XC", 1987: "MCMLXXXVII",
	}
	for n, want := range cases {
		assert.Equal(t, want, Roman(n), "Roman(%d)", n)
	}
}

func TestRoman_StrictlyIncreasingSequence(t *testing.T) {
	seen := map[string]bool{}
	for n := 1; n <= 50; n++ {
		r := Roman(n)
		assert.NotEmpty(t, r)
		assert.False(t, seen[r], "Roman(%d)=%s repeated", n, r)
		seen[r] = true
	}
}

func TestItemLetter(t *testing.T) {
	assert.Equal(t, "A", ItemLetter(0))
	assert.Equal(t, "B", ItemLetter(1))
	assert.Equal(t, "Z", ItemLetter(25))
	// Beyond 26 items the lettering continues spreadsheet-style.
	assert.Equal(t, "AA", ItemLetter(26))
	assert.Equal(t, "AB", ItemLetter(27))
	assert.Equal(t, "AZ", ItemLetter(51))
	assert.Equal(t, "BA", ItemLetter(52))
}

func TestEscapeLaTeX(t *testing.T) {
	assert.Equal(t, `50\% \& rising`, EscapeLaTeX(`50% & rising`))
	assert.Equal(t, `a\_b\#c\$d`, EscapeLaTeX(`a_b#c$d`))
	assert.Equal(t, `\{\}`, EscapeLaTeX(`{}`))
	assert.Equal(t, `\^{}\~{}`, EscapeLaTeX(`^~`))
	assert.Equal(t, `\textbackslash{}section`, EscapeLaTeX(`\section`))
}

func TestEscapeLaTeX_AllReservedCharsBalanced(t *testing.T) {
	out := EscapeLaTeX("\\ _ % & # $ { } ^ ~")
	// Every emitted group must be balanced; a raw brace would open or close
	// a group the source never intended.
	assert.Equal(t, strings.Count(out, "{"), strings.Count(out, "}"))
	assert.NotContains(t, out, " { ")
	assert.NotContains(t, out, " } ")
}

func strPtr(s string) *string { return &s }

func TestDeriveCheckboxes(t *testing.T) {
	tests := []struct {
		name      string
		status    *string
		deficient bool
		want      Checkboxes
	}{
		{"inspected", strPtr("I"), false, Checkboxes{Inspected: true}},
		{"not inspected", strPtr("NI"), false, Checkboxes{NotInspected: true}},
		{"not present", strPtr("NP"), false, Checkboxes{NotPresent: true}},
		{"no status", nil, false, Checkboxes{}},
		{"deficient wins over status", strPtr("I"), true, Checkboxes{Deficient: true}},
		{"deficient without status", nil, true, Checkboxes{Deficient: true}},
		{"unknown status", strPtr("??"), false, Checkboxes{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveCheckboxes(tt.status, tt.deficient)
			assert.Equal(t, tt.want, got)

			checked := 0
			for _, b := range []bool{got.Inspected, got.NotInspected, got.NotPresent, got.Deficient} {
				if b {
					checked++
				}
			}
			assert.LessOrEqual(t, checked, 1, "never more than one box checked")
		})
	}
}

func TestCheckboxesLaTeX(t *testing.T) {
	assert.Equal(t,
		`$\boxtimes$ & $\square$ & $\square$ & $\square$`,
		Checkboxes{Inspected: true}.LaTeX())
	assert.Equal(t,
		`$\square$ & $\square$ & $\square$ & $\boxtimes$`,
		Checkboxes{Deficient: true}.LaTeX())
	assert.Equal(t,
		`$\square$ & $\square$ & $\square$ & $\square$`,
		Checkboxes{}.LaTeX())
}

func TestTimestamp(t *testing.T) {
	assert.Equal(t, "", Timestamp(0))
	// 2021-03-01 15:04:05 UTC
	got := Timestamp(1614611045000)
	assert.Regexp(t, `^\d{2}/\d{2}/2021 \d{2}:\d{2}(AM|PM)$`, got)
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "abc123", FieldName(1, 2, 3, "abc123"))
	assert.Equal(t, "s1-i2-c3", FieldName(1, 2, 3, ""))
	assert.NotEqual(t, FieldName(1, 2, 3, ""), FieldName(1, 2, 4, ""))
}
