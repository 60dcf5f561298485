// Package format holds the pure derivation helpers shared by both render
// strategies: numbering, checkbox state, timestamp formatting and LaTeX
// escaping.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/pi-tools/report-forge/pkg/models/domain"
)

var romanValues = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman converts a positive integer to its Roman numeral.
func Roman(n int) string {
	var b strings.Builder
	for _, rv := range romanValues {
		for n >= rv.value {
			b.WriteString(rv.symbol)
			n -= rv.value
		}
	}
	return b.String()
}

// ItemLetter letters line items by position: A..Z, then AA, AB, ... in
// spreadsheet style. i is zero-based.
func ItemLetter(i int) string {
	letter := ""
	for i >= 0 {
		letter = string(rune('A'+i%26)) + letter
		i = i/26 - 1
	}
	return letter
}

// latexReplacer escapes every character LaTeX reserves. Backslash must be
// handled before the brace escapes it would otherwise corrupt, so it maps
// through \textbackslash{} in a single-pass replacer.
var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`_`, `\_`,
	`%`, `\%`,
	`&`, `\&`,
	`#`, `\#`,
	`$`, `\$`,
	`{`, `\{`,
	`}`, `\}`,
	`^`, `\^{}`,
	`~`, `\~{}`,
)

// EscapeLaTeX renders s safe for literal emission into LaTeX source.
func EscapeLaTeX(s string) string {
	return latexReplacer.Replace(s)
}

// Checkboxes is the derived I/NI/NP/D state of a line item. At most one box
// is ever set.
type Checkboxes struct {
	Inspected    bool
	NotInspected bool
	NotPresent   bool
	Deficient    bool
}

// DeriveCheckboxes applies the checkbox rule: a deficient item checks only
// D regardless of status; otherwise the status picks exactly one box, or
// none when the status is absent.
func DeriveCheckboxes(status *string, isDeficient bool) Checkboxes {
	if isDeficient {
		return Checkboxes{Deficient: true}
	}
	if status == nil {
		return Checkboxes{}
	}
	switch *status {
	case domain.StatusInspected:
		return Checkboxes{Inspected: true}
	case domain.StatusNotInspected:
		return Checkboxes{NotInspected: true}
	case domain.StatusNotPresent:
		return Checkboxes{NotPresent: true}
	}
	return Checkboxes{}
}

const (
	boxEmpty   = `$\square$`
	boxChecked = `$\boxtimes$`
)

// LaTeX emits the four checkbox cells as table columns.
func (c Checkboxes) LaTeX() string {
	cell := func(checked bool) string {
		if checked {
			return boxChecked
		}
		return boxEmpty
	}
	return fmt.Sprintf("%s & %s & %s & %s",
		cell(c.Inspected), cell(c.NotInspected), cell(c.NotPresent), cell(c.Deficient))
}

// Timestamp formats an epoch-millisecond timestamp the way the report form
// expects, e.g. "03/15/2025 02:30PM". Zero stays empty.
func Timestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("01/02/2006 03:04PM")
}

// FieldName derives a stable, unique identifier for a checkbox field. The
// item or comment id wins when present; otherwise a positional
// section-item-comment fallback keeps names reproducible across renders.
func FieldName(sectionIdx, itemIdx, commentIdx int, id string) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("s%d-i%d-c%d", sectionIdx, itemIdx, commentIdx)
}
