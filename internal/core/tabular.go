package core

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ColumnSpec names a logical field and the header spellings accepted for it.
type ColumnSpec struct {
	Field   string
	Aliases []string
}

// ColumnContract lists the fields a CSV must (Required) and may (Optional)
// carry. The first required field becomes CsvRow.Name.
type ColumnContract struct {
	Required []ColumnSpec
	Optional []ColumnSpec
}

// ParticipantContract is the contract for participant imports.
var ParticipantContract = ColumnContract{
	Required: []ColumnSpec{
		{Field: "name", Aliases: []string{"nome", "name", "participante", "aluno"}},
	},
	Optional: []ColumnSpec{
		{Field: "class", Aliases: []string{"turma", "class", "sala", "room", "serie"}},
	},
}

// ErrEmptyContract is returned when a contract declares no required column.
var ErrEmptyContract = errors.New("column contract has no required column")

type boundColumn struct {
	spec ColumnSpec
	pos  int
}

// ParseTabular parses comma-separated text against contract.
//
// The first non-blank line is the header. Cells are split on commas without
// quote handling and trimmed. Structural problems (no header, a required
// column missing) fail the whole parse; row-level problems (too few cells,
// empty name) silently drop the row.
func ParseTabular(text string, contract ColumnContract) ([]CsvRow, error) {
	if len(contract.Required) == 0 {
		return nil, ErrEmptyContract
	}

	lines := strings.Split(text, "\n")

	headerAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrEmptyInput
	}

	header := splitCells(lines[headerAt])
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = foldHeader(h)
	}

	claimed := make(map[int]bool, len(header))

	required := make([]boundColumn, 0, len(contract.Required))
	for _, spec := range contract.Required {
		pos := matchColumn(folded, spec, claimed)
		if pos < 0 {
			return nil, &MissingColumnError{
				Field:   spec.Field,
				Aliases: spec.Aliases,
				Header:  header,
			}
		}
		claimed[pos] = true
		required = append(required, boundColumn{spec: spec, pos: pos})
	}

	optional := make([]boundColumn, 0, len(contract.Optional))
	for _, spec := range contract.Optional {
		pos := matchColumn(folded, spec, claimed)
		if pos < 0 {
			continue
		}
		claimed[pos] = true
		optional = append(optional, boundColumn{spec: spec, pos: pos})
	}

	rows := make([]CsvRow, 0, len(lines)-headerAt-1)

rowLoop:
	for i := headerAt + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}

		cells := splitCells(lines[i])
		if len(cells) < len(header) {
			continue
		}

		fields := make(map[string]string, len(required)+len(optional)-1)
		for j, col := range required {
			v := cells[col.pos]
			if v == "" {
				continue rowLoop
			}
			if j > 0 {
				fields[col.spec.Field] = v
			}
		}
		for _, col := range optional {
			fields[col.spec.Field] = cells[col.pos]
		}

		rows = append(rows, CsvRow{
			Line:   i + 1,
			Name:   cells[required[0].pos],
			Fields: fields,
		})
	}

	return rows, nil
}

// ReadTabular reads r as UTF-8 text, dropping a byte-order mark and replacing
// invalid sequences, then parses it with ParseTabular.
func ReadTabular(r io.Reader, contract ColumnContract) ([]CsvRow, error) {
	dec := transform.Chain(xunicode.BOMOverride(transform.Nop), runes.ReplaceIllFormed())
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseTabular(string(data), contract)
}

func splitCells(line string) []string {
	line = strings.TrimRight(line, "\r")
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// matchColumn returns the first unclaimed header position whose folded text
// contains any of spec's aliases, or -1.
func matchColumn(folded []string, spec ColumnSpec, claimed map[int]bool) int {
	for pos, h := range folded {
		if claimed[pos] || h == "" {
			continue
		}
		for _, alias := range spec.Aliases {
			if strings.Contains(h, foldHeader(alias)) {
				return pos
			}
		}
	}
	return -1
}

// foldHeader lower-cases s and strips combining marks so "Série" matches
// "serie".
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}
