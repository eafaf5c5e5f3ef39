package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTabular_Participants(t *testing.T) {
	rows, err := ParseTabular("nome,turma\nAna,1A\n,1B\nBeto,\n", ParticipantContract)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, CsvRow{Line: 2, Name: "Ana", Fields: map[string]string{"class": "1A"}}, rows[0])
	assert.Equal(t, CsvRow{Line: 4, Name: "Beto", Fields: map[string]string{"class": ""}}, rows[1])
}

func TestParseTabular_MissingRequiredColumn(t *testing.T) {
	_, err := ParseTabular("email,turma\nana@x.com,1A\n", ParticipantContract)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrMissingColumn))

	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "name", mce.Field)
	assert.Equal(t, []string{"email", "turma"}, mce.Header)
}

func TestParseTabular_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "\n\n", "  \r\n"} {
		_, err := ParseTabular(text, ParticipantContract)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", text)
	}
}

func TestParseTabular_HeaderMatching(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantName  string
		wantClass string
		hasClass  bool
	}{
		{"case insensitive", "NOME,TURMA\nAna,1A", "Ana", "1A", true},
		{"substring alias", "Nome do Aluno,Sala de aula\nAna,3", "Ana", "3", true},
		{"accents ignored", "Nome,Série\nAna,5", "Ana", "5", true},
		{"english aliases", "id,name,room\n7,Ana,B2", "Ana", "B2", true},
		{"optional absent", "participante\nAna", "Ana", "", false},
		{"columns reordered", "turma,nome\n1A,Ana", "Ana", "1A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseTabular(tt.text, ParticipantContract)
			require.NoError(t, err)
			require.Len(t, rows, 1)

			assert.Equal(t, tt.wantName, rows[0].Name)
			class, ok := rows[0].Fields["class"]
			assert.Equal(t, tt.hasClass, ok)
			assert.Equal(t, tt.wantClass, class)
		})
	}
}

func TestParseTabular_FirstMatchingColumnWins(t *testing.T) {
	rows, err := ParseTabular("nome,nome social\nAna Maria,Ana\n", ParticipantContract)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana Maria", rows[0].Name)
}

func TestParseTabular_LineNumbers(t *testing.T) {
	text := "nome,turma\r\n" +
		"Ana,1A\r\n" +
		"\r\n" +
		"Short\r\n" +
		"  Carla  ,  2B  \r\n"

	rows, err := ParseTabular(text, ParticipantContract)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "Carla", rows[1].Name)
	assert.Equal(t, "2B", rows[1].Fields["class"])
}

func TestParseTabular_LeadingBlankLines(t *testing.T) {
	rows, err := ParseTabular("\n\nnome\nAna\n", ParticipantContract)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Line)
}

func TestParseTabular_ContractWithoutRequired(t *testing.T) {
	_, err := ParseTabular("a,b\n1,2", ColumnContract{})
	assert.ErrorIs(t, err, ErrEmptyContract)
}

func TestReadTabular_BOMAndInvalidUTF8(t *testing.T) {
	input := "\xEF\xBB\xBFnome,turma\nJo\xffão,1A\n"

	rows, err := ReadTabular(strings.NewReader(input), ParticipantContract)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Jo\uFFFDão", rows[0].Name)
	assert.Equal(t, "1A", rows[0].Fields["class"])
}

func TestReadTabular_InvalidUTF8WithoutBOM(t *testing.T) {
	rows, err := ReadTabular(strings.NewReader("nome\nAna\xfe\xff\n"), ParticipantContract)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana\uFFFD\uFFFD", rows[0].Name)
}
