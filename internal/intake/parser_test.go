package intake

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParse_CommaSeparated(t *testing.T) {
	input := "title,goal,organization,subject\n" +
		"Surgery for Biscuit,250000,org-7,pet-42\n" +
		"\n" +
		"Vaccines for Luna,\"12,500.50\",org-7,pet-43\n"

	rows, rowErrs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Surgery for Biscuit", rows[0].Params.Title)
	assert.True(t, decimal.NewFromInt(250000).Equal(rows[0].Params.GoalAmount))
	assert.Equal(t, "org-7", rows[0].Params.OrganizationID)
	assert.Equal(t, "pet-42", rows[0].Params.SubjectID)

	assert.Equal(t, 4, rows[1].Line)
	assert.True(t, decimal.RequireFromString("12500.50").Equal(rows[1].Params.GoalAmount))
}

func TestParse_CyrillicWindows1251WithPreamble(t *testing.T) {
	utf8Input := "Приют \"Лапа\", выгрузка\n" +
		"Название;Цель;Приют;Питомец\n" +
		"Операция для Бобика;250 000,00;org-7;pet-42\n" +
		"Корм для Мурки;abc;org-7;pet-44\n" +
		"Лечение лапы для Шарика после операции;120 000,00;org-7;pet-45\n" +
		"Стерилизация кошки Василисы в ветеринарной клинике;45 000,00;org-7;pet-46\n"

	encoded, err := charmap.Windows1251.NewEncoder().String(utf8Input)
	require.NoError(t, err)

	rows, rowErrs, err := Parse(bytes.NewReader([]byte(encoded)))
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Операция для Бобика", rows[0].Params.Title)
	assert.True(t, decimal.NewFromInt(250000).Equal(rows[0].Params.GoalAmount))
	assert.Equal(t, 3, rows[0].Line)

	require.Len(t, rowErrs, 1)
	assert.Equal(t, 4, rowErrs[0].Line)
}

func TestParse_SemicolonHeaderAfterCommaHeavyPreamble(t *testing.T) {
	input := "Shelter Paw, export, 2026, all, cases, open, list, final, v2\n" +
		"\n" +
		"title;goal;organization;subject\n" +
		"Bandages for Rex;1 500,50;org-7;pet-42\n"

	rows, rowErrs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 1)

	assert.Equal(t, 4, rows[0].Line)
	assert.Equal(t, "Bandages for Rex", rows[0].Params.Title)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(rows[0].Params.GoalAmount))
}

func TestParse_LineNumbersCountBlankLines(t *testing.T) {
	input := "title,goal,organization,subject\n" +
		"\n" +
		"\n" +
		"Surgery for Biscuit,250000,org-7,pet-42\n" +
		"\n" +
		"Food for Luna,abc,org-7,pet-43\n" +
		"Vaccines for Max,900,org-7,pet-44\n"

	rows, rowErrs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].Line)
	assert.Equal(t, 7, rows[1].Line)

	require.Len(t, rowErrs, 1)
	assert.Equal(t, 6, rowErrs[0].Line)
}

func TestParse_NoHeader(t *testing.T) {
	_, _, err := Parse(strings.NewReader("name,price\nfoo,1\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "250000", want: "250000"},
		{in: "250 000,50", want: "250000.5"},
		{in: "250.000,50", want: "250000.5"},
		{in: "250,000.50", want: "250000.5"},
		{in: "1,234", want: "1234"},
		{in: "12,5", want: "12.5"},
		{in: "1.234.567", want: "1234567"},
		{in: "99.90", want: "99.9"},
		{in: "", wantErr: true},
		{in: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}
