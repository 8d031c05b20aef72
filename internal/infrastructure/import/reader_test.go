package csvimport

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ReadAll(t *testing.T) {
	t.Run("rows are keyed by lower-cased header", func(t *testing.T) {
		src := " Code ,NAME,Class\n1000, Cash ,asset\n2000,Payables,liability\n"

		rows, err := NewReader().ReadAll(strings.NewReader(src))

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, "Cash", rows[0].Get("name"))
		assert.Equal(t, "liability", rows[1].Get("class"))
		assert.Empty(t, rows[1].Get("parent_code"))
	})

	t.Run("byte order mark is stripped", func(t *testing.T) {
		rows, err := NewReader(WithRequiredColumns("code")).ReadAll(strings.NewReader("\xEF\xBB\xBFcode\n1000\n"))

		require.NoError(t, err)
		assert.Equal(t, "1000", rows[0].Get("code"))
	})

	t.Run("blank lines are skipped and line numbers kept", func(t *testing.T) {
		rows, err := NewReader().ReadAll(strings.NewReader("code,name\n1000,Cash\n,\n1100,Bank\n"))

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 4, rows[1].Line)
	})

	t.Run("short records pad missing columns", func(t *testing.T) {
		rows, err := NewReader().ReadAll(strings.NewReader("code,name,subtype\n1000,Cash\n"))

		require.NoError(t, err)
		assert.Equal(t, "", rows[0].Get("subtype"))
	})

	t.Run("custom delimiter", func(t *testing.T) {
		rows, err := NewReader(WithDelimiter(';')).ReadAll(strings.NewReader("code;name\n1000;Cash\n"))

		require.NoError(t, err)
		assert.Equal(t, "Cash", rows[0].Get("name"))
	})
}

func TestReader_ReadAllErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := NewReader().ReadAll(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := NewReader().ReadAll(strings.NewReader("code,name\n"))
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("missing required columns", func(t *testing.T) {
		_, err := NewReader(WithRequiredColumns("code", "name", "class")).ReadAll(strings.NewReader("code\n1000\n"))

		var missing *MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"name", "class"}, missing.Columns)
	})

	t.Run("too many rows", func(t *testing.T) {
		_, err := NewReader(WithMaxRows(1)).ReadAll(strings.NewReader("code\n1000\n1100\n"))
		assert.ErrorIs(t, err, ErrTooManyRows)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := NewReader().ReadAll(strings.NewReader("code,name\n1000,\xff\xfe\n"))

		var lineErr *LineError
		require.ErrorAs(t, err, &lineErr)
		assert.Equal(t, 2, lineErr.Line)
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})
}

func TestLineError_Unwrap(t *testing.T) {
	err := &LineError{Line: 3, Err: csv.ErrFieldCount}
	assert.ErrorIs(t, err, csv.ErrFieldCount)
	assert.Equal(t, "line 3: wrong number of fields", err.Error())
}
