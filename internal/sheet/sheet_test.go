package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSafeName(t *testing.T) {
	assert.Equal(t, "COLHEDORA_Dia", SafeName("", "COLHEDORA", "_Dia"))
	assert.Equal(t, "Operadores_A-B", SafeName("Operadores_", "A/B", ""))

	long := SafeName("Top5Ofensores_", "EQUIPAMENTO DE NOME MUITO COMPRIDO", "")
	assert.LessOrEqual(t, len([]rune(long)), MaxNameLen)
	assert.Contains(t, long, "Top5Ofensores_")
}

func TestWriteAndReadRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	tbl := Table{Name: "Dados", Headers: []string{"Data", "Valor", "Obs"}}
	tbl.Append("07/10/2025", 12.5, "ok")
	tbl.Append("08/10/2025", nil, nil)
	require.NoError(t, Write(f, tbl))

	headers, rows, err := ReadRows(f, "Dados")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Valor", "Obs"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, "07/10/2025", rows[0][0])
	assert.Equal(t, "12.5", rows[0][1])
	// short rows come back padded to the header width
	assert.Len(t, rows[1], 3)
	assert.Equal(t, "", rows[1][1])
}

func TestRowMap(t *testing.T) {
	m := RowMap([]string{"a", "b", "c"}, []string{"1", "2"})
	assert.Equal(t, "1", m["a"])
	assert.Equal(t, "2", m["b"])
	assert.Equal(t, "", m["c"])
}

func TestSaveAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")

	f := excelize.NewFile()
	require.NoError(t, Write(f, Table{Name: "S", Headers: []string{"x"}}))
	require.NoError(t, SaveAtomic(f, path))
	f.Close()

	reopened, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Contains(t, reopened.GetSheetList(), "S")

	// leftover temp files would pollute the output directory
	matches, err := filepath.Glob(filepath.Join(dir, ".*tmp*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
