package treatment

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"frota-etl/internal/config"
	"frota-etl/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunTreatsWorkbook(t *testing.T) {
	dir := t.TempDir()

	f := rawWorkbook(t,
		[]interface{}{"07/10/2025 08:00:00", "08:00:00", "10:00:00", "MB547", "COLHEDORA DE CANA", "900123", "JOSE", "COLHENDO CANA", "PRODUTIVA", "5,0", "100", "102", ""},
		[]interface{}{"07/10/2025 10:00:00", "10:00:00", "10:30:00", "MB547", "COLHEDORA DE CANA", "900123", "JOSE", "AGUARDANDO TRANSBORDO", "IMPRODUTIVA", "0", "102", "102,2", ""},
		[]interface{}{"08/10/2025 09:00:00", "09:00:00", "11:00:00", "MB469", "COLHEDORA DE CANA", "900456", "MARIA", "MANUTENCAO CORRETIVA", "MANUTENÇÃO", "0", "50", "50", ""},
	)
	input := filepath.Join(dir, "Relatorio_05-10-2025_11-10-2025.xlsx")
	require.NoError(t, f.SaveAs(input))
	f.Close()

	cfg, err := config.Load(dir, "", "", "")
	require.NoError(t, err)

	res, err := Run(cfg, testLogger())
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	out, err := excelize.OpenFile(res.Outputs[0])
	require.NoError(t, err)
	defer out.Close()

	tabs := out.GetSheetList()
	for _, want := range []string{
		"Original", "Tratado",
		"COLHEDORA_Dia", "Operadores_COLHEDORA",
		"Periodo_Equipamentos", "Periodo_Operadores",
		"Top5Ofensores_COLHEDORA", "Intervalos_COLHEDORA",
	} {
		assert.Contains(t, tabs, want)
	}
	assert.NotContains(t, tabs, "Sheet1")

	headers, rows, err := sheet.ReadRows(out, "COLHEDORA_Dia")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byUnit := map[string]map[string]string{}
	for _, row := range rows {
		m := sheet.RowMap(headers, row)
		byUnit[m["Código Equipamento"]] = m
	}
	require.Contains(t, byUnit, "547")
	require.Contains(t, byUnit, "469")
	assert.Equal(t, "2.5", byUnit["547"]["Horas_Registradas"])

	// the treated sheet carries the derived columns
	tratadoHeaders, _, err := sheet.ReadRows(out, "Tratado")
	require.NoError(t, err)
	assert.Contains(t, tratadoHeaders, "Duração")
	assert.Contains(t, tratadoHeaders, "Dif_Horimetro")
	assert.Contains(t, tratadoHeaders, "Motor Ligado")
	assert.Contains(t, tratadoHeaders, "Motor Ocioso")
	assert.NotContains(t, tratadoHeaders, "Horímetro/Odometro Secundário")
}

func TestRunFailsWithoutInputs(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir, "", "", "")
	require.NoError(t, err)

	_, err = Run(cfg, testLogger())
	assert.Error(t, err)
}

func TestRunSkipsPreviousOutputs(t *testing.T) {
	dir := t.TempDir()

	f := rawWorkbook(t, []interface{}{
		"07/10/2025 08:00:00", "08:00:00", "09:00:00", "MB547", "COLHEDORA DE CANA", "", "", "COLHENDO CANA", "PRODUTIVA", "5", "1", "2", "",
	})
	require.NoError(t, f.SaveAs(filepath.Join(dir, "relatorio.xlsx")))
	f.Close()

	cfg, err := config.Load(dir, "", "", "")
	require.NoError(t, err)

	res, err := Run(cfg, testLogger())
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	// a second run must not treat the *_tratado output again
	res, err = Run(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "relatorio.xlsx")}, res.Inputs)
}
