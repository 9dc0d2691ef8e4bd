package partition

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"frota-etl/internal/config"
	"frota-etl/internal/jsonio"
	"frota-etl/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTryValue(t *testing.T) {
	assert.Nil(t, tryValue(""))
	assert.Nil(t, tryValue("  "))
	assert.Equal(t, 12.5, tryValue("12.5"))
	assert.Equal(t, "texto", tryValue("texto"))
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "547", formatID(547.0))
	assert.Equal(t, "54.7", formatID(54.7))
	assert.Equal(t, "547", formatID("547"))
	assert.Equal(t, "", formatID(nil))
}

func TestGroupByFleet(t *testing.T) {
	grouped := groupByFleet(map[string][]map[string]any{
		"Resumo_Dia": {
			{"Código Equipamento": 547.0, "Horas_Registradas": 4.0},
			{"Código Equipamento": 469.0, "Horas_Registradas": 2.0},
		},
		"Intervalos": {
			{"Frota": "547", "Grupo": "PRODUTIVA"},
			{"Grupo": "SEM FROTA"},
		},
	})

	require.Contains(t, grouped, "547")
	require.Contains(t, grouped, "469")
	require.Contains(t, grouped, "Geral")

	resumo := grouped["547"]["Resumo_Dia"]
	require.Len(t, resumo, 1)
	// the grouping key is dropped from the leaf
	assert.NotContains(t, resumo[0], "Código Equipamento")
	assert.Equal(t, 4.0, resumo[0]["Horas_Registradas"])

	assert.Len(t, grouped["547"]["Intervalos"], 1)
	assert.Len(t, grouped["Geral"]["Intervalos"], 1)
}

func TestGroupByOperator(t *testing.T) {
	grouped := groupByOperator([]map[string]any{
		{"Código de Operador": 900123.0, "Nome": "JOSE", "Horas_Registradas": 8.0},
		{"Horas_Registradas": 1.0},
	})

	require.Contains(t, grouped, "900123 - JOSE")
	leaf := grouped["900123 - JOSE"].(map[string]any)
	assert.NotContains(t, leaf, "Código de Operador")
	assert.NotContains(t, leaf, "Nome")
	assert.Equal(t, 8.0, leaf["Horas_Registradas"])

	semCodigo := grouped["SemCodigo"].([]map[string]any)
	require.Len(t, semCodigo, 1)
}

func writeTreated(t *testing.T, dir string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	tratado := sheet.Table{Name: "Tratado", Headers: []string{"Data Hora Local", "Código Equipamento"}}
	tratado.Append("07/10/2025 08:00:00", "547")
	tratado.Append("08/10/2025 08:00:00", "547")

	dia := sheet.Table{Name: "COLHEDORA_Dia", Headers: []string{"Data", "Código Equipamento", "Horas_Registradas"}}
	dia.Append("07/10/2025", "547", 4.5)
	dia.Append("07/10/2025", "469", 2.0)
	dia.Append("08/10/2025", "547", 6.0)

	ops := sheet.Table{Name: "Operadores_COLHEDORA", Headers: []string{"Data", "Código de Operador", "Nome", "Horas_Registradas"}}
	ops.Append("07/10/2025", "900123", "JOSE", 4.5)
	ops.Append("08/10/2025", "900123", "JOSE", 6.0)

	intervalos := sheet.Table{Name: "Intervalos_COLHEDORA", Headers: []string{"Data", "Frota", "Início", "Fim", "Grupo", "Descrição da Operação"}}
	intervalos.Append("07/10/2025", "547", "07/10/2025 08:00:00", "07/10/2025 10:00:00", "PRODUTIVA", "COLHENDO CANA")

	periodo := sheet.Table{Name: "Periodo_Equipamentos", Headers: []string{"Código Equipamento", "Descrição do Equipamento", "Horas_Registradas_total"}}
	periodo.Append("547", "COLHEDORA", 10.5)

	for _, tbl := range []sheet.Table{tratado, dia, ops, intervalos, periodo} {
		require.NoError(t, sheet.Write(f, tbl))
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "Relatorio_05-10-2025_11-10-2025_tratado.xlsx")))
}

func TestRunPartitionsPerDay(t *testing.T) {
	dir := t.TempDir()
	writeTreated(t, dir)

	cfg, err := config.Load(dir, "", "", "")
	require.NoError(t, err)

	res, err := Run(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Days)

	// one workbook per day
	for _, day := range []string{"07-10-2025", "08-10-2025"} {
		_, err := os.Stat(filepath.Join(cfg.XLSXDir(), day+".xlsx"))
		assert.NoError(t, err, "workbook for %s", day)
	}

	// fleet JSON holds only the day's units, without cross-day leakage
	var day7 map[string]map[string][]map[string]any
	require.NoError(t, jsonio.Read(filepath.Join(cfg.FleetDailyDir("colhedora"), "colhedora_frota_07-10-2025.json"), &day7))
	require.Contains(t, day7, "547")
	require.Contains(t, day7, "469")
	require.Len(t, day7["547"]["Resumo_Dia"], 1)
	assert.Equal(t, 4.5, day7["547"]["Resumo_Dia"][0]["Horas_Registradas"])
	assert.Len(t, day7["547"]["Intervalos"], 1)

	var day8 map[string]map[string][]map[string]any
	require.NoError(t, jsonio.Read(filepath.Join(cfg.FleetDailyDir("colhedora"), "colhedora_frota_08-10-2025.json"), &day8))
	require.Contains(t, day8, "547")
	assert.NotContains(t, day8, "469")
	assert.Equal(t, 6.0, day8["547"]["Resumo_Dia"][0]["Horas_Registradas"])

	// operator JSON keyed "code - name"
	var ops7 map[string]any
	require.NoError(t, jsonio.Read(filepath.Join(cfg.OperatorDailyDir("colhedora"), "colhedora_operadores_07-10-2025.json"), &ops7))
	require.Contains(t, ops7, "900123 - JOSE")

	// period rollup keyed by unit under semanal/
	var periodo map[string]map[string][]map[string]any
	require.NoError(t, jsonio.Read(filepath.Join(cfg.FleetPeriodDir("colhedora"), "colhedora_frota_periodo_05-10-2025_11-10-2025.json"), &periodo))
	require.Contains(t, periodo, "547")
	require.Len(t, periodo["547"]["Resumo_Periodo"], 1)
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeTreated(t, dir)

	cfg, err := config.Load(dir, "", "", "")
	require.NoError(t, err)

	_, err = Run(cfg, testLogger())
	require.NoError(t, err)
	first, err := readFleet(cfg)
	require.NoError(t, err)

	_, err = Run(cfg, testLogger())
	require.NoError(t, err)
	second, err := readFleet(cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func readFleet(cfg *config.Config) (map[string]map[string][]map[string]any, error) {
	var out map[string]map[string][]map[string]any
	err := jsonio.Read(filepath.Join(cfg.FleetDailyDir("colhedora"), "colhedora_frota_07-10-2025.json"), &out)
	return out, err
}

func TestRunFailsWithoutTreatedWorkbook(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir, "", "", "")
	require.NoError(t, err)
	_, err = Run(cfg, testLogger())
	assert.Error(t, err)
}
