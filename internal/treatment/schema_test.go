package treatment

import (
	"fmt"
	"testing"

	"frota-etl/internal/period"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var rawHeaders = []interface{}{
	"Data Hora Local", "Hora Inicial", "Hora Final",
	"Código Equipamento", "Descrição do Equipamento",
	"Código de Operador", "Nome",
	"Descrição da Operação", "Descrição do Grupo da Operação",
	"Velocidade Média", "Horímetro Inicial", "Horímetro Final",
	"Horímetro/Odometro Secundário",
}

func rawWorkbook(t *testing.T, rows ...[]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &rawHeaders))
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	return f
}

func noWarn(format string, args ...any) {}

func TestMapColumns(t *testing.T) {
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = h.(string)
	}
	cm, err := mapColumns(headers)
	require.NoError(t, err)
	assert.Equal(t, 0, cm.dateTime)
	assert.Equal(t, 3, cm.unitCode)
	assert.Equal(t, 10, cm.meterStart)
	assert.Equal(t, 11, cm.meterEnd)
}

func TestMapColumnsRequiresDateAndUnit(t *testing.T) {
	_, err := mapColumns([]string{"Hora Inicial", "Hora Final"})
	assert.Error(t, err)
}

func TestLoadParsesRow(t *testing.T) {
	f := rawWorkbook(t, []interface{}{
		"07/10/2025 08:00:00", "08:00:00", "08:30:00",
		"MB547", "COLHEDORA DE CANA", "900123", "JOSE",
		"COLHENDO CANA", "PRODUTIVA", "5,2", "100", "100,4", "9",
	})
	defer f.Close()

	l, err := load(f, period.Range{}, noWarn)
	require.NoError(t, err)
	require.Len(t, l.intervals, 1)

	iv := l.intervals[0]
	assert.Equal(t, "547", iv.UnitCode)
	assert.Equal(t, "COLHEDORA", iv.UnitType)
	assert.Equal(t, "COLHENDO CANA", iv.Operation)
	assert.Equal(t, "PRODUTIVA", iv.Group)
	assert.InDelta(t, 5.2, iv.AvgSpeed, 1e-9)
	assert.InDelta(t, 0.4, iv.HourMeterDelta, 1e-9)
	assert.InDelta(t, 30.0, iv.DurationMin, 1e-9)
}

func TestLoadWrapsMidnightCrossing(t *testing.T) {
	f := rawWorkbook(t, []interface{}{
		"07/10/2025 23:50:00", "23:50:00", "00:10:00",
		"MB547", "COLHEDORA DE CANA", "900123", "JOSE",
		"COLHENDO CANA", "PRODUTIVA", "0", "100", "100,3", "",
	})
	defer f.Close()

	l, err := load(f, period.Range{}, noWarn)
	require.NoError(t, err)
	require.Len(t, l.intervals, 1)
	assert.InDelta(t, 20.0, l.intervals[0].DurationMin, 1e-9)
	assert.True(t, l.intervals[0].End.After(l.intervals[0].Start))
}

func TestLoadSkipsBadDatesWithWarning(t *testing.T) {
	f := rawWorkbook(t,
		[]interface{}{"sem data", "08:00:00", "09:00:00", "MB547", "COLHEDORA DE CANA", "", "", "X", "PRODUTIVA", "0", "", "", ""},
		[]interface{}{"07/10/2025 08:00:00", "08:00:00", "09:00:00", "MB547", "COLHEDORA DE CANA", "", "", "X", "PRODUTIVA", "0", "", "", ""},
	)
	defer f.Close()

	warned := 0
	l, err := load(f, period.Range{}, func(format string, args ...any) { warned++ })
	require.NoError(t, err)
	assert.Len(t, l.intervals, 1)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, l.warnings)
}

func TestLoadFiltersByReportingWindow(t *testing.T) {
	f := rawWorkbook(t,
		[]interface{}{"04/10/2025 08:00:00", "08:00:00", "09:00:00", "MB547", "COLHEDORA DE CANA", "", "", "X", "PRODUTIVA", "0", "", "", ""},
		[]interface{}{"07/10/2025 08:00:00", "08:00:00", "09:00:00", "MB547", "COLHEDORA DE CANA", "", "", "X", "PRODUTIVA", "0", "", "", ""},
	)
	defer f.Close()

	rng, ok := period.FromFilename("Relatorio_05-10-2025_11-10-2025.xlsx")
	require.True(t, ok)
	l, err := load(f, rng, noWarn)
	require.NoError(t, err)
	require.Len(t, l.intervals, 1)
	assert.Equal(t, 7, l.intervals[0].Date.Day())
}
