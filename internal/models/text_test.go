package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "MANUTENCAO", StripAccents("MANUTENÇÃO"))
	assert.Equal(t, "Codigo", StripAccents("Código"))
	assert.Equal(t, "sem acento", StripAccents("sem acento"))
}

func TestNormalizeEquipmentType(t *testing.T) {
	assert.Equal(t, "COLHEDORA", NormalizeEquipmentType(" colhedora de cana "))
	assert.Equal(t, "TRATORES", NormalizeEquipmentType("Trator Transbordo"))
	assert.Equal(t, "GRUNNER", NormalizeEquipmentType("grunner"))
}

func TestFormatGroupLabel(t *testing.T) {
	assert.Equal(t, "Manutencao", FormatGroupLabel("MANUTENÇÃO"))
	assert.Equal(t, "Sem_Operador", FormatGroupLabel("SEM OPERADOR"))
	assert.Equal(t, "", FormatGroupLabel("  "))
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "colhedora", FolderName("COLHEDORA"))
	assert.Equal(t, "colhedora", FolderName("Colhedora de Cana"))
	assert.Equal(t, "transbordo", FolderName("TRATOR TRANSBORDO"))
	assert.Equal(t, "outros", FolderName(""))
	assert.Equal(t, "pa_carregadeira", FolderName("Pá Carregadeira"))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 12.5, ParseNumber("12,5"))
	assert.Equal(t, 12.5, ParseNumber(" 12.5 "))
	assert.Equal(t, 1234.0, ParseNumber("1,234"))
	assert.Equal(t, 0.0, ParseNumber(""))
	assert.Equal(t, 0.0, ParseNumber("n/d"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"07/10/2025", "2025-10-07", "07-10-2025", "07/10/2025 14:30:00"} {
		got, err := ParseDate(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseDate("not a date")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("23:50:00")
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour+50*time.Minute, d)

	d, err = ParseClock("06:15")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour+15*time.Minute, d)
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("07/10/2025 14:30:45")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 7, 14, 30, 45, 0, time.UTC), got)
}
