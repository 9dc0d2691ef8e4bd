package telematics

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeader = "event_timestamp,lat,lon,name,numeric_value,text_value,nickname\n"

func parse(t *testing.T, body string) *Vehicle {
	t.Helper()
	v, err := ParseCSV(strings.NewReader(csvHeader + body))
	require.NoError(t, err)
	return v
}

func TestParseCSVPivotsSignals(t *testing.T) {
	v := parse(t,
		"2025-10-07T08:00:00Z,-21.1,-50.2,Rotação do Motor,2100,,MB547\n"+
			"2025-10-07T08:00:00Z,-21.1,-50.2,Velocidade de Deslocamento,5.4,,MB547\n"+
			"2025-10-07T08:05:00Z,-21.2,-50.2,Rotação do Motor,1900,,MB547\n")

	assert.Equal(t, "547", v.Frota)
	assert.Equal(t, "MB547", v.Nickname)
	require.Len(t, v.Readings, 2)

	r := v.Readings[0]
	assert.Equal(t, "2100", r.Values["RPM"])
	assert.Equal(t, "5.4", r.Values["Velocidade"])

	// preferred signals lead the column order
	assert.Equal(t, []string{"Velocidade", "RPM"}, v.Columns)
}

func TestParseCSVFirstValueWinsPerTimestamp(t *testing.T) {
	// two raw signals rename to the same canonical column
	v := parse(t,
		"2025-10-07T08:00:00Z,-21.1,-50.2,Rotação do Motor,2100,,MB547\n"+
			"2025-10-07T08:00:00Z,-21.1,-50.2,Rotação do Motor Baixa,700,,MB547\n")
	require.Len(t, v.Readings, 1)
	assert.Equal(t, "2100", v.Readings[0].Values["RPM"])
}

func TestParseCSVComputesShiftedDeltas(t *testing.T) {
	v := parse(t,
		"2025-10-07T08:00:00Z,-21.1,-50.2,Horas de Motor,1000.0,,MB547\n"+
			"2025-10-07T09:30:00Z,-21.2,-50.2,Horas de Motor,1001.2,,MB547\n")
	require.Len(t, v.Readings, 2)

	assert.InDelta(t, 1.5, v.Readings[0].DurationH, 1e-9)
	assert.InDelta(t, 1.2, v.Readings[0].HourDelta, 1e-9)

	// no next reading: both deltas undefined
	assert.True(t, math.IsNaN(v.Readings[1].DurationH))
	assert.True(t, math.IsNaN(v.Readings[1].HourDelta))
}

func TestParseCSVSemicolonSeparator(t *testing.T) {
	body := "event_timestamp;lat;lon;name;numeric_value;text_value;nickname\n" +
		"2025-10-07T08:00:00Z;-21.1;-50.2;Velocidade de GPS;3,5;;Frota 235\n"
	v, err := ParseCSV(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "235", v.Frota)
	require.Len(t, v.Readings, 1)
	assert.Equal(t, "3,5", v.Readings[0].Values["Velocidade"])
}

func TestParseCSVWithoutNickname(t *testing.T) {
	body := "event_timestamp,lat,lon,name,numeric_value,text_value\n" +
		"2025-10-07T08:00:00Z,-21.1,-50.2,Rotação do Motor,2100,\n"
	v, err := ParseCSV(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "SEM_NICKNAME", v.Frota)
}

func TestParseCSVTextValueWins(t *testing.T) {
	v := parse(t, "2025-10-07T08:00:00Z,-21.1,-50.2,STATUS_DUTY,1,WORKING,MB547\n")
	require.Len(t, v.Readings, 1)
	assert.Equal(t, "WORKING", v.Readings[0].Values["STATUS_DUTY"])
}

func TestParseCSVRejectsEmptyAndHeaderless(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.Error(t, err)
}

func TestDays(t *testing.T) {
	v := parse(t,
		"2025-10-08T08:00:00Z,-21.1,-50.2,Rotação do Motor,2100,,MB547\n"+
			"2025-10-07T23:00:00Z,-21.1,-50.2,Rotação do Motor,2000,,MB547\n"+
			"2025-10-07T08:00:00Z,-21.1,-50.2,Rotação do Motor,1800,,MB547\n")
	assert.Equal(t, []string{"2025-10-07", "2025-10-08"}, v.Days())
}
