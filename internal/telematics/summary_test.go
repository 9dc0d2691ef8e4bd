package telematics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(ts string, durH float64, values map[string]string) Reading {
	t, _ := time.Parse(time.RFC3339, ts)
	return Reading{Timestamp: t, Values: values, DurationH: durH, HourDelta: math.NaN()}
}

func TestComputeStatsDutyClassification(t *testing.T) {
	v := &Vehicle{
		Frota:   "547",
		Columns: []string{"Velocidade", "STATUS_DUTY", "STATUS_DEVICE"},
		Readings: []Reading{
			reading("2025-10-07T08:00:00Z", 1, map[string]string{"STATUS_DEVICE": "on", "STATUS_DUTY": "WORKING", "Velocidade": "5"}),
			reading("2025-10-07T09:00:00Z", 1, map[string]string{"STATUS_DEVICE": "on", "STATUS_DUTY": "KEYON", "Velocidade": "0"}),
			reading("2025-10-07T10:00:00Z", 1, map[string]string{"STATUS_DEVICE": "on", "STATUS_DUTY": "WORKING", "Velocidade": "0"}),
			reading("2025-10-07T11:00:00Z", 1, map[string]string{"STATUS_DEVICE": "off", "STATUS_DUTY": "OFF", "Velocidade": "0"}),
		},
	}
	s := OverallStats(v)

	assert.InDelta(t, 4.0, s.TempoRegistrado, 1e-9)
	assert.InDelta(t, 1.0, s.HorasProdutivas, 1e-9)
	// stopped WORKING and KEYON both count as idle
	assert.InDelta(t, 2.0, s.MotorOcioso, 1e-9)
	assert.InDelta(t, 1.0, s.MotorDesligado, 1e-9)

	assert.InDelta(t, 25.0, s.PctProdutivo, 1e-9)
	assert.InDelta(t, 50.0, s.PctOcioso, 1e-9)
	assert.InDelta(t, 25.0, s.PctDesligado, 1e-9)
	assert.Equal(t, 1, s.DiasUnicos)
}

func TestComputeStatsWithoutDutyColumns(t *testing.T) {
	v := &Vehicle{
		Frota:   "547",
		Columns: []string{"Velocidade"},
		Readings: []Reading{
			reading("2025-10-07T08:00:00Z", 2, map[string]string{"Velocidade": "5"}),
		},
	}
	s := OverallStats(v)
	assert.InDelta(t, 2.0, s.TempoRegistrado, 1e-9)
	assert.Zero(t, s.HorasProdutivas)
	assert.Zero(t, s.PctProdutivo)
}

func TestComputeStatsMeterRange(t *testing.T) {
	r1 := reading("2025-10-07T08:00:00Z", 1, map[string]string{"Horas Motor": "1000"})
	r1.HourDelta = 1.2
	r2 := reading("2025-10-07T09:00:00Z", math.NaN(), map[string]string{"Horas Motor": "1001.2"})

	v := &Vehicle{Frota: "547", Columns: []string{"Horas Motor"}, Readings: []Reading{r1, r2}}
	s := OverallStats(v)

	assert.InDelta(t, 1000.0, s.HoraMotorInicial, 1e-9)
	assert.InDelta(t, 1001.2, s.HoraMotorFinal, 1e-9)
	assert.InDelta(t, 1.2, s.TotalHorasMotor, 1e-9)
	// NaN trailing duration must not poison the total
	assert.InDelta(t, 1.0, s.TempoRegistrado, 1e-9)
}

func TestComputeStatsMeterColumnWithoutValues(t *testing.T) {
	v := &Vehicle{
		Frota:   "547",
		Columns: []string{"Horas Motor"},
		Readings: []Reading{
			reading("2025-10-07T08:00:00Z", 1, map[string]string{}),
		},
	}
	s := OverallStats(v)
	assert.Zero(t, s.HoraMotorInicial)
	assert.Zero(t, s.HoraMotorFinal)
}

func TestDailyStats(t *testing.T) {
	v := &Vehicle{
		Frota:   "547",
		Columns: []string{"RPM"},
		Readings: []Reading{
			reading("2025-10-07T08:00:00Z", 1, map[string]string{"RPM": "2000"}),
			reading("2025-10-08T08:00:00Z", 1, map[string]string{"RPM": "1000"}),
		},
	}
	days := DailyStats(v)
	require.Len(t, days, 2)
	assert.Equal(t, "07/10/2025", days[0].Date)
	assert.InDelta(t, 2000.0, days[0].RPM, 1e-9)
	assert.Equal(t, "08/10/2025", days[1].Date)
	assert.InDelta(t, 1000.0, days[1].RPM, 1e-9)
}

func TestTempColumns(t *testing.T) {
	cols := tempColumns([]string{"RPM", "Temperatura do óleo da transmissão", "Velocidade"})
	assert.Equal(t, []string{"Temperatura do óleo da transmissão"}, cols)
}
