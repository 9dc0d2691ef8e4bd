package telematics

import (
	"math"
	"strings"
)

// Stats summarizes one vehicle's readings, either for its whole stream
// or for a single day.
type Stats struct {
	Date     string
	Frota    string
	Nickname string

	HoraMotorInicial float64
	HoraMotorFinal   float64
	TotalHorasMotor  float64

	RPM float64

	TempoRegistrado float64
	DiasUnicos      int

	HorasProdutivas float64
	MotorOcioso     float64
	MotorDesligado  float64
	PctProdutivo    float64
	PctOcioso       float64
	PctDesligado    float64

	TempMeans       map[string]float64
	VelocidadeMedia float64
}

// tempColumns lists the temperature signal columns present in the
// stream; their per-vehicle means go into the summary sheets.
func tempColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), "temp") {
			out = append(out, c)
		}
	}
	return out
}

func mean(readings []Reading, column string) float64 {
	var sum float64
	var n int
	for _, r := range readings {
		if v, ok := parseFloat(r.Values[column]); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func addHours(total *float64, h float64) {
	if !math.IsNaN(h) {
		*total += h
	}
}

// computeStats aggregates a slice of readings. Duty classification
// requires both status columns; without them the duty hours stay zero.
func computeStats(v *Vehicle, readings []Reading, date string) Stats {
	s := Stats{
		Date:      date,
		Frota:     v.Frota,
		Nickname:  v.Nickname,
		TempMeans: map[string]float64{},
	}

	if v.HasColumn("Horas Motor") {
		s.HoraMotorInicial = math.Inf(1)
		s.HoraMotorFinal = math.Inf(-1)
		found := false
		for _, r := range readings {
			if hm, ok := parseFloat(r.Values["Horas Motor"]); ok {
				found = true
				if hm < s.HoraMotorInicial {
					s.HoraMotorInicial = hm
				}
				if hm > s.HoraMotorFinal {
					s.HoraMotorFinal = hm
				}
			}
			addHours(&s.TotalHorasMotor, r.HourDelta)
		}
		if !found {
			s.HoraMotorInicial, s.HoraMotorFinal = 0, 0
		}
	}

	if v.HasColumn("RPM") {
		s.RPM = mean(readings, "RPM")
	}
	if v.HasColumn("Velocidade") {
		s.VelocidadeMedia = mean(readings, "Velocidade")
	}
	for _, c := range tempColumns(v.Columns) {
		s.TempMeans[c] = mean(readings, c)
	}

	hasDuty := v.HasColumn("STATUS_DUTY") && v.HasColumn("STATUS_DEVICE")
	for _, r := range readings {
		addHours(&s.TempoRegistrado, r.DurationH)
		if !hasDuty {
			continue
		}
		device := strings.ToLower(strings.TrimSpace(r.Values["STATUS_DEVICE"]))
		duty := strings.ToUpper(strings.TrimSpace(r.Values["STATUS_DUTY"]))
		vel, _ := parseFloat(r.Values["Velocidade"])

		if device == "on" && duty == "WORKING" && vel > 0 {
			addHours(&s.HorasProdutivas, r.DurationH)
		}
		if device == "on" && (duty == "KEYON" || vel == 0) {
			addHours(&s.MotorOcioso, r.DurationH)
		}
		if duty == "OFF" {
			addHours(&s.MotorDesligado, r.DurationH)
		}
	}

	if s.TempoRegistrado > 0 {
		s.PctProdutivo = s.HorasProdutivas / s.TempoRegistrado * 100
		s.PctOcioso = s.MotorOcioso / s.TempoRegistrado * 100
		s.PctDesligado = s.MotorDesligado / s.TempoRegistrado * 100
	}
	return s
}

// OverallStats summarizes the vehicle's whole stream.
func OverallStats(v *Vehicle) Stats {
	s := computeStats(v, v.Readings, "")
	s.DiasUnicos = len(v.Days())
	return s
}

// DailyStats summarizes each day of the vehicle's stream in order.
func DailyStats(v *Vehicle) []Stats {
	byDay := map[string][]Reading{}
	for _, r := range v.Readings {
		d := r.Timestamp.Format("2006-01-02")
		byDay[d] = append(byDay[d], r)
	}
	var out []Stats
	for _, day := range v.Days() {
		readings := byDay[day]
		t := readings[0].Timestamp
		out = append(out, computeStats(v, readings, t.Format("02/01/2006")))
	}
	return out
}
