package treatment

import (
	"sort"
	"strings"

	"frota-etl/internal/models"
)

// TopOffenders returns, for every unit and day, the five unproductive
// operations that consumed the most time. Percentages are taken over
// the unit's full recorded day. Ties break alphabetically by
// operation.
func TopOffenders(rows []models.OperationInterval) []models.TopOffender {
	type dayKey struct{ day, unit string }
	type opKey struct {
		day, unit, op string
	}

	totalMin := map[dayKey]float64{}
	improdMin := map[opKey]float64{}
	unitTypes := map[dayKey]string{}
	for _, iv := range rows {
		dk := dayKey{iv.Date.Format(models.DateISO), iv.UnitCode}
		totalMin[dk] += iv.DurationMin
		unitTypes[dk] = iv.UnitType
		if iv.Group == groupImprodutiva && iv.DurationMin > 0 {
			improdMin[opKey{dk.day, dk.unit, iv.Operation}] += iv.DurationMin
		}
	}

	perDay := map[dayKey][]models.TopOffender{}
	for k, min := range improdMin {
		dk := dayKey{k.day, k.unit}
		date, _ := models.ParseDate(k.day)
		o := models.TopOffender{
			Date:          date,
			UnitCode:      k.unit,
			UnitType:      unitTypes[dk],
			Operation:     k.op,
			DuracaoImprod: min / 60,
			TotalHorasDia: totalMin[dk] / 60,
		}
		if totalMin[dk] > 0 {
			o.Porcentagem = min / totalMin[dk] * 100
		}
		perDay[dk] = append(perDay[dk], o)
	}

	dayKeys := make([]dayKey, 0, len(perDay))
	for k := range perDay {
		dayKeys = append(dayKeys, k)
	}
	sort.Slice(dayKeys, func(i, j int) bool {
		if dayKeys[i].unit != dayKeys[j].unit {
			return dayKeys[i].unit < dayKeys[j].unit
		}
		return dayKeys[i].day < dayKeys[j].day
	})

	var out []models.TopOffender
	for _, dk := range dayKeys {
		offs := perDay[dk]
		sort.Slice(offs, func(i, j int) bool {
			if offs[i].DuracaoImprod != offs[j].DuracaoImprod {
				return offs[i].DuracaoImprod > offs[j].DuracaoImprod
			}
			return offs[i].Operation < offs[j].Operation
		})
		if len(offs) > 5 {
			offs = offs[:5]
		}
		out = append(out, offs...)
	}
	return out
}

// NormalizeGroup collapses the free-form operation group into the
// three timeline states: PRODUTIVA, MANUTENCAO and DISPONIVEL.
func NormalizeGroup(group string) string {
	g := strings.ToUpper(models.StripAccents(strings.TrimSpace(group)))
	switch {
	case strings.Contains(g, "PRODUTIVA") && !strings.Contains(g, "IMPRODUTIVA"):
		return "PRODUTIVA"
	case strings.Contains(g, "MANUTEN"):
		return "MANUTENCAO"
	default:
		return "DISPONIVEL"
	}
}

// Intervals extracts the timeline entries used by gantt views and the
// washing and roller reports, sorted by unit then start time.
func Intervals(rows []models.OperationInterval) []models.IntervalEntry {
	out := make([]models.IntervalEntry, 0, len(rows))
	for _, iv := range rows {
		out = append(out, models.IntervalEntry{
			Date:      iv.Date,
			UnitCode:  iv.UnitCode,
			UnitType:  iv.UnitType,
			Operation: iv.Operation,
			Group:     NormalizeGroup(iv.Group),
			Start:     iv.Start,
			End:       iv.End,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitCode != out[j].UnitCode {
			return out[i].UnitCode < out[j].UnitCode
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
