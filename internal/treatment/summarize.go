package treatment

import (
	"sort"
	"strings"

	"frota-etl/internal/models"
)

// buckets are the per-interval duty durations, all in minutes.
type buckets struct {
	total      float64
	prod       float64
	improd     float64
	extraGroup string

	manobra    float64
	transbordo float64
	semApont   float64
	colheita   float64
	vazio      float64
	carregado  float64

	motorOcioso float64
	motorLigado float64

	velColheitaX  float64
	velVazioX     float64
	velCarregadoX float64

	cntManobra    int
	cntTransbordo int
}

// classify assigns one interval's duration to its duty buckets.
func classify(iv models.OperationInterval) buckets {
	b := buckets{total: iv.DurationMin}

	switch iv.Group {
	case groupProdutiva:
		b.prod = iv.DurationMin
	case groupImprodutiva:
		b.improd = iv.DurationMin
	case "":
	default:
		b.extraGroup = models.FormatGroupLabel(iv.Group)
	}

	switch iv.Operation {
	case opManobra:
		b.manobra = iv.DurationMin
		b.cntManobra = 1
	case opTransbordo:
		b.transbordo = iv.DurationMin
		b.cntTransbordo = 1
	case opSemApont:
		b.semApont = iv.DurationMin
	case opDeslVazio:
		b.vazio = iv.DurationMin
		b.velVazioX = iv.AvgSpeed * iv.DurationMin
	case opDeslCarreg:
		b.carregado = iv.DurationMin
		b.velCarregadoX = iv.AvgSpeed * iv.DurationMin
	case opColhendo, opCarregando:
		b.colheita = iv.DurationMin
		b.velColheitaX = iv.AvgSpeed * iv.DurationMin
	}

	// Idle means the hour meter moved while the unit stood still on an
	// unproductive appointment. Running means the meter advanced.
	if iv.HourMeterDelta != 0 && iv.AvgSpeed == 0 && iv.Group == groupImprodutiva {
		b.motorOcioso = iv.DurationMin
	}
	if iv.HourMeterDelta > 0 {
		b.motorLigado = iv.DurationMin
	}
	return b
}

type acc struct {
	buckets
	groupMin map[string]float64
	units    map[string]bool
}

func (a *acc) add(b buckets, unitCode string) {
	a.total += b.total
	a.prod += b.prod
	a.improd += b.improd
	a.manobra += b.manobra
	a.transbordo += b.transbordo
	a.semApont += b.semApont
	a.colheita += b.colheita
	a.vazio += b.vazio
	a.carregado += b.carregado
	a.motorOcioso += b.motorOcioso
	a.motorLigado += b.motorLigado
	a.velColheitaX += b.velColheitaX
	a.velVazioX += b.velVazioX
	a.velCarregadoX += b.velCarregadoX
	a.cntManobra += b.cntManobra
	a.cntTransbordo += b.cntTransbordo
	if b.extraGroup != "" {
		if a.groupMin == nil {
			a.groupMin = map[string]float64{}
		}
		a.groupMin[b.extraGroup] += b.total
	}
	if unitCode != "" {
		if a.units == nil {
			a.units = map[string]bool{}
		}
		a.units[unitCode] = true
	}
}

func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}

func weightedMean(sum, minutes float64) *float64 {
	if minutes > 0 {
		v := sum / minutes
		return &v
	}
	return nil
}

// maintenanceLabel finds the group label whose hours column counts as
// maintenance time, e.g. "Manutencao".
func maintenanceLabel(labels []string) string {
	for _, l := range labels {
		flat := strings.ToLower(strings.ReplaceAll(l, "_", ""))
		if strings.HasPrefix(flat, "manut") {
			return l
		}
	}
	return ""
}

// groupLabels returns the sorted union of extra group labels across
// all intervals, so every summary carries the same hour columns.
func groupLabels(rows []models.OperationInterval) []string {
	set := map[string]bool{}
	for _, iv := range rows {
		if iv.Group != "" && iv.Group != groupProdutiva && iv.Group != groupImprodutiva {
			set[models.FormatGroupLabel(iv.Group)] = true
		}
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func fullGroupHours(groupMin map[string]float64, labels []string) map[string]float64 {
	gh := make(map[string]float64, len(labels))
	for _, l := range labels {
		gh[l] = groupMin[l] / 60
	}
	return gh
}

// SummarizeUnits aggregates intervals into one summary per unit per
// day, ordered by date then unit code.
func SummarizeUnits(rows []models.OperationInterval) []models.DailyUnitSummary {
	labels := groupLabels(rows)
	maint := maintenanceLabel(labels)

	type key struct {
		day  string
		unit string
	}
	accs := map[key]*acc{}
	types := map[key]string{}
	for _, iv := range rows {
		k := key{iv.Date.Format(models.DateISO), iv.UnitCode}
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
			types[k] = iv.UnitType
		}
		a.add(classify(iv), "")
	}

	keys := make([]key, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].unit < keys[j].unit
	})

	out := make([]models.DailyUnitSummary, 0, len(keys))
	for _, k := range keys {
		a := accs[k]
		date, _ := models.ParseDate(k.day)
		s := models.DailyUnitSummary{
			Date:     date,
			UnitCode: k.unit,
			UnitType: types[k],

			HorasRegistradas:  a.total / 60,
			HorasProdutivas:   a.prod / 60,
			HorasImprodutivas: a.improd / 60,
			GroupHours:        fullGroupHours(a.groupMin, labels),

			HorasMotorLigado: a.motorLigado / 60,
			HorasMotorOcioso: a.motorOcioso / 60,

			TempoSemApontamento: a.semApont / 60,

			TempoTotalManobras:    a.manobra / 60,
			QuantidadeManobras:    a.cntManobra,
			TempoMedioManobras:    ratio(a.manobra, float64(a.cntManobra)),
			TempoTotalTransbordo:  a.transbordo / 60,
			QuantidadeTransbordos: a.cntTransbordo,
			TempoMedioTransbordo:  ratio(a.transbordo, float64(a.cntTransbordo)),

			VelColheitaMedia:      weightedMean(a.velColheitaX, a.colheita),
			VelDeslVazioMedia:     weightedMean(a.velVazioX, a.vazio),
			VelDeslCarregadoMedia: weightedMean(a.velCarregadoX, a.carregado),
		}
		s.PorcentagemMotorLigado = ratio(s.HorasMotorLigado, s.HorasRegistradas) * 100
		s.PorcentagemMotorOcioso = ratio(s.HorasMotorOcioso, s.HorasRegistradas) * 100
		s.PorcentagemSemApontamento = ratio(s.TempoSemApontamento, s.HorasRegistradas) * 100
		s.EficienciaEnergetica = ratio(s.HorasProdutivas, s.HorasMotorLigado)
		s.EficienciaOperacional = ratio(s.HorasProdutivas, s.HorasRegistradas)
		if maint != "" {
			var d float64
			if s.HorasRegistradas > 0 {
				d = 1 - s.GroupHours[maint]/s.HorasRegistradas
			}
			s.DisponibilidadeMecanica = &d
		}
		out = append(out, s)
	}
	return out
}

// SummarizeOperators aggregates intervals into one summary per
// operator per day, split by equipment type. FrotasNoDia lists the
// unit codes the operator worked on.
func SummarizeOperators(rows []models.OperationInterval) []models.DailyOperatorSummary {
	labels := groupLabels(rows)

	type key struct {
		day      string
		code     string
		name     string
		unitType string
	}
	accs := map[key]*acc{}
	for _, iv := range rows {
		k := key{iv.Date.Format(models.DateISO), iv.OperatorCode, iv.OperatorName, iv.UnitType}
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
		}
		a.add(classify(iv), iv.UnitCode)
	}

	keys := make([]key, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.day != b.day {
			return a.day < b.day
		}
		if a.code != b.code {
			return a.code < b.code
		}
		return a.unitType < b.unitType
	})

	out := make([]models.DailyOperatorSummary, 0, len(keys))
	for _, k := range keys {
		a := accs[k]
		date, _ := models.ParseDate(k.day)

		units := make([]string, 0, len(a.units))
		for u := range a.units {
			units = append(units, u)
		}
		sort.Strings(units)

		s := models.DailyOperatorSummary{
			Date:         date,
			OperatorCode: k.code,
			OperatorName: k.name,
			UnitType:     k.unitType,
			FrotasNoDia:  strings.Join(units, ", "),

			HorasRegistradas:  a.total / 60,
			HorasProdutivas:   a.prod / 60,
			HorasImprodutivas: a.improd / 60,
			GroupHours:        fullGroupHours(a.groupMin, labels),

			HorasMotorLigado: a.motorLigado / 60,
			HorasMotorOcioso: a.motorOcioso / 60,

			TempoSemApontamento: a.semApont / 60,

			TempoTotalManobras:    a.manobra / 60,
			QuantidadeManobras:    a.cntManobra,
			TempoMedioManobras:    ratio(a.manobra, float64(a.cntManobra)),
			TempoTotalTransbordo:  a.transbordo / 60,
			QuantidadeTransbordos: a.cntTransbordo,
			TempoMedioTransbordo:  ratio(a.transbordo, float64(a.cntTransbordo)),

			VelColheitaMedia:      weightedMean(a.velColheitaX, a.colheita),
			VelDeslVazioMedia:     weightedMean(a.velVazioX, a.vazio),
			VelDeslCarregadoMedia: weightedMean(a.velCarregadoX, a.carregado),
		}
		s.PorcentagemMotorLigado = ratio(s.HorasMotorLigado, s.HorasRegistradas) * 100
		s.PorcentagemMotorOcioso = ratio(s.HorasMotorOcioso, s.HorasRegistradas) * 100
		s.PorcentagemSemApontamento = ratio(s.TempoSemApontamento, s.HorasRegistradas) * 100
		s.EficienciaEnergetica = ratio(s.HorasProdutivas, s.HorasMotorLigado)
		s.EficienciaOperacional = ratio(s.HorasProdutivas, s.HorasRegistradas)
		out = append(out, s)
	}
	return out
}

// RollupUnits collapses daily unit summaries into one row per unit for
// the whole period.
func RollupUnits(daily []models.DailyUnitSummary) []models.PeriodUnitSummary {
	labelSet := map[string]bool{}
	for _, d := range daily {
		for l := range d.GroupHours {
			labelSet[l] = true
		}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	maint := maintenanceLabel(labels)

	type key struct{ unit, unitType string }
	sums := map[key]*models.PeriodUnitSummary{}
	days := map[key]map[string]bool{}
	var order []key
	for _, d := range daily {
		k := key{d.UnitCode, d.UnitType}
		p := sums[k]
		if p == nil {
			p = &models.PeriodUnitSummary{
				UnitCode:   d.UnitCode,
				UnitType:   d.UnitType,
				GroupHours: map[string]float64{},
			}
			for _, l := range labels {
				p.GroupHours[l] = 0
			}
			sums[k] = p
			days[k] = map[string]bool{}
			order = append(order, k)
		}
		p.HorasRegistradas += d.HorasRegistradas
		p.HorasProdutivas += d.HorasProdutivas
		p.HorasImprodutivas += d.HorasImprodutivas
		p.HorasMotorLigado += d.HorasMotorLigado
		p.HorasMotorOcioso += d.HorasMotorOcioso
		p.TempoSemApontamento += d.TempoSemApontamento
		for l, h := range d.GroupHours {
			p.GroupHours[l] += h
		}
		days[k][d.Date.Format(models.DateISO)] = true
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].unit != order[j].unit {
			return order[i].unit < order[j].unit
		}
		return order[i].unitType < order[j].unitType
	})

	out := make([]models.PeriodUnitSummary, 0, len(order))
	for _, k := range order {
		p := sums[k]
		p.DiasComDados = len(days[k])
		p.HorasMediaPorDia = ratio(p.HorasRegistradas, float64(p.DiasComDados))
		p.HorasOciosoMediaPorDia = ratio(p.HorasMotorOcioso, float64(p.DiasComDados))
		p.EficienciaEnergetica = ratio(p.HorasProdutivas, p.HorasMotorLigado)
		p.EficienciaOperacional = ratio(p.HorasProdutivas, p.HorasRegistradas)
		p.PorcentagemMotorLigado = ratio(p.HorasMotorLigado, p.HorasRegistradas) * 100
		p.PorcentagemMotorOcioso = ratio(p.HorasMotorOcioso, p.HorasRegistradas) * 100
		p.PorcentagemSemApontamento = ratio(p.TempoSemApontamento, p.HorasRegistradas) * 100
		if maint != "" {
			var d float64
			if p.HorasRegistradas > 0 {
				d = 1 - p.GroupHours[maint]/p.HorasRegistradas
			}
			p.DisponibilidadeMecanica = &d
		}
		out = append(out, *p)
	}
	return out
}

// RollupOperators collapses daily operator summaries into one row per
// operator and equipment type for the whole period.
func RollupOperators(daily []models.DailyOperatorSummary) []models.PeriodOperatorSummary {
	labelSet := map[string]bool{}
	for _, d := range daily {
		for l := range d.GroupHours {
			labelSet[l] = true
		}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	type key struct{ code, name, unitType string }
	sums := map[key]*models.PeriodOperatorSummary{}
	days := map[key]map[string]bool{}
	var order []key
	for _, d := range daily {
		k := key{d.OperatorCode, d.OperatorName, d.UnitType}
		p := sums[k]
		if p == nil {
			p = &models.PeriodOperatorSummary{
				OperatorCode: d.OperatorCode,
				OperatorName: d.OperatorName,
				UnitType:     d.UnitType,
				GroupHours:   map[string]float64{},
			}
			for _, l := range labels {
				p.GroupHours[l] = 0
			}
			sums[k] = p
			days[k] = map[string]bool{}
			order = append(order, k)
		}
		p.HorasRegistradas += d.HorasRegistradas
		p.HorasProdutivas += d.HorasProdutivas
		p.HorasImprodutivas += d.HorasImprodutivas
		p.HorasMotorLigado += d.HorasMotorLigado
		p.HorasMotorOcioso += d.HorasMotorOcioso
		p.TempoSemApontamento += d.TempoSemApontamento
		for l, h := range d.GroupHours {
			p.GroupHours[l] += h
		}
		days[k][d.Date.Format(models.DateISO)] = true
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.code != b.code {
			return a.code < b.code
		}
		return a.unitType < b.unitType
	})

	out := make([]models.PeriodOperatorSummary, 0, len(order))
	for _, k := range order {
		p := sums[k]
		p.DiasComDados = len(days[k])
		p.HorasMediaPorDia = ratio(p.HorasRegistradas, float64(p.DiasComDados))
		p.HorasOciosoMediaPorDia = ratio(p.HorasMotorOcioso, float64(p.DiasComDados))
		p.EficienciaEnergetica = ratio(p.HorasProdutivas, p.HorasMotorLigado)
		p.EficienciaOperacional = ratio(p.HorasProdutivas, p.HorasRegistradas)
		p.PorcentagemMotorLigado = ratio(p.HorasMotorLigado, p.HorasRegistradas) * 100
		p.PorcentagemMotorOcioso = ratio(p.HorasMotorOcioso, p.HorasRegistradas) * 100
		p.PorcentagemSemApontamento = ratio(p.TempoSemApontamento, p.HorasRegistradas) * 100
		out = append(out, *p)
	}
	return out
}
