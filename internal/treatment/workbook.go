package treatment

import (
	"sort"
	"strings"
	"time"

	"frota-etl/internal/models"
	"frota-etl/internal/sheet"
)

func fmtDate(t time.Time) string {
	return t.Format(models.DateBR)
}

func optFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func buildOriginal(l *loaded) sheet.Table {
	t := sheet.Table{Name: "Original", Headers: l.headers}
	for _, row := range l.raw {
		cells := make([]any, len(row))
		for i, v := range row {
			if v != "" {
				cells[i] = v
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// buildTratado reproduces the raw rows minus the administrative
// columns, with the derived duration and engine columns inserted next
// to their source columns.
func buildTratado(l *loaded, cm columnMap) sheet.Table {
	removed := map[string]bool{}
	for _, c := range removedColumns {
		removed[normalizeHeader(c)] = true
	}

	const (
		derivedDuracao = iota + 1
		derivedDif
		derivedLigado
		derivedOcioso
	)
	type colSpec struct {
		raw     int
		derived int
	}

	var specs []colSpec
	var headers []string
	inserted := map[int]bool{}
	addDerived := func(id int, name string) {
		specs = append(specs, colSpec{raw: -1, derived: id})
		headers = append(headers, name)
		inserted[id] = true
	}
	for i, h := range l.headers {
		norm := normalizeHeader(h)
		if removed[norm] {
			continue
		}
		if norm == normalizeHeader(colVelMedia) {
			addDerived(derivedDif, "Dif_Horimetro")
			addDerived(derivedLigado, "Motor Ligado")
			addDerived(derivedOcioso, "Motor Ocioso")
		}
		specs = append(specs, colSpec{raw: i})
		headers = append(headers, h)
		if norm == normalizeHeader(colHoraFinal) {
			addDerived(derivedDuracao, "Duração")
		}
	}
	if !inserted[derivedDuracao] {
		addDerived(derivedDuracao, "Duração")
	}
	if !inserted[derivedDif] {
		addDerived(derivedDif, "Dif_Horimetro")
		addDerived(derivedLigado, "Motor Ligado")
		addDerived(derivedOcioso, "Motor Ocioso")
	}

	t := sheet.Table{Name: "Tratado", Headers: headers}
	for r, row := range l.raw {
		iv := l.intervals[r]
		cells := make([]any, len(specs))
		for c, spec := range specs {
			switch spec.derived {
			case derivedDuracao:
				cells[c] = iv.DurationMin / 60
			case derivedDif:
				cells[c] = iv.HourMeterDelta
			case derivedLigado:
				if iv.HourMeterDelta > 0 {
					cells[c] = iv.DurationMin / 60
				} else {
					cells[c] = 0.0
				}
			case derivedOcioso:
				if iv.HourMeterDelta != 0 && iv.AvgSpeed == 0 && iv.Group == groupImprodutiva {
					cells[c] = iv.DurationMin / 60
				} else {
					cells[c] = 0.0
				}
			default:
				v := cell(row, spec.raw)
				if spec.raw == cm.unitType {
					v = models.NormalizeEquipmentType(v)
				}
				if v != "" {
					cells[c] = v
				}
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// dropZeroColumns removes columns whose every value is zero or empty,
// mirroring how all-idle metrics are hidden per equipment type.
func dropZeroColumns(t sheet.Table) sheet.Table {
	keep := make([]bool, len(t.Headers))
	for c := range t.Headers {
		for _, row := range t.Rows {
			if c >= len(row) || row[c] == nil {
				continue
			}
			switch v := row[c].(type) {
			case float64:
				if v != 0 {
					keep[c] = true
				}
			case int:
				if v != 0 {
					keep[c] = true
				}
			default:
				keep[c] = true
			}
			if keep[c] {
				break
			}
		}
	}
	out := sheet.Table{Name: t.Name}
	for c, ok := range keep {
		if ok {
			out.Headers = append(out.Headers, t.Headers[c])
		}
	}
	for _, row := range t.Rows {
		var cells []any
		for c, ok := range keep {
			if !ok {
				continue
			}
			if c < len(row) {
				cells = append(cells, row[c])
			} else {
				cells = append(cells, nil)
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func dropColumn(t sheet.Table, name string) sheet.Table {
	idx := -1
	for i, h := range t.Headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return t
	}
	out := sheet.Table{Name: t.Name}
	out.Headers = append(append([]string{}, t.Headers[:idx]...), t.Headers[idx+1:]...)
	for _, row := range t.Rows {
		if idx < len(row) {
			row = append(append([]any{}, row[:idx]...), row[idx+1:]...)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func metricHeaders(labels []string, maint string, withDisp bool) []string {
	headers := []string{"Horas_Registradas", "Horas_Produtivas", "Horas_Improdutivas"}
	for _, l := range labels {
		headers = append(headers, "Horas_"+l)
		if withDisp && l == maint {
			headers = append(headers, "Disponibilidade_Mecanica")
		}
	}
	return append(headers,
		"Horas_Motor_Ligado",
		"Porcentagem_Motor_Ligado",
		"Horas_Motor_Ocioso",
		"Porcentagem_Motor_Ocioso",
		"Tempo_Sem_Apontamento_h",
		"Porcentagem_Sem_Apontamento",
		"Eficiencia_Energetica",
		"Eficiencia_Operacional",
		"Tempo_Total_Manobras_h",
		"Quantidade_Manobras",
		"Tempo_Medio_Manobras_min",
		"Tempo_Total_Transbordo_h",
		"Quantidade_Transbordos",
		"Tempo_Medio_Transbordo_min",
	)
}

func sortedLabels(groupHours map[string]float64) []string {
	labels := make([]string, 0, len(groupHours))
	for l := range groupHours {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// unitDaySheets builds one {TYPE}_Dia sheet per equipment type.
func unitDaySheets(sums []models.DailyUnitSummary) []sheet.Table {
	if len(sums) == 0 {
		return nil
	}
	labels := sortedLabels(sums[0].GroupHours)
	maint := maintenanceLabel(labels)

	byType := map[string][]models.DailyUnitSummary{}
	for _, s := range sums {
		byType[s.UnitType] = append(byType[s.UnitType], s)
	}
	types := make([]string, 0, len(byType))
	for tp := range byType {
		types = append(types, tp)
	}
	sort.Strings(types)

	var out []sheet.Table
	for _, tp := range types {
		t := sheet.Table{
			Name:    sheet.SafeName("", tp, "_Dia"),
			Headers: append([]string{"Data", colCodigoEquip}, metricHeaders(labels, maint, true)...),
		}
		t.Headers = append(t.Headers, "Vel_Colheita_media", "Vel_Desl_Vazio_media", "Vel_Desl_Carregado_media")
		for _, s := range byType[tp] {
			row := []any{fmtDate(s.Date), s.UnitCode, s.HorasRegistradas, s.HorasProdutivas, s.HorasImprodutivas}
			for _, l := range labels {
				row = append(row, s.GroupHours[l])
				if l == maint {
					row = append(row, optFloat(s.DisponibilidadeMecanica))
				}
			}
			row = append(row,
				s.HorasMotorLigado, s.PorcentagemMotorLigado,
				s.HorasMotorOcioso, s.PorcentagemMotorOcioso,
				s.TempoSemApontamento, s.PorcentagemSemApontamento,
				s.EficienciaEnergetica, s.EficienciaOperacional,
				s.TempoTotalManobras, s.QuantidadeManobras, s.TempoMedioManobras,
				s.TempoTotalTransbordo, s.QuantidadeTransbordos, s.TempoMedioTransbordo,
				optFloat(s.VelColheitaMedia), optFloat(s.VelDeslVazioMedia), optFloat(s.VelDeslCarregadoMedia),
			)
			t.Rows = append(t.Rows, row)
		}
		t = dropZeroColumns(t)
		if strings.Contains(strings.ToUpper(tp), "TRANSBORDO") {
			t = dropColumn(t, "Vel_Colheita_media")
		}
		out = append(out, t)
	}
	return out
}

// operatorSheets builds one Operadores_{TYPE} sheet per equipment type.
func operatorSheets(sums []models.DailyOperatorSummary) []sheet.Table {
	if len(sums) == 0 {
		return nil
	}
	labels := sortedLabels(sums[0].GroupHours)

	byType := map[string][]models.DailyOperatorSummary{}
	for _, s := range sums {
		byType[s.UnitType] = append(byType[s.UnitType], s)
	}
	types := make([]string, 0, len(byType))
	for tp := range byType {
		types = append(types, tp)
	}
	sort.Strings(types)

	var out []sheet.Table
	for _, tp := range types {
		t := sheet.Table{
			Name:    sheet.SafeName("Operadores_", tp, ""),
			Headers: append([]string{"Data", colCodigoOp, colNomeOp}, metricHeaders(labels, "", false)...),
		}
		t.Headers = append(t.Headers, "Frotas_no_dia", "Vel_Colheita_media", "Vel_Desl_Vazio_media", "Vel_Desl_Carregado_media")
		for _, s := range byType[tp] {
			row := []any{fmtDate(s.Date), s.OperatorCode, s.OperatorName, s.HorasRegistradas, s.HorasProdutivas, s.HorasImprodutivas}
			for _, l := range labels {
				row = append(row, s.GroupHours[l])
			}
			row = append(row,
				s.HorasMotorLigado, s.PorcentagemMotorLigado,
				s.HorasMotorOcioso, s.PorcentagemMotorOcioso,
				s.TempoSemApontamento, s.PorcentagemSemApontamento,
				s.EficienciaEnergetica, s.EficienciaOperacional,
				s.TempoTotalManobras, s.QuantidadeManobras, s.TempoMedioManobras,
				s.TempoTotalTransbordo, s.QuantidadeTransbordos, s.TempoMedioTransbordo,
				s.FrotasNoDia,
				optFloat(s.VelColheitaMedia), optFloat(s.VelDeslVazioMedia), optFloat(s.VelDeslCarregadoMedia),
			)
			t.Rows = append(t.Rows, row)
		}
		t = dropZeroColumns(t)
		if strings.Contains(strings.ToUpper(tp), "TRANSBORDO") {
			t = dropColumn(t, "Vel_Colheita_media")
		}
		out = append(out, t)
	}
	return out
}

func periodUnitTable(sums []models.PeriodUnitSummary) sheet.Table {
	t := sheet.Table{Name: "Periodo_Equipamentos"}
	if len(sums) == 0 {
		return t
	}
	labels := sortedLabels(sums[0].GroupHours)
	maint := maintenanceLabel(labels)

	t.Headers = []string{colCodigoEquip, colDescEquip, "Horas_Registradas_total", "Horas_Produtivas_total", "Horas_Improdutivas_total"}
	for _, l := range labels {
		t.Headers = append(t.Headers, "Horas_"+l+"_total")
		if l == maint {
			t.Headers = append(t.Headers, "Disponibilidade_Mecanica")
		}
	}
	t.Headers = append(t.Headers,
		"Horas_Motor_Ligado_total",
		"Porcentagem_Motor_Ligado",
		"Horas_Motor_Ocioso_total",
		"Porcentagem_Motor_Ocioso",
		"Tempo_Sem_Apontamento_h_total",
		"Porcentagem_Sem_Apontamento",
		"Eficiencia_Energetica",
		"Eficiencia_Operacional",
		"Dias_com_dados",
		"Horas_media_por_dia",
		"Horas_Motor_Ocioso_media_por_dia",
	)
	for _, s := range sums {
		row := []any{s.UnitCode, s.UnitType, s.HorasRegistradas, s.HorasProdutivas, s.HorasImprodutivas}
		for _, l := range labels {
			row = append(row, s.GroupHours[l])
			if l == maint {
				row = append(row, optFloat(s.DisponibilidadeMecanica))
			}
		}
		row = append(row,
			s.HorasMotorLigado, s.PorcentagemMotorLigado,
			s.HorasMotorOcioso, s.PorcentagemMotorOcioso,
			s.TempoSemApontamento, s.PorcentagemSemApontamento,
			s.EficienciaEnergetica, s.EficienciaOperacional,
			s.DiasComDados, s.HorasMediaPorDia, s.HorasOciosoMediaPorDia,
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func periodOperatorTable(sums []models.PeriodOperatorSummary) sheet.Table {
	t := sheet.Table{Name: "Periodo_Operadores"}
	if len(sums) == 0 {
		return t
	}
	labels := sortedLabels(sums[0].GroupHours)

	t.Headers = []string{colCodigoOp, colNomeOp, colDescEquip, "Horas_Registradas_total", "Horas_Produtivas_total", "Horas_Improdutivas_total"}
	for _, l := range labels {
		t.Headers = append(t.Headers, "Horas_"+l+"_total")
	}
	t.Headers = append(t.Headers,
		"Horas_Motor_Ligado_total",
		"Porcentagem_Motor_Ligado",
		"Horas_Motor_Ocioso_total",
		"Porcentagem_Motor_Ocioso",
		"Tempo_Sem_Apontamento_h_total",
		"Porcentagem_Sem_Apontamento",
		"Eficiencia_Energetica",
		"Eficiencia_Operacional",
		"Dias_com_dados",
		"Horas_media_por_dia",
		"Horas_Motor_Ocioso_media_por_dia",
	)
	for _, s := range sums {
		row := []any{s.OperatorCode, s.OperatorName, s.UnitType, s.HorasRegistradas, s.HorasProdutivas, s.HorasImprodutivas}
		for _, l := range labels {
			row = append(row, s.GroupHours[l])
		}
		row = append(row,
			s.HorasMotorLigado, s.PorcentagemMotorLigado,
			s.HorasMotorOcioso, s.PorcentagemMotorOcioso,
			s.TempoSemApontamento, s.PorcentagemSemApontamento,
			s.EficienciaEnergetica, s.EficienciaOperacional,
			s.DiasComDados, s.HorasMediaPorDia, s.HorasOciosoMediaPorDia,
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// offenderSheets builds one Top5Ofensores_{TYPE} sheet per equipment
// type.
func offenderSheets(offs []models.TopOffender) []sheet.Table {
	byType := map[string][]models.TopOffender{}
	for _, o := range offs {
		byType[o.UnitType] = append(byType[o.UnitType], o)
	}
	types := make([]string, 0, len(byType))
	for tp := range byType {
		types = append(types, tp)
	}
	sort.Strings(types)

	var out []sheet.Table
	for _, tp := range types {
		t := sheet.Table{
			Name:    sheet.SafeName("Top5Ofensores_", tp, ""),
			Headers: []string{colCodigoEquip, "Data", colDescOperacao, "Duracao_Improd_h", "Total_Horas_Dia_h", "Porcentagem_Improdutiva"},
		}
		for _, o := range byType[tp] {
			t.Append(o.UnitCode, fmtDate(o.Date), o.Operation, o.DuracaoImprod, o.TotalHorasDia, o.Porcentagem)
		}
		out = append(out, t)
	}
	return out
}

// intervalSheets builds one Intervalos_{TYPE} sheet per equipment type.
func intervalSheets(entries []models.IntervalEntry) []sheet.Table {
	byType := map[string][]models.IntervalEntry{}
	for _, e := range entries {
		byType[e.UnitType] = append(byType[e.UnitType], e)
	}
	types := make([]string, 0, len(byType))
	for tp := range byType {
		types = append(types, tp)
	}
	sort.Strings(types)

	var out []sheet.Table
	for _, tp := range types {
		t := sheet.Table{
			Name:    sheet.SafeName("Intervalos_", tp, ""),
			Headers: []string{"Data", "Frota", "Início", "Fim", "Grupo", colDescOperacao},
		}
		for _, e := range byType[tp] {
			var start, end any
			if !e.Start.IsZero() {
				start = e.Start.Format(models.DateTimeBR)
			}
			if !e.End.IsZero() {
				end = e.End.Format(models.DateTimeBR)
			}
			t.Append(fmtDate(e.Date), e.UnitCode, start, end, e.Group, e.Operation)
		}
		out = append(out, t)
	}
	return out
}
