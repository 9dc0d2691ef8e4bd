// Package consolidate merges the partitioned fleet JSON, the
// telematics workbooks and the partitioned daily workbooks into one
// dashboard document per day, with per-metric source attribution.
package consolidate

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"frota-etl/internal/config"
	"frota-etl/internal/jsonio"
	"frota-etl/internal/models"
)

// Source names stamped into fonte fields and metadata.
const (
	SourceSolinftec = "solinftec"
	SourceCase      = "case"
	SourceOPC       = "opc"
)

const documentType = "cd_diario_novo"

// Result reports what one consolidation run did.
type Result struct {
	Outputs  []string
	Days     int
	Warnings int
}

// Run consolidates every day found in any source.
func Run(cfg *config.Config, log *slog.Logger) (*Result, error) {
	metas, err := cfg.Metas()
	if err != nil {
		return nil, err
	}

	cd, warnings := loadCaseData(cfg, log)
	days := allDays(cfg, cd)
	if len(days) == 0 {
		return nil, fmt.Errorf("no partitioned JSON or telematics data to consolidate")
	}
	if err := os.MkdirAll(cfg.ConsolidatedDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	res := &Result{Days: len(days), Warnings: warnings}
	for _, dateStr := range days {
		sol, err := loadSolinftecDay(cfg, dateStr)
		if err != nil {
			log.Warn("cannot read partitioned fleet JSON", "day", dateStr, "error", err)
			res.Warnings++
		}

		doc := buildDay(cfg, dateStr, sol, cd, metas)
		path := filepath.Join(cfg.ConsolidatedDir(), fmt.Sprintf("colhedora_frota_%s.json", dateStr))
		if err := jsonio.WriteAtomic(path, doc); err != nil {
			return nil, fmt.Errorf("day %s: %w", dateStr, err)
		}
		res.Outputs = append(res.Outputs, path)
		fmt.Printf("  Consolidado %s: %d frotas, %d fontes\n", dateStr, len(doc.EficienciaEnergetica), len(doc.Metadata.Fontes))
	}
	return res, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// num reads a numeric field from a partitioned record; missing or
// non-numeric values count as zero.
func num(rec map[string]any, key string) float64 {
	v, _ := rec[key].(float64)
	return v
}

func has(rec map[string]any, key string) bool {
	_, ok := rec[key]
	return ok
}

func str(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}

// clockOf extracts HH:MM:SS from a "DD/MM/YYYY HH:MM:SS" cell.
func clockOf(stamp string) string {
	fields := strings.Fields(stamp)
	if len(fields) > 1 {
		return fields[1]
	}
	return stamp
}

// spanHours computes the duration in hours between two timestamp cells.
func spanHours(start, end string) float64 {
	s, errS := models.ParseDateTime(start)
	e, errE := models.ParseDateTime(end)
	if errS != nil || errE != nil {
		return 0
	}
	return e.Sub(s).Hours()
}

// hhmmss formats a duration given in hours as HH:MM:SS.
func hhmmss(hours float64) string {
	total := int(math.Round(hours * 3600))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// mmss formats a duration given in minutes as 00:MM:SS.
func mmss(minutes float64) string {
	total := int(math.Round(minutes * 60))
	return fmt.Sprintf("00:%02d:%02d", total/60, total%60)
}

// intervalKind maps an interval group and operation to the Gantt bar
// category.
func intervalKind(group, operation string) string {
	if operation == "SEM APONTAMENTO" {
		return "Falta de Informação"
	}
	switch group {
	case "PRODUTIVA":
		return "Produtivo"
	case "MANUTENCAO":
		return "Manutenção"
	}
	return "Disponível"
}

// buildDay assembles the consolidated document for one day from every
// source that has data for it.
func buildDay(cfg *config.Config, dateStr string, sol solinftecDay, cd *caseData, metas map[string]float64) *Document {
	dateDisplay := strings.ReplaceAll(dateStr, "-", "/")
	iso := dateStr
	if d, err := models.ParseDate(dateStr); err == nil {
		iso = d.Format(models.DateISO)
	}

	caseFrotas := cd.Daily[dateDisplay]
	caseIntervals := cd.Intervals[dateDisplay]

	frotaSet := map[string]bool{}
	for f := range sol {
		frotaSet[f] = true
	}
	for f := range caseFrotas {
		frotaSet[f] = true
	}
	frotas := make([]string, 0, len(frotaSet))
	for f := range frotaSet {
		frotas = append(frotas, f)
	}
	sort.Strings(frotas)

	var fontes []string
	if len(sol) > 0 {
		fontes = append(fontes, SourceSolinftec)
	}
	if len(caseFrotas) > 0 || len(caseIntervals) > 0 {
		fontes = append(fontes, SourceCase)
	}
	if opcAvailable(cfg, dateStr) {
		fontes = append(fontes, SourceOPC)
	}

	doc := &Document{
		Metadata: Metadata{
			Date:        iso,
			Type:        documentType,
			Frente:      cfg.Frente,
			GeneratedAt: time.Now().Format(time.RFC3339),
			Fontes:      fontes,
		},
		Metas:     metas,
		DadosCase: map[string]CaseFleetData{},
	}

	// offending hours per operation, over the whole day
	offenderHours := map[string]float64{}

	for idx, frota := range frotas {
		id := idx + 1
		var resumo map[string]any
		var intervalos []map[string]any
		fonte := SourceCase
		if day, ok := sol[frota]; ok {
			fonte = SourceSolinftec
			if recs := day["Resumo_Dia"]; len(recs) > 0 {
				resumo = recs[0]
			}
			intervalos = day["Intervalos"]
		}
		caseExtra, hasCase := caseFrotas[frota]

		horasProdutivas := num(resumo, "Horas_Produtivas")
		horasRegistradas := num(resumo, "Horas_Registradas")
		horasMotor := num(resumo, "Horas_Motor_Ligado")
		if resumo == nil && hasCase {
			horasMotor = caseExtra.HorasMotor
		}

		efEnergetica := 0.0
		switch {
		case has(resumo, "Eficiencia_Energetica"):
			efEnergetica = num(resumo, "Eficiencia_Energetica") * 100
		case horasMotor > 0 && horasProdutivas > 0:
			efEnergetica = horasProdutivas / horasMotor * 100
		}
		doc.EficienciaEnergetica = append(doc.EficienciaEnergetica, EficienciaEntry{
			ID: id, Nome: frota,
			Eficiencia:    round2(efEnergetica),
			HorasMotor:    round4(horasMotor),
			HorasElevador: round4(horasProdutivas),
			Fonte:         fonte,
		})

		efOperacional := 0.0
		switch {
		case has(resumo, "Eficiencia_Operacional"):
			efOperacional = num(resumo, "Eficiencia_Operacional") * 100
		case horasRegistradas > 0 && horasProdutivas > 0:
			efOperacional = horasProdutivas / horasRegistradas * 100
		}
		doc.EficienciaOperacional = append(doc.EficienciaOperacional, EficienciaEntry{
			ID: id, Nome: frota,
			Eficiencia:    round2(efOperacional),
			HorasMotor:    round4(horasRegistradas),
			HorasElevador: round4(horasProdutivas),
			Fonte:         fonte,
		})

		doc.HorasElevador = append(doc.HorasElevador, ValorEntry{
			ID: id, Nome: frota, Valor: round4(horasProdutivas), Fonte: fonte,
		})

		usoGPS := 0.0
		if has(resumo, "Porcentagem_Sem_Apontamento") {
			usoGPS = 100 - num(resumo, "Porcentagem_Sem_Apontamento")
		}
		doc.UsoGPS = append(doc.UsoGPS, UsoGPSEntry{
			ID: id, Nome: frota, Porcentagem: round2(usoGPS), Fonte: fonte,
		})

		vel := num(resumo, "Vel_Colheita_media")
		velFonte := fonte
		if vel == 0 && hasCase && caseExtra.VelocidadeMedia > 0 {
			vel = caseExtra.VelocidadeMedia
			velFonte = SourceCase
		}
		if vel == 0 {
			velFonte = SourceSolinftec
		}
		doc.MediaVelocidade = append(doc.MediaVelocidade, VelocidadeEntry{
			ID: id, Nome: frota, Velocidade: round4(vel), Fonte: velFonte,
		})

		doc.MotorOcioso = append(doc.MotorOcioso, MotorOciosoEntry{
			ID: id, Nome: frota,
			Percentual:  round4(num(resumo, "Porcentagem_Motor_Ocioso")),
			TempoLigado: round4(horasMotor),
			TempoOcioso: round4(num(resumo, "Horas_Motor_Ocioso")),
			Fonte:       fonte,
		})

		dispMec := 100.0
		horasManutencao := 0.0
		if has(resumo, "Disponibilidade_Mecanica") {
			dispMec = num(resumo, "Disponibilidade_Mecanica") * 100
			horasManutencao = num(resumo, "Horas_Manutencao")
		}
		doc.Disponibilidade = append(doc.Disponibilidade, DisponibilidadeEntry{
			ID: id, Nome: frota,
			Disponibilidade: round2(dispMec),
			HorasMotor:      round4(horasMotor),
			TempoManutencao: round4(horasManutencao),
			Fonte:           fonte,
		})

		doc.HorasPorFrota = append(doc.HorasPorFrota, HorasFrotaEntry{
			ID: id, Nome: frota, Frota: frota, Horas: round2(horasRegistradas), Fonte: fonte,
		})

		// no per-fleet production metric in the sources yet
		doc.ProducaoPorFrota = append(doc.ProducaoPorFrota, ValorEntry{
			ID: id, Nome: frota, Valor: 0, Fonte: fonte,
		})

		tempoTotalMan := num(resumo, "Tempo_Total_Manobras_h")
		tempoMedioMan := num(resumo, "Tempo_Medio_Manobras_min")
		tempoMedioHoras := 0.0
		if tempoMedioMan > 0 {
			tempoMedioHoras = round6(tempoMedioMan / 60)
		}
		doc.ManobrasFrotas = append(doc.ManobrasFrotas, ManobrasEntry{
			Frota:             frota,
			TempoTotal:        round4(tempoTotalMan),
			TempoMedio:        tempoMedioHoras,
			IntervalosValidos: int(num(resumo, "Quantidade_Manobras")),
			TempoTotalHHMM:    hhmmss(tempoTotalMan),
			TempoMedioHHMM:    mmss(tempoMedioMan),
			Fonte:             fonte,
		})

		for _, intv := range intervalos {
			start := str(intv, "Início")
			end := str(intv, "Fim")
			group := str(intv, "Grupo")
			operation := str(intv, "Descrição da Operação")
			dur := spanHours(start, end)

			doc.IntervalosOperacao = append(doc.IntervalosOperacao, IntervaloOperacao{
				Equipamento:  frota,
				Tipo:         intervalKind(group, operation),
				Inicio:       clockOf(start),
				DuracaoHoras: round6(dur),
				Fonte:        SourceSolinftec,
			})
			if group == "MANUTENCAO" || group == "DISPONIVEL" {
				offenderHours[operation] += dur
			}
		}

		for _, ci := range caseIntervals[frota] {
			doc.IntervalosOperacao = append(doc.IntervalosOperacao, IntervaloOperacao{
				Equipamento:  frota,
				Tipo:         "Disponível",
				Inicio:       ci.Inicio,
				DuracaoHoras: round6(ci.Duracao),
				Fonte:        SourceCase,
			})
		}

		if hasCase {
			doc.DadosCase[frota] = caseExtra
		}
	}

	doc.Ofensores = topOffenders(offenderHours)
	doc.Lavagem, doc.Roletes = serviceWindows(dateDisplay, sol)
	doc.ProducaoTotal = []ProducaoTotal{{Valor: doc.Producao}}
	return doc
}

// topOffenders picks the five operations with the most non-productive
// hours across every fleet of the day.
func topOffenders(hours map[string]float64) []OfensorEntry {
	type item struct {
		op string
		h  float64
	}
	var items []item
	var total float64
	for op, h := range hours {
		items = append(items, item{op, h})
		total += h
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].h != items[j].h {
			return items[i].h > items[j].h
		}
		return items[i].op < items[j].op
	})
	if len(items) > 5 {
		items = items[:5]
	}
	var out []OfensorEntry
	for i, it := range items {
		pct := 0.0
		if total > 0 {
			pct = it.h / total * 100
		}
		out = append(out, OfensorEntry{
			ID:          fmt.Sprint(i),
			Tempo:       round4(it.h),
			Operacao:    it.op,
			Porcentagem: round2(pct),
		})
	}
	return out
}

// serviceWindows extracts the washing and roller maintenance windows
// from the day's intervals, numbering each fleet's windows in order and
// totalling them per fleet.
func serviceWindows(dateDisplay string, sol solinftecDay) (lavagem, roletes []ServicoEntry) {
	frotas := make([]string, 0, len(sol))
	for f := range sol {
		frotas = append(frotas, f)
	}
	sort.Strings(frotas)

	for _, frota := range frotas {
		for _, intv := range sol[frota]["Intervalos"] {
			operation := strings.ToUpper(str(intv, "Descrição da Operação"))
			var list *[]ServicoEntry
			switch {
			case strings.Contains(operation, "LAVAGEM"):
				list = &lavagem
			case strings.Contains(operation, "ROLETE"):
				list = &roletes
			default:
				continue
			}
			start := str(intv, "Início")
			end := str(intv, "Fim")
			*list = append(*list, ServicoEntry{
				Data:         dateDisplay,
				Equipamento:  frota,
				Inicio:       clockOf(start),
				Fim:          clockOf(end),
				DuracaoHoras: round6(spanHours(start, end)),
			})
		}
	}
	for _, list := range []*[]ServicoEntry{&lavagem, &roletes} {
		ordinal := map[string]int{}
		totals := map[string]float64{}
		for i := range *list {
			e := &(*list)[i]
			ordinal[e.Equipamento]++
			e.Intervalo = fmt.Sprintf("Intervalo %d", ordinal[e.Equipamento])
			totals[e.Equipamento] += e.DuracaoHoras
		}
		for i := range *list {
			e := &(*list)[i]
			e.TempoTotalDia = round6(totals[e.Equipamento])
		}
	}
	return lavagem, roletes
}
