// Package partition splits the most recent treated workbook into one
// workbook and one set of JSON files per day, organized by equipment
// type under json/{tipo}/{frotas|operadores}/{diario|semanal}.
package partition

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"frota-etl/internal/config"
	"frota-etl/internal/jsonio"
	"frota-etl/internal/models"
	"frota-etl/internal/period"
	"frota-etl/internal/sheet"

	"github.com/xuri/excelize/v2"
)

// Result reports what one partition run did.
type Result struct {
	Input    string
	Outputs  []string
	Days     int
	Warnings int
}

type table struct {
	name    string
	headers []string
	rows    [][]string
}

// Run partitions the newest *_tratado.xlsx in the data directory.
func Run(cfg *config.Config, log *slog.Logger) (*Result, error) {
	input, err := newestTreated(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	log.Info("partitioning treated workbook", "file", filepath.Base(input))

	f, err := excelize.OpenFile(input)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(input), err)
	}
	defer f.Close()

	var tables []table
	for _, name := range f.GetSheetList() {
		headers, rows, err := sheet.ReadRows(f, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table{name: name, headers: headers, rows: rows})
	}

	rng, _ := period.FromFilename(filepath.Base(input))
	days := referenceDays(tables, rng)
	if len(days) == 0 {
		return nil, fmt.Errorf("no dates found in %s", filepath.Base(input))
	}

	for _, dir := range []string{cfg.XLSXDir(), cfg.JSONDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	res := &Result{Input: input, Days: len(days)}
	for _, day := range days {
		outputs, warns, err := writeDay(cfg, tables, day, log)
		res.Warnings += warns
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", day.Format(models.DateFile), err)
		}
		res.Outputs = append(res.Outputs, outputs...)
	}

	periodOutputs, err := writePeriod(cfg, tables, rng)
	if err != nil {
		return nil, err
	}
	res.Outputs = append(res.Outputs, periodOutputs...)

	fmt.Printf("Separados %d dias de %s\n", len(days), filepath.Base(input))
	return res, nil
}

// newestTreated picks the most recently modified treated workbook.
func newestTreated(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*tratado*.xlsx"))
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, m := range matches {
		if !strings.HasPrefix(filepath.Base(m), "~$") {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no treated workbook (*_tratado.xlsx) found in %s", dir)
	}
	newest := candidates[0]
	var newestMod time.Time
	for _, m := range candidates {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = m
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

// dateColumn finds the per-day column of a sheet: an explicit "Data"
// column, or the full timestamp column as fallback.
func dateColumn(headers []string) (idx int, derived bool) {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), "Data") {
			return i, false
		}
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), "Data Hora Local") {
			return i, true
		}
	}
	return -1, false
}

// referenceDays collects the distinct days of the workbook, preferring
// the Tratado sheet, clipped to the file name's reporting window.
func referenceDays(tables []table, rng period.Range) []time.Time {
	var ref *table
	for i := range tables {
		if tables[i].name == "Tratado" {
			ref = &tables[i]
			break
		}
	}
	if ref == nil {
		for i := range tables {
			if tables[i].name == "Original" {
				ref = &tables[i]
				break
			}
		}
	}
	if ref == nil {
		for i := range tables {
			if strings.Contains(tables[i].name, "_Dia") || strings.Contains(tables[i].name, "Intervalos") {
				ref = &tables[i]
				break
			}
		}
	}
	if ref == nil && len(tables) > 0 {
		ref = &tables[0]
	}
	if ref == nil {
		return nil
	}
	idx, _ := dateColumn(ref.headers)
	if idx == -1 {
		return nil
	}

	seen := map[string]time.Time{}
	for _, row := range ref.rows {
		if idx >= len(row) {
			continue
		}
		d, err := models.ParseDate(row[idx])
		if err != nil {
			continue
		}
		if rng.Contains(d) {
			seen[d.Format(models.DateISO)] = d
		}
	}
	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// tryValue converts a cell to its JSON representation: nil for empty,
// float64 for numbers, string otherwise.
func tryValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// formatID renders a grouping key the way it appears in JSON paths:
// whole numbers without a decimal part.
func formatID(v any) string {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// filterDay returns the rows of t belonging to the given day.
func filterDay(t table, day time.Time) [][]string {
	idx, _ := dateColumn(t.headers)
	if idx == -1 {
		return nil
	}
	var out [][]string
	for _, row := range t.rows {
		if idx >= len(row) {
			continue
		}
		d, err := models.ParseDate(row[idx])
		if err != nil {
			continue
		}
		if d.Equal(day) {
			out = append(out, row)
		}
	}
	return out
}

// records converts filtered rows into JSON leaf records, dropping the
// date column and the equipment type column, which are redundant with
// the file name and directory.
func records(t table, rows [][]string) []map[string]any {
	dateIdx, _ := dateColumn(t.headers)
	var out []map[string]any
	for _, row := range rows {
		rec := map[string]any{}
		for i, h := range t.headers {
			if i == dateIdx || h == "Descrição do Equipamento" {
				continue
			}
			var v any
			if i < len(row) {
				v = tryValue(row[i])
			}
			if v != nil {
				rec[h] = v
			}
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}

var fleetKeys = []string{"Frota", "Código Equipamento", "Equipamento"}

// groupByFleet reindexes category records under their fleet code,
// removing the code from each leaf.
func groupByFleet(categories map[string][]map[string]any) map[string]map[string][]map[string]any {
	grouped := map[string]map[string][]map[string]any{}
	catNames := make([]string, 0, len(categories))
	for c := range categories {
		catNames = append(catNames, c)
	}
	sort.Strings(catNames)
	for _, cat := range catNames {
		for _, item := range categories[cat] {
			id := "Geral"
			var foundKey string
			for _, k := range fleetKeys {
				if v, ok := item[k]; ok {
					id = formatID(v)
					foundKey = k
					break
				}
			}
			leaf := map[string]any{}
			for k, v := range item {
				if k != foundKey {
					leaf[k] = v
				}
			}
			if grouped[id] == nil {
				grouped[id] = map[string][]map[string]any{}
			}
			grouped[id][cat] = append(grouped[id][cat], leaf)
		}
	}
	return grouped
}

var (
	operatorCodeKeys = []string{"Código de Operador", "Codigo Operador", "Cod Operador"}
	operatorNameKeys = []string{"Nome", "Nome Operador", "Nome do Operador", "Operador"}
)

// groupByOperator reindexes operator records under "code - name" keys.
func groupByOperator(items []map[string]any) map[string]any {
	grouped := map[string]any{}
	for _, item := range items {
		var codeKey, nameKey string
		var code any
		name := "Desconhecido"
		for _, k := range operatorCodeKeys {
			if v, ok := item[k]; ok {
				code = v
				codeKey = k
				break
			}
		}
		for _, k := range operatorNameKeys {
			if v, ok := item[k]; ok {
				name = formatID(v)
				nameKey = k
				break
			}
		}
		if codeKey == "" {
			list, _ := grouped["SemCodigo"].([]map[string]any)
			grouped["SemCodigo"] = append(list, item)
			continue
		}
		leaf := map[string]any{}
		for k, v := range item {
			if k != codeKey && k != nameKey {
				leaf[k] = v
			}
		}
		grouped[formatID(code)+" - "+name] = leaf
	}
	return grouped
}

// writeDay writes one day's workbook and JSON files.
func writeDay(cfg *config.Config, tables []table, day time.Time, log *slog.Logger) ([]string, int, error) {
	dayStr := day.Format(models.DateFile)
	warnings := 0

	out := excelize.NewFile()
	defer out.Close()

	// tipo -> categoria -> records
	fleetByType := map[string]map[string][]map[string]any{}
	operatorsByType := map[string][]map[string]any{}
	addFleet := func(tipo, cat string, recs []map[string]any) {
		dir := models.FolderName(tipo)
		if fleetByType[dir] == nil {
			fleetByType[dir] = map[string][]map[string]any{}
		}
		fleetByType[dir][cat] = append(fleetByType[dir][cat], recs...)
	}

	sheets := 0
	for _, t := range tables {
		if strings.Contains(t.name, "Periodo") || t.name == "Original" || t.name == "Tratado" {
			continue
		}
		rows := filterDay(t, day)
		if len(rows) == 0 {
			continue
		}

		daily := sheet.Table{Name: t.name, Headers: t.headers}
		for _, row := range rows {
			cells := make([]any, len(row))
			for i, v := range row {
				cells[i] = tryValue(v)
			}
			daily.Rows = append(daily.Rows, cells)
		}
		if err := sheet.Write(out, daily); err != nil {
			return nil, warnings, err
		}
		sheets++

		recs := records(t, rows)
		switch {
		case strings.HasSuffix(t.name, "_Dia"):
			addFleet(strings.TrimSuffix(t.name, "_Dia"), "Resumo_Dia", recs)
		case strings.HasPrefix(t.name, "Operadores_"):
			dir := models.FolderName(strings.TrimPrefix(t.name, "Operadores_"))
			operatorsByType[dir] = append(operatorsByType[dir], recs...)
		case strings.HasPrefix(t.name, "Top5Ofensores_"):
			addFleet(strings.TrimPrefix(t.name, "Top5Ofensores_"), "Top5Ofensores", recs)
		case strings.HasPrefix(t.name, "Intervalos_"):
			addFleet(strings.TrimPrefix(t.name, "Intervalos_"), "Intervalos", recs)
		default:
			log.Warn("sheet not mapped to a JSON category", "sheet", t.name)
			warnings++
		}
	}
	if sheets == 0 {
		log.Warn("no data for day", "day", dayStr)
		warnings++
		return nil, warnings, nil
	}

	var outputs []string
	xlsxPath := filepath.Join(cfg.XLSXDir(), dayStr+".xlsx")
	if err := out.DeleteSheet("Sheet1"); err != nil {
		return nil, warnings, err
	}
	if err := sheet.SaveAtomic(out, xlsxPath); err != nil {
		return nil, warnings, err
	}
	outputs = append(outputs, xlsxPath)

	tipos := make([]string, 0, len(fleetByType))
	for tipo := range fleetByType {
		tipos = append(tipos, tipo)
	}
	sort.Strings(tipos)
	for _, tipo := range tipos {
		dir := cfg.FleetDailyDir(tipo)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, warnings, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_frota_%s.json", tipo, dayStr))
		if err := jsonio.WriteAtomic(path, groupByFleet(fleetByType[tipo])); err != nil {
			return nil, warnings, err
		}
		outputs = append(outputs, path)
	}

	tipos = tipos[:0]
	for tipo := range operatorsByType {
		tipos = append(tipos, tipo)
	}
	sort.Strings(tipos)
	for _, tipo := range tipos {
		dir := cfg.OperatorDailyDir(tipo)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, warnings, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_operadores_%s.json", tipo, dayStr))
		if err := jsonio.WriteAtomic(path, groupByOperator(operatorsByType[tipo])); err != nil {
			return nil, warnings, err
		}
		outputs = append(outputs, path)
	}
	return outputs, warnings, nil
}

// typeColumn finds the equipment type column of a period sheet.
func typeColumn(headers []string) int {
	for _, want := range []string{"Descrição do Equipamento", "Grupo", "Tipo"} {
		for i, h := range headers {
			if h == want {
				return i
			}
		}
	}
	return -1
}

// writePeriod writes the period rollup JSON files from the
// Periodo_Equipamentos and Periodo_Operadores sheets.
func writePeriod(cfg *config.Config, tables []table, rng period.Range) ([]string, error) {
	label := "periodo_desconhecido"
	if !rng.IsZero() {
		label = rng.Label()
	}

	var outputs []string
	for _, t := range tables {
		switch t.name {
		case "Periodo_Equipamentos":
			byType := splitByType(t)
			tipos := sortedKeys(byType)
			for _, tipo := range tipos {
				grouped := groupByFleet(map[string][]map[string]any{"Resumo_Periodo": byType[tipo]})
				dir := cfg.FleetPeriodDir(tipo)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
				path := filepath.Join(dir, fmt.Sprintf("%s_frota_periodo_%s.json", tipo, label))
				if err := jsonio.WriteAtomic(path, grouped); err != nil {
					return nil, err
				}
				outputs = append(outputs, path)
			}
		case "Periodo_Operadores":
			byType := splitByType(t)
			tipos := sortedKeys(byType)
			for _, tipo := range tipos {
				dir := cfg.OperatorPeriodDir(tipo)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
				path := filepath.Join(dir, fmt.Sprintf("%s_operadores_periodo_%s.json", tipo, label))
				if err := jsonio.WriteAtomic(path, groupByOperator(byType[tipo])); err != nil {
					return nil, err
				}
				outputs = append(outputs, path)
			}
		}
	}
	return outputs, nil
}

// splitByType converts a period sheet into records per equipment type
// directory, dropping the type column from the leaves.
func splitByType(t table) map[string][]map[string]any {
	typeIdx := typeColumn(t.headers)
	out := map[string][]map[string]any{}
	for _, row := range t.rows {
		tipo := "geral"
		if typeIdx != -1 && typeIdx < len(row) {
			tipo = models.FolderName(row[typeIdx])
		}
		rec := map[string]any{}
		for i, h := range t.headers {
			if i == typeIdx {
				continue
			}
			var v any
			if i < len(row) {
				v = tryValue(row[i])
			}
			if v != nil {
				rec[h] = v
			}
		}
		if len(rec) > 0 {
			out[tipo] = append(out[tipo], rec)
		}
	}
	return out
}

func sortedKeys(m map[string][]map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
