package consolidate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"frota-etl/internal/config"
	"frota-etl/internal/jsonio"
	"frota-etl/internal/models"
	"frota-etl/internal/sheet"

	"github.com/xuri/excelize/v2"
)

// fleetDay is one fleet's partitioned data for one day: category name
// to records, as written by the partition stage.
type fleetDay map[string][]map[string]any

// solinftecDay maps fleet code to its categories.
type solinftecDay map[string]fleetDay

// caseInterval is one telematics reading window.
type caseInterval struct {
	Inicio  string
	Duracao float64
}

// caseData indexes the telematics workbooks by day (DD/MM/YYYY) and
// fleet code.
type caseData struct {
	Daily     map[string]map[string]CaseFleetData
	Intervals map[string]map[string][]caseInterval
}

var fileDateRe = regexp.MustCompile(`(\d{2}-\d{2}-\d{4})`)

// loadSolinftecDay reads the partitioned fleet JSON for one day.
func loadSolinftecDay(cfg *config.Config, dateStr string) (solinftecDay, error) {
	pattern := filepath.Join(cfg.FleetDailyDir("colhedora"), "*"+dateStr+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	var day solinftecDay
	if err := jsonio.Read(matches[0], &day); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(matches[0]), err)
	}
	return day, nil
}

// solinftecDays lists the days with partitioned fleet JSON files.
func solinftecDays(cfg *config.Config) []string {
	matches, _ := filepath.Glob(filepath.Join(cfg.FleetDailyDir("colhedora"), "*.json"))
	var days []string
	for _, m := range matches {
		if d := fileDateRe.FindString(filepath.Base(m)); d != "" {
			days = append(days, d)
		}
	}
	return days
}

// loadCaseData reads every Consolidado_Case_*.xlsx in the data
// directory into per-day fleet summaries and reading windows.
func loadCaseData(cfg *config.Config, log *slog.Logger) (*caseData, int) {
	cd := &caseData{
		Daily:     map[string]map[string]CaseFleetData{},
		Intervals: map[string]map[string][]caseInterval{},
	}
	matches, _ := filepath.Glob(filepath.Join(cfg.DataDir, "Consolidado_Case_*.xlsx"))
	warnings := 0
	for _, m := range matches {
		if err := loadCaseWorkbook(m, cd); err != nil {
			log.Warn("cannot read telematics workbook", "file", filepath.Base(m), "error", err)
			warnings++
		}
	}
	return cd, warnings
}

func loadCaseWorkbook(path string, cd *caseData) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	headers, rows, err := sheet.ReadRows(f, "Resumo Diário")
	if err == nil {
		for _, row := range rows {
			d := sheet.RowMap(headers, row)
			frota := strings.TrimSpace(d["Frota"])
			day := strings.Fields(d["Data"])
			if frota == "" || len(day) == 0 {
				continue
			}
			if cd.Daily[day[0]] == nil {
				cd.Daily[day[0]] = map[string]CaseFleetData{}
			}
			cd.Daily[day[0]][frota] = CaseFleetData{
				HorasMotor:               models.ParseNumber(d["Total Horas Motor (Diferença)"]),
				RPM:                      models.ParseNumber(d["RPM"]),
				TemperaturaArrefecimento: models.ParseNumber(d["Média Temperatura líquido de arrefecimento do motor"]),
				TemperaturaTransmissao:   models.ParseNumber(d["Média Temperatura do óleo da transmissão"]),
				VelocidadeMedia:          models.ParseNumber(d["Velocidade Média"]),
			}
		}
	}

	headers, rows, err = sheet.ReadRows(f, "Dados")
	if err == nil {
		for _, row := range rows {
			d := sheet.RowMap(headers, row)
			frota := strings.TrimSpace(d["Frota"])
			stamp := strings.TrimSpace(d["Data/Hora"])
			fields := strings.Fields(stamp)
			if frota == "" || len(fields) == 0 {
				continue
			}
			day := fields[0]
			if cd.Intervals[day] == nil {
				cd.Intervals[day] = map[string][]caseInterval{}
			}
			cd.Intervals[day][frota] = append(cd.Intervals[day][frota], caseInterval{
				Inicio:  stamp,
				Duracao: models.ParseNumber(d["Duração"]),
			})
		}
	}
	return nil
}

// caseDays lists the days (DD-MM-YYYY) present in the telematics data.
func (cd *caseData) caseDays() []string {
	var days []string
	for d := range cd.Daily {
		days = append(days, strings.ReplaceAll(d, "/", "-"))
	}
	return days
}

// opcAvailable reports whether a partitioned workbook exists for the
// day, which marks the day as covered by the OPC source.
func opcAvailable(cfg *config.Config, dateStr string) bool {
	_, err := os.Stat(filepath.Join(cfg.XLSXDir(), dateStr+".xlsx"))
	return err == nil
}

// allDays unions the days of every source in chronological order.
func allDays(cfg *config.Config, cd *caseData) []string {
	seen := map[string]bool{}
	for _, d := range solinftecDays(cfg) {
		seen[d] = true
	}
	for _, d := range cd.caseDays() {
		seen[d] = true
	}
	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		di, erri := models.ParseDate(days[i])
		dj, errj := models.ParseDate(days[j])
		if erri != nil || errj != nil {
			return days[i] < days[j]
		}
		return di.Before(dj)
	})
	return days
}
