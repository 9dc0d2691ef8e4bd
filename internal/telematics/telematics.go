// Package telematics pivots Case IH telematics exports (zip archives
// of long-format CSV files, one per machine) into a consolidated
// workbook with overall and per-day summaries.
package telematics

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"frota-etl/internal/config"
	"frota-etl/internal/models"
	"frota-etl/internal/sheet"

	"github.com/xuri/excelize/v2"
)

// excludedColumns are diagnostic signals dropped from the Dados sheet.
var excludedColumns = []string{
	"APM_GSM", "Altitude", "Auto Guidance Engaged Status", "Carga do Motor",
	"Cross Track Error 3", "Deslizamento da roda", "Direção", "Engine Oil Level Status",
	"GPS_ALT", "GPS_CURRENT", "GPS_DIR", "GPS_PDOP", "GPS_SAT", "GPS_SPEED",
	"Gear Selected", "Hor.linha trans.", "Latitude bruta", "NETWORK_CONNECTION",
	"NETWORK_MCC", "NETWORK_MNC", "NETWORK_OPERATOR_NAME", "NETWORK_RSSI",
	"NETWORK_STATUS", "Posição do engate traseiro", "Pressão de lubrificação da transmissão",
	"Pressão do óleo da transmissão", "Pressão turbo do motor", "Pressão óleo motor",
	"STATUS_DUTY_DESCRIPTION", "Tensão bateria", "Tipo Linha", "Transmission Range",
	"Transmission Status CVT", "Transmission Status Powershift", "Veloc. TDP dianteira",
	"Velocidade da TDP traseira",
	"Combustível por distância - Média", "GPS_FIX", "Nivel Combustivel", "Potência motor",
	"STATUS_DUTY_CODE",
}

// Result reports what one telematics run did.
type Result struct {
	Input    string
	Outputs  []string
	Vehicles int
	Warnings int
}

// Run processes the most recent Case*.zip archive in the data
// directory and writes Consolidado_Case_{period}.xlsx next to it.
func Run(cfg *config.Config, log *slog.Logger) (*Result, error) {
	zipPath, err := newestCaseArchive(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	log.Info("processing telematics archive", "archive", filepath.Base(zipPath))

	vehicles, warnings, err := processArchive(zipPath, log)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, fmt.Errorf("no usable CSV files in %s", filepath.Base(zipPath))
	}

	outPath := filepath.Join(cfg.DataDir, "Consolidado_Case_"+periodLabel(vehicles)+".xlsx")
	if err := writeWorkbook(vehicles, outPath); err != nil {
		return nil, err
	}
	fmt.Printf("Consolidado Case: %s (%d frotas)\n", filepath.Base(outPath), len(vehicles))

	return &Result{
		Input:    zipPath,
		Outputs:  []string{outPath},
		Vehicles: len(vehicles),
		Warnings: warnings,
	}, nil
}

// newestCaseArchive picks the most recently modified Case*.zip.
func newestCaseArchive(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "Case*.zip"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no Case*.zip archive found in %s", dir)
	}
	newest := matches[0]
	var newestMod time.Time
	for _, m := range matches {
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

// processArchive parses every CSV member into a Vehicle. A broken
// member is logged and skipped; the rest of the archive still loads.
func processArchive(zipPath string, log *slog.Logger) ([]*Vehicle, int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, 0, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	var vehicles []*Vehicle
	warnings := 0
	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			log.Warn("cannot open archive member", "member", member.Name, "error", err)
			warnings++
			continue
		}
		v, err := ParseCSV(rc)
		rc.Close()
		if err != nil {
			log.Warn("cannot parse telematics CSV", "member", member.Name, "error", err)
			warnings++
			continue
		}
		fmt.Printf("  Frota %s: %d leituras\n", v.Frota, len(v.Readings))
		vehicles = append(vehicles, v)
	}
	return vehicles, warnings, nil
}

// periodLabel derives the output file suffix from the archive's full
// data span: firstDay_lastDay-month-year.
func periodLabel(vehicles []*Vehicle) string {
	var min, max time.Time
	for _, v := range vehicles {
		start, end := v.Span()
		if min.IsZero() || start.Before(min) {
			min = start
		}
		if end.After(max) {
			max = end
		}
	}
	return fmt.Sprintf("%s_%s", min.Format("02"), max.Format("02-01-2006"))
}

func durOrNil(h float64) any {
	if math.IsNaN(h) {
		return nil
	}
	return h
}

// unionColumns merges the vehicles' signal columns, preferred signals
// first, with DifHora right after Horas Motor.
func unionColumns(vehicles []*Vehicle) []string {
	seen := map[string]bool{}
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
			if c == "Horas Motor" {
				seen["DifHora"] = true
				cols = append(cols, "DifHora")
			}
		}
	}
	for _, p := range preferredColumns {
		for _, v := range vehicles {
			if v.HasColumn(p) {
				add(p)
				break
			}
		}
	}
	for _, v := range vehicles {
		for _, c := range v.Columns {
			add(c)
		}
	}
	return cols
}

func readingsTable(name string, vehicles []*Vehicle, cols []string) sheet.Table {
	t := sheet.Table{
		Name:    name,
		Headers: append([]string{"Data/Hora", "Frota", "Duração", "Latitude", "Longitude"}, cols...),
	}
	for _, v := range vehicles {
		for _, r := range v.Readings {
			row := []any{r.Timestamp.Format(models.DateTimeBR), v.Frota, durOrNil(r.DurationH), r.Lat, r.Lon}
			for _, c := range cols {
				if c == "DifHora" {
					row = append(row, durOrNil(r.HourDelta))
					continue
				}
				if val := r.Values[c]; val != "" {
					row = append(row, val)
				} else {
					row = append(row, nil)
				}
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func statsCells(s Stats, tempCols []string) []any {
	cells := []any{
		s.HoraMotorInicial,
		s.HoraMotorFinal,
		s.TotalHorasMotor,
		s.RPM,
		s.TempoRegistrado,
		s.HorasProdutivas,
		s.MotorOcioso,
		s.MotorDesligado,
		s.PctProdutivo,
		s.PctOcioso,
		s.PctDesligado,
	}
	for _, c := range tempCols {
		if v, ok := s.TempMeans[c]; ok {
			cells = append(cells, v)
		} else {
			cells = append(cells, nil)
		}
	}
	return append(cells, s.VelocidadeMedia)
}

var statsHeaders = []string{
	"Hora Motor Inicial",
	"Hora Motor Final",
	"Total Horas Motor (Diferença)",
	"RPM",
	"Tempo Registrado (Total)",
	"Horas Produtivas",
	"Motor Ocioso",
	"Motor Desligado",
	"% Produtivo",
	"% Ocioso",
	"% Desligado",
}

func writeWorkbook(vehicles []*Vehicle, outPath string) error {
	cols := unionColumns(vehicles)

	tempSeen := map[string]bool{}
	var tempCols []string
	for _, v := range vehicles {
		for _, c := range tempColumns(v.Columns) {
			if !tempSeen[c] {
				tempSeen[c] = true
				tempCols = append(tempCols, c)
			}
		}
	}

	// Dias Únicos only makes sense for the whole stream, so only the
	// Resumo sheet carries it, right after Tempo Registrado.
	resumo := sheet.Table{Name: "Resumo", Headers: []string{"Frota", "Nickname"}}
	resumo.Headers = append(resumo.Headers, statsHeaders[:5]...)
	resumo.Headers = append(resumo.Headers, "Dias Únicos Registrados")
	resumo.Headers = append(resumo.Headers, statsHeaders[5:]...)
	for _, c := range tempCols {
		resumo.Headers = append(resumo.Headers, "Média "+c)
	}
	resumo.Headers = append(resumo.Headers, "Velocidade Média")

	diario := sheet.Table{Name: "Resumo Diário", Headers: []string{"Data", "Frota"}}
	diario.Headers = append(diario.Headers, statsHeaders...)
	for _, c := range tempCols {
		diario.Headers = append(diario.Headers, "Média "+c)
	}
	diario.Headers = append(diario.Headers, "Velocidade Média")

	for _, v := range vehicles {
		overall := OverallStats(v)
		cells := statsCells(overall, tempCols)
		row := []any{v.Frota, v.Nickname}
		row = append(row, cells[:5]...)
		row = append(row, overall.DiasUnicos)
		row = append(row, cells[5:]...)
		resumo.Rows = append(resumo.Rows, row)

		for _, day := range DailyStats(v) {
			row := []any{day.Date, v.Frota}
			row = append(row, statsCells(day, tempCols)...)
			diario.Rows = append(diario.Rows, row)
		}
	}

	original := readingsTable("Original", vehicles, cols)

	excluded := map[string]bool{}
	for _, c := range excludedColumns {
		excluded[c] = true
	}
	var dadosCols []string
	for _, c := range cols {
		if !excluded[c] {
			dadosCols = append(dadosCols, c)
		}
	}
	dados := readingsTable("Dados", vehicles, dadosCols)

	f := excelize.NewFile()
	defer f.Close()
	for _, t := range []sheet.Table{resumo, diario, original, dados} {
		if err := sheet.Write(f, t); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return sheet.SaveAtomic(f, outPath)
}
