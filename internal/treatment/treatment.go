// Package treatment normalizes raw fleet report workbooks: it drops
// administrative columns, derives durations and engine time, and adds
// per-day, per-operator and period summary sheets to a *_tratado.xlsx
// copy of each input.
package treatment

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"frota-etl/internal/config"
	"frota-etl/internal/period"
	"frota-etl/internal/sheet"

	"github.com/xuri/excelize/v2"
)

// Result reports what one treatment run did.
type Result struct {
	Inputs   []string
	Outputs  []string
	Warnings int
}

// Run treats every fleet report workbook found in the data directory.
// When no workbook is present it first extracts timeline zip archives
// and rescans.
func Run(cfg *config.Config, log *slog.Logger) (*Result, error) {
	files, err := findWorkbooks(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if len(files) == 0 {
		extracted, warns, err := extractTimelineZips(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		res.Warnings += warns
		if extracted > 0 {
			files, err = findWorkbooks(cfg.DataDir)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .xlsx input files found in %s", cfg.DataDir)
	}

	log.Info("treating fleet reports", "files", len(files))
	for _, path := range files {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outPath := filepath.Join(filepath.Dir(path), base+"_tratado.xlsx")
		warns, err := processFile(path, outPath, log)
		res.Warnings += warns
		if err != nil {
			log.Error("treatment failed", "file", filepath.Base(path), "error", err)
			res.Warnings++
			continue
		}
		fmt.Printf("Tratado: %s -> %s\n", filepath.Base(path), filepath.Base(outPath))
		res.Inputs = append(res.Inputs, path)
		res.Outputs = append(res.Outputs, outPath)
	}
	if len(res.Outputs) == 0 {
		return nil, fmt.Errorf("all %d input files failed treatment", len(files))
	}
	return res, nil
}

// findWorkbooks lists treatable .xlsx files, skipping Excel lock files
// and previous treatment outputs.
func findWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.Contains(lower, "_tratado") || strings.HasPrefix(lower, "consolidado_case") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// extractTimelineZips expands linha_do_tempo archives in place. A
// corrupted member surfaces as an error for that archive; the others
// still extract.
func extractTimelineZips(dir string, log *slog.Logger) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading data directory: %w", err)
	}
	extracted, warnings := 0, 0
	for _, e := range entries {
		name := e.Name()
		lower := strings.ToLower(name)
		if e.IsDir() || !strings.HasSuffix(lower, ".zip") || !strings.Contains(lower, "linha_do_tempo") {
			continue
		}
		path := filepath.Join(dir, name)
		n, err := extractArchive(path, dir)
		if err != nil {
			log.Warn("zip extraction failed", "archive", name, "error", err)
			warnings++
			continue
		}
		fmt.Printf("ZIP extraído: %s (%d planilhas)\n", name, n)
		extracted += n
	}
	return extracted, warnings, nil
}

// extractArchive copies every spreadsheet member of the archive into
// destDir. Members are fully read before the final rename so a CRC
// mismatch is detected instead of leaving a truncated file behind.
func extractArchive(zipPath, destDir string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	count := 0
	for _, member := range zr.File {
		lower := strings.ToLower(member.Name)
		if !strings.HasSuffix(lower, ".xls") && !strings.HasSuffix(lower, ".xlsx") {
			continue
		}
		if err := extractMember(member, destDir); err != nil {
			return count, fmt.Errorf("member %s: %w", member.Name, err)
		}
		count++
	}
	return count, nil
}

func extractMember(member *zip.File, destDir string) error {
	rc, err := member.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dest := filepath.Join(destDir, filepath.Base(member.Name))
	tmp, err := os.CreateTemp(destDir, ".extract*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("corrupted archive member: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dest)
}

// processFile treats one workbook and writes the result next to it.
func processFile(path, outPath string, log *slog.Logger) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rng, hasRange := period.FromFilename(filepath.Base(path))
	if hasRange {
		log.Info("filtering by reporting window", "file", filepath.Base(path), "period", rng.Label())
	}

	warnings := 0
	l, err := load(f, rng, func(format string, args ...any) {
		log.Warn(fmt.Sprintf(format, args...), "file", filepath.Base(path))
	})
	if err != nil {
		return warnings, err
	}
	warnings += l.warnings
	if len(l.intervals) == 0 {
		return warnings, fmt.Errorf("no usable rows in %s", filepath.Base(path))
	}
	cm, err := mapColumns(l.headers)
	if err != nil {
		return warnings, err
	}

	unitDays := SummarizeUnits(l.intervals)
	operatorDays := SummarizeOperators(l.intervals)

	out := excelize.NewFile()
	defer out.Close()

	tables := []sheet.Table{buildOriginal(l), buildTratado(l, cm)}
	tables = append(tables, unitDaySheets(unitDays)...)
	tables = append(tables, operatorSheets(operatorDays)...)
	if t := periodUnitTable(RollupUnits(unitDays)); len(t.Rows) > 0 {
		tables = append(tables, t)
	}
	if t := periodOperatorTable(RollupOperators(operatorDays)); len(t.Rows) > 0 {
		tables = append(tables, t)
	}
	tables = append(tables, offenderSheets(TopOffenders(l.intervals))...)
	tables = append(tables, intervalSheets(Intervals(l.intervals))...)

	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		if err := sheet.Write(out, t); err != nil {
			return warnings, err
		}
	}
	if err := out.DeleteSheet("Sheet1"); err != nil {
		return warnings, err
	}
	if err := sheet.SaveAtomic(out, outPath); err != nil {
		return warnings, err
	}
	return warnings, nil
}
