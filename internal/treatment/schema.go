package treatment

import (
	"fmt"
	"strings"
	"time"

	"frota-etl/internal/fleetid"
	"frota-etl/internal/models"
	"frota-etl/internal/period"
	"frota-etl/internal/sheet"

	"github.com/xuri/excelize/v2"
)

// Canonical column labels of the fleet report export.
const (
	colDataHoraLocal = "Data Hora Local"
	colHoraInicial   = "Hora Inicial"
	colHoraFinal     = "Hora Final"
	colCodigoEquip   = "Código Equipamento"
	colDescEquip     = "Descrição do Equipamento"
	colCodigoOp      = "Código de Operador"
	colNomeOp        = "Nome"
	colDescOperacao  = "Descrição da Operação"
	colDescGrupo     = "Descrição do Grupo da Operação"
	colVelMedia      = "Velocidade Média"
)

// Operation labels that feed dedicated duty buckets.
const (
	opManobra     = "MANOBRA"
	opTransbordo  = "TRANSBORDANDO CANA"
	opSemApont    = "SEM APONTAMENTO"
	opDeslVazio   = "DESL VAZIO"
	opDeslCarreg  = "DESL CARREGADO"
	opColhendo    = "COLHENDO CANA"
	opCarregando  = "CARREGANDO CANA"
)

const (
	groupProdutiva   = "PRODUTIVA"
	groupImprodutiva = "IMPRODUTIVA"
)

// removedColumns are administrative columns dropped from the treated
// sheet. Missing ones are ignored.
var removedColumns = []string{
	"Descrição Regional",
	"Descrição da Unidade",
	"Descrição do Grupo de Equipamento",
	"Código da Fazenda",
	"Código da Zona",
	"Código do Talhão",
	"Descrição da Fazenda",
	"Horímetro/Odometro Secundário",
}

// columnMap locates the columns the treatment needs. Indexes are -1
// when the column is absent.
type columnMap struct {
	dateTime   int
	startTime  int
	endTime    int
	unitCode   int
	unitType   int
	opCode     int
	opName     int
	operation  int
	group      int
	speed      int
	meterStart int
	meterEnd   int
}

func normalizeHeader(s string) string {
	return strings.ToLower(models.StripAccents(strings.TrimSpace(s)))
}

// mapColumns resolves header positions. Fixed labels match after
// trimming and accent folding; hour meter columns are found by
// substring because exports vary their exact wording.
func mapColumns(headers []string) (columnMap, error) {
	cm := columnMap{
		dateTime: -1, startTime: -1, endTime: -1,
		unitCode: -1, unitType: -1, opCode: -1, opName: -1,
		operation: -1, group: -1, speed: -1,
		meterStart: -1, meterEnd: -1,
	}
	want := map[string]*int{
		normalizeHeader(colDataHoraLocal): &cm.dateTime,
		normalizeHeader(colHoraInicial):   &cm.startTime,
		normalizeHeader(colHoraFinal):     &cm.endTime,
		normalizeHeader(colCodigoEquip):   &cm.unitCode,
		normalizeHeader(colDescEquip):     &cm.unitType,
		normalizeHeader(colCodigoOp):      &cm.opCode,
		normalizeHeader(colNomeOp):        &cm.opName,
		normalizeHeader(colDescOperacao):  &cm.operation,
		normalizeHeader(colDescGrupo):     &cm.group,
		normalizeHeader(colVelMedia):      &cm.speed,
	}
	for i, h := range headers {
		norm := normalizeHeader(h)
		if target, ok := want[norm]; ok && *target == -1 {
			*target = i
			continue
		}
		if strings.Contains(norm, "horimetro") || strings.Contains(norm, "odometro") {
			if strings.Contains(norm, "secundario") {
				continue
			}
			if strings.Contains(norm, "inicial") && cm.meterStart == -1 {
				cm.meterStart = i
			}
			if strings.Contains(norm, "final") && cm.meterEnd == -1 {
				cm.meterEnd = i
			}
		}
	}
	if cm.dateTime == -1 {
		return cm, fmt.Errorf("required column %q not found", colDataHoraLocal)
	}
	if cm.unitCode == -1 {
		return cm, fmt.Errorf("required column %q not found", colCodigoEquip)
	}
	return cm, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// loaded pairs the period-filtered raw rows with their parsed
// intervals; the two slices stay index-aligned so the treated sheet
// can carry derived columns next to the raw values.
type loaded struct {
	headers   []string
	raw       [][]string
	intervals []models.OperationInterval
	warnings  int
}

// load reads the first sheet of the workbook, filters it to the
// reporting window and parses each row into an OperationInterval.
// Rows with unparseable dates are dropped with a warning.
func load(f *excelize.File, rng period.Range, warn func(format string, args ...any)) (*loaded, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	headers, rows, err := sheet.ReadRows(f, sheets[0])
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}
	cm, err := mapColumns(headers)
	if err != nil {
		return nil, err
	}

	out := &loaded{headers: headers}
	for i, row := range rows {
		dateStr := cell(row, cm.dateTime)
		if dateStr == "" {
			continue
		}
		date, err := models.ParseDate(dateStr)
		if err != nil {
			warn("row %d: unparseable date %q, row skipped", i+2, dateStr)
			out.warnings++
			continue
		}
		if !rng.Contains(date) {
			continue
		}

		iv := models.OperationInterval{
			Date:         date,
			UnitCode:     fleetid.Extract(cell(row, cm.unitCode)),
			UnitType:     models.NormalizeEquipmentType(cell(row, cm.unitType)),
			OperatorCode: cell(row, cm.opCode),
			OperatorName: cell(row, cm.opName),
			Operation:    strings.ToUpper(cell(row, cm.operation)),
			Group:        strings.ToUpper(cell(row, cm.group)),
			AvgSpeed:     models.ParseNumber(cell(row, cm.speed)),
		}
		if cm.meterStart != -1 && cm.meterEnd != -1 {
			iv.HourMeterDelta = models.ParseNumber(cell(row, cm.meterEnd)) - models.ParseNumber(cell(row, cm.meterStart))
		}

		start, errStart := models.ParseClock(cell(row, cm.startTime))
		end, errEnd := models.ParseClock(cell(row, cm.endTime))
		if errStart == nil && errEnd == nil {
			iv.Start = date.Add(start)
			iv.End = date.Add(end)
			// Appointments crossing midnight are exported with the
			// end clock on the next day.
			if end < start {
				iv.End = iv.End.Add(24 * time.Hour)
			}
			iv.DurationMin = iv.End.Sub(iv.Start).Minutes()
		}

		out.raw = append(out.raw, row)
		out.intervals = append(out.intervals, iv)
	}
	return out, nil
}
