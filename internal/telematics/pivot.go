package telematics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"frota-etl/internal/fleetid"
	"frota-etl/internal/models"
)

// signalRenames maps raw telematics signal names to the column names
// the rest of the pipeline consumes. Two raw names may share a
// canonical name; the first value seen for a timestamp wins.
var signalRenames = map[string]string{
	"Velocidade de Deslocamento":   "Velocidade",
	"Velocidade de GPS":            "Velocidade",
	"Rotação do Motor":             "RPM",
	"Rotação do Motor Baixa":       "RPM",
	"Taxa de combustível do motor": "Consumo (L/h)",
	"Nível de Combustível":         "Nivel Combustivel",
	"Status da Colheita":           "Status Colheita",
	"Elevator Fan RPM":             "RPM Extrator Primario",
	"Chopper Drum RPM":             "RPM Picador",
	"Base Cutter Pressure":         "Pressao Corte Base",
	"Horas de Motor":               "Horas Motor",
}

// preferredColumns fixes the display order of the canonical signals;
// passthrough signals follow in first-seen order.
var preferredColumns = []string{
	"Velocidade",
	"RPM",
	"Consumo (L/h)",
	"Nivel Combustivel",
	"Status Colheita",
	"RPM Extrator Primario",
	"RPM Picador",
	"Pressao Corte Base",
	"Horas Motor",
}

// Reading is one pivoted telematics sample: every signal reported at
// the same timestamp and position.
type Reading struct {
	Timestamp time.Time
	Lat       string
	Lon       string
	Values    map[string]string
	// DurationH is the gap to the next reading in hours; NaN on the
	// last reading.
	DurationH float64
	// HourDelta is the engine hour meter advance to the next reading;
	// NaN when either side is missing.
	HourDelta float64
}

// Vehicle is one machine's pivoted telematics stream.
type Vehicle struct {
	Frota    string
	Nickname string
	Columns  []string
	Readings []Reading
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func detectComma(header string) rune {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

// ParseCSV reads one long-format telematics export and pivots it into
// a wide per-timestamp stream.
func ParseCSV(r io.Reader) (*Vehicle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectComma(string(firstLine))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	tsIdx, ok := idx["event_timestamp"]
	if !ok {
		return nil, fmt.Errorf("column event_timestamp not found")
	}
	nameIdx, ok := idx["name"]
	if !ok {
		return nil, fmt.Errorf("column name not found")
	}
	field := func(row []string, name string) string {
		if i, ok := idx[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	type key struct {
		ts       int64
		lat, lon string
	}
	readings := map[key]*Reading{}
	columnSeen := map[string]bool{}
	var passthrough []string

	v := &Vehicle{}
	_, hasNickname := idx["nickname"]
	if !hasNickname {
		v.Nickname = ""
		v.Frota = "SEM_NICKNAME"
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading rows: %w", err)
		}
		if hasNickname && v.Nickname == "" {
			if nick := field(row, "nickname"); nick != "" {
				v.Nickname = nick
				v.Frota = fleetid.Extract(nick)
			}
		}
		if tsIdx >= len(row) || nameIdx >= len(row) {
			continue
		}
		ts, err := parseTimestamp(row[tsIdx])
		if err != nil {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		if canonical, ok := signalRenames[name]; ok {
			name = canonical
		}
		value := field(row, "text_value")
		if value == "" {
			value = field(row, "numeric_value")
		}

		k := key{ts.UnixNano(), field(row, "lat"), field(row, "lon")}
		rd := readings[k]
		if rd == nil {
			rd = &Reading{Timestamp: ts, Lat: k.lat, Lon: k.lon, Values: map[string]string{}}
			readings[k] = rd
		}
		if _, exists := rd.Values[name]; !exists {
			rd.Values[name] = value
		}
		if !columnSeen[name] {
			columnSeen[name] = true
			isPreferred := false
			for _, p := range preferredColumns {
				if p == name {
					isPreferred = true
					break
				}
			}
			if !isPreferred {
				passthrough = append(passthrough, name)
			}
		}
	}

	if v.Frota == "" {
		v.Frota = fleetid.Unknown
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("no usable rows")
	}

	for _, p := range preferredColumns {
		if columnSeen[p] {
			v.Columns = append(v.Columns, p)
		}
	}
	v.Columns = append(v.Columns, passthrough...)

	v.Readings = make([]Reading, 0, len(readings))
	for _, rd := range readings {
		v.Readings = append(v.Readings, *rd)
	}
	sort.Slice(v.Readings, func(i, j int) bool {
		return v.Readings[i].Timestamp.Before(v.Readings[j].Timestamp)
	})

	hasMeter := columnSeen["Horas Motor"]
	for i := range v.Readings {
		v.Readings[i].DurationH = math.NaN()
		v.Readings[i].HourDelta = math.NaN()
		if i+1 < len(v.Readings) {
			gap := v.Readings[i+1].Timestamp.Sub(v.Readings[i].Timestamp)
			v.Readings[i].DurationH = gap.Hours()
			if hasMeter {
				cur, okCur := parseFloat(v.Readings[i].Values["Horas Motor"])
				next, okNext := parseFloat(v.Readings[i+1].Values["Horas Motor"])
				if okCur && okNext {
					v.Readings[i].HourDelta = next - cur
				}
			}
		}
	}
	return v, nil
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// HasColumn reports whether the vehicle stream carries the column.
func (v *Vehicle) HasColumn(name string) bool {
	for _, c := range v.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Span returns the first and last reading timestamps.
func (v *Vehicle) Span() (time.Time, time.Time) {
	if len(v.Readings) == 0 {
		return time.Time{}, time.Time{}
	}
	return v.Readings[0].Timestamp, v.Readings[len(v.Readings)-1].Timestamp
}

// Days lists the distinct reading days in order.
func (v *Vehicle) Days() []string {
	seen := map[string]bool{}
	var days []string
	for _, r := range v.Readings {
		d := r.Timestamp.Format(models.DateISO)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Strings(days)
	return days
}
