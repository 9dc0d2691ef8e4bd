package models

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Equipment type labels are normalized to the fleet vocabulary used by
// every downstream stage.
var equipmentRenames = map[string]string{
	"COLHEDORA DE CANA": "COLHEDORA",
	"TRATOR TRANSBORDO": "TRATORES",
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritical marks, e.g. "MANUTENÇÃO" -> "MANUTENCAO".
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeEquipmentType trims, uppercases and renames an equipment
// type description to its canonical fleet name.
func NormalizeEquipmentType(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	if renamed, ok := equipmentRenames[up]; ok {
		return renamed
	}
	return up
}

// FormatGroupLabel turns an operation group description into a column
// label fragment: "SEM OPERADOR" -> "Sem_Operador". Accents are dropped
// so producers and consumers agree on the exact spelling.
func FormatGroupLabel(s string) string {
	words := strings.Fields(strings.ToLower(StripAccents(strings.TrimSpace(s))))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, "_")
}

// FolderName normalizes an equipment type into the directory name used
// by the partitioned JSON tree, e.g. "COLHEDORA" -> "colhedora".
func FolderName(unitType string) string {
	t := strings.ToLower(StripAccents(strings.TrimSpace(unitType)))
	if t == "" {
		return "outros"
	}
	switch t {
	case "colhedora de cana":
		return "colhedora"
	case "trator transbordo":
		return "transbordo"
	}
	t = strings.ReplaceAll(t, " ", "_")
	return strings.ReplaceAll(t, "/", "-")
}

// ParseNumber parses a numeric cell tolerantly: strips spaces and
// non-breaking spaces, accepts comma as decimal separator and returns 0
// for anything unparseable.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

var dateLayouts = []string{
	DateBR,
	DateISO,
	DateFile,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"01-02-06", // excel short form
}

// ParseDate parses a date cell in any of the formats the source
// workbooks use and returns the day at midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

var clockLayouts = []string{"15:04:05", "15:04", "15:04:05.000"}

// ParseClock parses a time-of-day cell and returns the offset from
// midnight.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

var dateTimeLayouts = []string{
	DateTimeBR,
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDateTime parses a full timestamp cell.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
