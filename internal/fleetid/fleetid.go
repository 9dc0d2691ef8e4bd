// Package fleetid extracts numeric fleet unit codes from the free-text
// identifiers found in report cells and file names.
package fleetid

import "regexp"

// Unknown is the placeholder code used when no digits can be found.
const Unknown = "DESCONHECIDO"

var (
	prefixed = regexp.MustCompile(`(?i)(?:MB|FROTA|NO\.)\s*(\d+)`)
	digitRun = regexp.MustCompile(`\d+`)
)

// Extract pulls the fleet code out of an identifier such as "MB547",
// "Frota 235" or "Colhedora_MB469.zip". A known prefix wins; otherwise
// the longest run of digits is used. Returns Unknown when the input has
// no digits at all.
func Extract(s string) string {
	if m := prefixed.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	runs := digitRun.FindAllString(s, -1)
	if len(runs) == 0 {
		return Unknown
	}
	best := runs[0]
	for _, r := range runs[1:] {
		if len(r) > len(best) {
			best = r
		}
	}
	return best
}
