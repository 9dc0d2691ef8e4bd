package fleetid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"MB547", "547"},
		{"mb469", "469"},
		{"Frota 235", "235"},
		{"FROTA235", "235"},
		{"No. 12", "12"},
		{"Colhedora_MB469.zip", "469"},
		{"235", "235"},
		{"equip 7 lote 4581", "4581"},
		{"sem numero", Unknown},
		{"", Unknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Extract(c.in), "input %q", c.in)
	}
}

func TestExtractPrefixWinsOverLongerRun(t *testing.T) {
	// The prefixed code wins even when another digit run is longer.
	assert.Equal(t, "12", Extract("MB12 serie 999999"))
}
