package logreader

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// dump renders a table one cell per line for golden comparison.
func dump(t *Table) []byte {
	var buf bytes.Buffer
	for _, k := range t.Keys() {
		header := k.Header
		if header == "" {
			header = "(none)"
		}
		fmt.Fprintf(&buf, "%s | %s | %s\n", header, k.Channel, strings.Join(t.Values(k), ","))
	}
	return buf.Bytes()
}

func TestReadGolden(t *testing.T) {
	tests := []struct {
		name  string
		model types.InstrumentModel
		input string
	}{
		{
			name:  "orbitrap_status",
			model: types.ModelOrbitrapXL,
			input: "RF Amplifier:\n" +
				"Temp:\t42.0\n" +
				"RF Voltage (V):\t 850.1\n" +
				"\n" +
				"Vacuum\n" +
				"Ion Gauge (E-5 Torr):\t1.20\n" +
				"Convectron (Torr):\t0.95\n" +
				"\n" +
				"RF Amplifier:\n" +
				"Temp:\t42.5\n" +
				"Vacuum\n" +
				"Ion Gauge (E-5 Torr):\t1.22\n",
		},
		{
			name:  "tsq_tune",
			model: types.ModelTSQVantage,
			input: "Ion Source - Spray Voltage\n" +
				"\"Polarity\"\n" +
				"Positive:\t3500\n" +
				"Negative:\t2500\n" +
				"\n" +
				"Vacuum:\n" +
				"Fore Vacuum:\t1.1\n",
		},
		{
			name:  "qexactive_status",
			model: types.ModelQExactivePlus,
			input: "=== Ion Source: ===\r\n" +
				"Spray Voltage (kV):\t3.50\r\n" +
				"Capillary Temp (C):\t320\r\n" +
				"=====\r\n" +
				"Sheath gas:\t35\r\n" +
				"=== Vacuum: ===\r\n" +
				"Fore vacuum (mbar):\t1.6\r\n",
		},
		{
			name:  "fusion_status",
			model: types.ModelOrbitrapFusionLumos,
			input: "Ion Source\n" +
				"Spray Voltage: Positive (V):\t3500\n" +
				"Ion Transfer Tube Temp (C):\t275\n" +
				"-----\n" +
				"Vacuum\n" +
				"Ion Gauge Pressure (Torr):\t1.4E-09\n",
		},
		{
			name:  "default_status",
			model: types.ModelUnknown,
			input: "Source Voltage\t4.5\n" +
				"Source Current\t0.12\n" +
				"\n" +
				"Source Voltage\t4.6\n",
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Read(strings.NewReader(tt.input), tt.model)
			require.NoError(t, err)
			g.Assert(t, tt.name, dump(table))
		})
	}
}

func TestReadOrbitrapScenario(t *testing.T) {
	table, err := Read(strings.NewReader("RF Amplifier\nTemp:\t42.0\n"), types.ModelLTQOrbitrap)
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	k := Key{Header: "RF Amplifier", Channel: "Temp"}
	assert.Equal(t, []Key{k}, table.Keys())
	assert.Equal(t, []string{"42.0"}, table.Values(k))
}

func TestReadTSQContinuationHeader(t *testing.T) {
	input := "Ion Source - Spray Voltage\n\"Polarity\"\nPositive:\t3500\n"
	table, err := Read(strings.NewReader(input), types.ModelTSQQuantiva)
	require.NoError(t, err)

	headers := map[string]bool{}
	for _, k := range table.Keys() {
		headers[k.Header] = true
	}
	assert.Equal(t, map[string]bool{"Ion Source - Polarity": true}, headers,
		"continuation must merge into one reconstructed header")
}

func TestReadTSQContinuationWithoutPrevious(t *testing.T) {
	table, err := Read(strings.NewReader("\"Polarity\"\nPositive:\t1\n"), types.ModelTSQVantage)
	require.NoError(t, err)
	assert.Equal(t, []Key{{Header: "Polarity", Channel: "Positive"}}, table.Keys())
}

func TestReadSeparatorResetsHeader(t *testing.T) {
	input := "Vacuum\nGauge:\t1\n\nGauge:\t2\n"
	table, err := Read(strings.NewReader(input), types.ModelOrbitrapVelos)
	require.NoError(t, err)
	// After the blank line the second reading has no header.
	assert.Equal(t, []Key{
		{Header: "Vacuum", Channel: "Gauge"},
		{Header: "", Channel: "Gauge"},
	}, table.Keys())
}

func TestReadSkipsEmptyChannel(t *testing.T) {
	table, err := Read(strings.NewReader("\t5\nA\t1\n"), types.ModelUnknown)
	require.NoError(t, err)
	assert.Equal(t, []Key{{Channel: "A"}}, table.Keys())
}

func TestDecodeWindows1252(t *testing.T) {
	raw := []byte("Capillary Temp (\xb0C):\t320\n")
	table, err := Read(Decode(bytes.NewReader(raw)), types.ModelQExactive)
	require.NoError(t, err)
	assert.Equal(t, []Key{{Channel: "Capillary Temp (°C)"}}, table.Keys())
}

func TestTableRetain(t *testing.T) {
	table := NewTable()
	table.Append(Key{"h", "a"}, "1")
	table.Append(Key{"h", "b"}, "2")
	table.Append(Key{"h", "a"}, "3")
	table.Append(Key{"h", "c"}, "4")

	removed := table.Retain(func(k Key) bool { return k.Channel != "b" })
	assert.Equal(t, 1, removed)
	assert.Equal(t, []Key{{"h", "a"}, {"h", "c"}}, table.Keys())
	assert.Equal(t, []string{"1", "3"}, table.Values(Key{"h", "a"}))
	assert.Nil(t, table.Values(Key{"h", "b"}))
}
