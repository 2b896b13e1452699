package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

var testCV = types.CV{Label: "MS", Name: "PSI-MS", URI: "https://example.org/psi-ms.obo", Version: "4.1"}

// setupBackend attaches a Backend to a fresh data dir and detaches it when
// the test ends.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func countRows(t *testing.T, b *Backend, table string) int {
	t.Helper()
	var n int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func addInstrument(t *testing.T, b *Backend, name string) *types.Instrument {
	t.Helper()
	inst := &types.Instrument{Name: name, Model: types.ModelQExactive, CV: testCV}
	require.NoError(t, b.InsertInstrument(context.Background(), inst))
	return inst
}

func numericValue(vt types.ValueType, header, channel string, v float64) *types.Value {
	return &types.Value{
		Property: types.NewProperty(vt, header, channel, testCV),
		Summary: types.Summary{
			FirstValue: "x",
			N:          1,
			NDistinct:  1,
			Numeric:    &types.NumericSummary{Min: v, Max: v, Mean: v, Median: v, Q1: v, Q3: v},
		},
	}
}

func textValue(vt types.ValueType, header, channel, first string) *types.Value {
	return &types.Value{
		Property: types.NewProperty(vt, header, channel, testCV),
		Summary:  types.Summary{FirstValue: first, N: 2, NDistinct: 1},
	}
}

func date(day int) time.Time {
	return time.Date(2024, time.March, day, 8, 30, 0, 0, time.UTC)
}
