// Tests for the merge gateway: upsert, conflict and referential rules per
// entity kind, and rollback on failure.
package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

func TestMergeCV(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	first := &types.CV{Label: "MS", Name: "PSI-MS", URI: "http://old", Version: "1"}
	require.NoError(t, b.MergeCV(ctx, first))
	require.NotEmpty(t, first.CVID)

	second := &types.CV{Label: "MS", Name: "PSI Mass Spec", URI: "http://new", Version: "2"}
	require.NoError(t, b.MergeCV(ctx, second))

	assert.Equal(t, first.CVID, second.CVID, "same label keeps the surrogate id")
	assert.Equal(t, 1, countRows(t, b, "cvs"))

	got, err := b.GetCV(ctx, "MS")
	require.NoError(t, err)
	assert.Equal(t, "PSI Mass Spec", got.Name)
	assert.Equal(t, "http://new", got.URI)
	assert.Equal(t, "2", got.Version)

	assert.ErrorIs(t, b.MergeCV(ctx, &types.CV{Label: " "}), types.ErrInvalidName)
}

func TestInsertInstrument(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	inst := addInstrument(t, b, "orbi")
	assert.NotEmpty(t, inst.InstrumentID)
	assert.NotEmpty(t, inst.CVID)

	again := &types.Instrument{
		Name:  "orbi",
		Model: types.ModelTSQVantage,
		CV:    types.CV{Label: "MS", Name: "renamed"},
	}
	err := b.InsertInstrument(ctx, again)
	require.ErrorIs(t, err, types.ErrConflict)
	var conflict *types.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, types.InstrumentKey("orbi"), conflict.Key)

	assert.Equal(t, 1, countRows(t, b, "instruments"))
	got, err := b.GetInstrument(ctx, "orbi", types.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.ModelQExactive, got.Model)
	assert.Equal(t, testCV.Name, got.CV.Name, "rejected write must not touch the cv")

	assert.ErrorIs(t, b.InsertInstrument(ctx, &types.Instrument{Name: "", CV: testCV}), types.ErrInvalidName)
}

func TestInsertInstrument_DefaultsModel(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.InsertInstrument(ctx, &types.Instrument{Name: "mystery", CV: testCV}))
	got, err := b.GetInstrument(ctx, "mystery", types.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.ModelUnknown, got.Model)
}

func TestInsertProperty(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	prop := types.NewProperty(types.ValueTypeTuneMethod, "Ion Source", "Spray Voltage", testCV)
	prop.IsNumeric = true
	require.NoError(t, b.InsertProperty(ctx, &prop))
	assert.NotEmpty(t, prop.PropertyID)

	dup := types.NewProperty(types.ValueTypeTuneMethod, "Ion Source", "Spray Voltage", testCV)
	assert.ErrorIs(t, b.InsertProperty(ctx, &dup), types.ErrConflict)
	assert.Equal(t, 1, countRows(t, b, "properties"))

	got, err := b.GetProperty(ctx, prop.Accession)
	require.NoError(t, err)
	assert.Equal(t, "Ion Source - Spray Voltage", got.Name)
	assert.True(t, got.IsNumeric)
	assert.Equal(t, types.ValueTypeTuneMethod, got.ValueType)
	assert.Equal(t, "MS", got.CV.Label)

	bad := types.Property{Accession: "x", Name: "x", ValueType: "rawfile", CV: testCV}
	assert.ErrorIs(t, b.InsertProperty(ctx, &bad), types.ErrInvalidValueType)
}

func TestInsertRun(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")

	run := &types.Run{
		Name:           "r1",
		InstrumentName: "orbi",
		StoragePath:    "/data/orbi/r1.raw",
		SampleDate:     date(1),
		Values: []*types.Value{
			numericValue(types.ValueTypeStatusLog, "RF Amplifier", "Temp", 42),
			textValue(types.ValueTypeTuneMethod, "Ion Source", "Polarity", "positive"),
		},
		Metadata: []*types.Metadata{{Name: "user", Value: "alice"}},
	}
	require.NoError(t, b.InsertRun(ctx, run))
	assert.NotEmpty(t, run.RunID)
	for _, v := range run.Values {
		assert.NotEmpty(t, v.ValueID)
		assert.Equal(t, run.RunID, v.RunID)
		assert.NotEmpty(t, v.Property.PropertyID)
	}

	assert.Equal(t, 1, countRows(t, b, "runs"))
	assert.Equal(t, 2, countRows(t, b, "run_values"))
	assert.Equal(t, 2, countRows(t, b, "properties"))
	assert.Equal(t, 2, countRows(t, b, "instrument_properties"))
	assert.Equal(t, 1, countRows(t, b, "run_metadata"))
	assert.Equal(t, 1, countRows(t, b, "cvs"))

	got, err := b.GetRun(ctx, "orbi", "r1", types.FetchOptions{Values: true, Metadata: true})
	require.NoError(t, err)
	assert.True(t, got.SampleDate.Equal(date(1)))
	assert.Equal(t, "/data/orbi/r1.raw", got.StoragePath)
	require.Len(t, got.Values, 2)

	byName := map[string]*types.Value{}
	for _, v := range got.Values {
		byName[v.Property.Name] = v
	}
	temp := byName["RF Amplifier - Temp"]
	require.NotNil(t, temp)
	require.NotNil(t, temp.Numeric)
	assert.Equal(t, 42.0, temp.Numeric.Median)
	polarity := byName["Ion Source - Polarity"]
	require.NotNil(t, polarity)
	assert.Nil(t, polarity.Numeric)
	assert.Equal(t, "positive", polarity.FirstValue)
	assert.Equal(t, 2, polarity.N)

	require.Len(t, got.Metadata, 1)
	assert.Equal(t, "alice", got.Metadata[0].Value)
}

func TestInsertRun_ReusesProperties(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")
	addInstrument(t, b, "qe")

	r1 := &types.Run{Name: "r1", InstrumentName: "orbi", SampleDate: date(1),
		Values: []*types.Value{numericValue(types.ValueTypeStatusLog, "Vacuum", "Fore", 1)}}
	r2 := &types.Run{Name: "r1", InstrumentName: "qe", SampleDate: date(2),
		Values: []*types.Value{numericValue(types.ValueTypeStatusLog, "Vacuum", "Fore", 2)}}
	require.NoError(t, b.InsertRun(ctx, r1))
	require.NoError(t, b.InsertRun(ctx, r2))

	assert.Equal(t, r1.Values[0].Property.PropertyID, r2.Values[0].Property.PropertyID)
	assert.Equal(t, 1, countRows(t, b, "properties"))
	assert.Equal(t, 2, countRows(t, b, "runs"), "same run name on another instrument is a different run")
	assert.Equal(t, 2, countRows(t, b, "instrument_properties"))

	qe, err := b.GetInstrument(ctx, "qe", types.FetchOptions{Properties: true})
	require.NoError(t, err)
	require.Len(t, qe.Properties, 1)
	assert.Equal(t, "Vacuum - Fore", qe.Properties[0].Name)
}

func TestInsertRun_KeepsOwnerCV(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	inst := addInstrument(t, b, "orbi")
	require.NotEmpty(t, inst.CVID)

	run := &types.Run{
		Name:           "r1",
		InstrumentName: "orbi",
		SampleDate:     date(1),
		Values:         []*types.Value{numericValue(types.ValueTypeStatusLog, "Vacuum", "Ion Gauge", 1e-9)},
	}
	require.NoError(t, b.InsertRun(ctx, run))

	got, err := b.GetInstrument(ctx, "orbi", types.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, inst.CVID, got.CVID, "the owner's cv was resolved when the instrument was inserted")
	assert.Equal(t, 1, countRows(t, b, "cvs"), "property cvs share the owner's label")
}

func TestInsertRun_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		run     func() *types.Run
		wantErr error
	}{
		{
			name: "missing instrument",
			run: func() *types.Run {
				return &types.Run{Name: "r9", InstrumentName: "ghost", SampleDate: date(1)}
			},
			wantErr: types.ErrInstrumentNotFound,
		},
		{
			name: "existing run",
			run: func() *types.Run {
				return &types.Run{Name: "r1", InstrumentName: "orbi", SampleDate: date(5),
					Values: []*types.Value{numericValue(types.ValueTypeStatusLog, "New", "Channel", 3)}}
			},
			wantErr: types.ErrConflict,
		},
		{
			name: "no sample date",
			run: func() *types.Run {
				return &types.Run{Name: "r2", InstrumentName: "orbi"}
			},
			wantErr: types.ErrInvalidData,
		},
		{
			name: "duplicate accession",
			run: func() *types.Run {
				v := numericValue(types.ValueTypeStatusLog, "A", "B", 1)
				w := numericValue(types.ValueTypeStatusLog, "A", "B", 2)
				return &types.Run{Name: "r2", InstrumentName: "orbi", SampleDate: date(2), Values: []*types.Value{v, w}}
			},
			wantErr: types.ErrInvalidData,
		},
		{
			name: "duplicate metadata name",
			run: func() *types.Run {
				return &types.Run{Name: "r2", InstrumentName: "orbi", SampleDate: date(2),
					Metadata: []*types.Metadata{{Name: "user", Value: "a"}, {Name: "user", Value: "b"}}}
			},
			wantErr: types.ErrInvalidData,
		},
		{
			name: "empty run name",
			run: func() *types.Run {
				return &types.Run{InstrumentName: "orbi", SampleDate: date(2)}
			},
			wantErr: types.ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			ctx := context.Background()
			addInstrument(t, b, "orbi")
			require.NoError(t, b.InsertRun(ctx, &types.Run{Name: "r1", InstrumentName: "orbi", SampleDate: date(1),
				Values: []*types.Value{numericValue(types.ValueTypeStatusLog, "Vacuum", "Fore", 1)}}))

			err := b.InsertRun(ctx, tt.run())
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 1, countRows(t, b, "runs"))
			assert.Equal(t, 1, countRows(t, b, "run_values"))
			assert.Equal(t, 1, countRows(t, b, "properties"), "rejected runs must not leave properties behind")
			assert.Equal(t, 0, countRows(t, b, "run_metadata"))
		})
	}
}

func TestInsertRun_RollsBackOnFailure(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")

	// The metadata insert is the last write of the transaction. Nothing written
	// before it may survive its failure.
	_, err := b.db.Exec(`CREATE TRIGGER fail_metadata BEFORE INSERT ON run_metadata
		BEGIN SELECT RAISE(ABORT, 'metadata rejected'); END`)
	require.NoError(t, err)

	run := &types.Run{Name: "r1", InstrumentName: "orbi", SampleDate: date(1),
		Values:   []*types.Value{numericValue(types.ValueTypeStatusLog, "Vacuum", "Fore", 1)},
		Metadata: []*types.Metadata{{Name: "user", Value: "alice"}}}
	require.Error(t, b.InsertRun(ctx, run))

	assert.Equal(t, 0, countRows(t, b, "runs"))
	assert.Equal(t, 0, countRows(t, b, "run_values"))
	assert.Equal(t, 0, countRows(t, b, "properties"))
	assert.Equal(t, 0, countRows(t, b, "instrument_properties"))

	_, found, err := b.ResolveID(ctx, types.RunKey("orbi", "r1"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMergeEvent(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")

	first := &types.Event{InstrumentName: "orbi", Date: date(3), Type: types.EventIncident,
		Problem: "spray unstable", Solution: "", Extra: "",
		AttachmentName: "trace.txt", Attachment: []byte("trace line 1\ntrace line 2\n")}
	require.NoError(t, b.MergeEvent(ctx, first))
	require.NotEmpty(t, first.EventID)

	second := &types.Event{InstrumentName: "orbi", Date: date(3), Type: types.EventMaintenance,
		Problem: "spray unstable", Solution: "cleaned emitter", Extra: "2h downtime"}
	require.NoError(t, b.MergeEvent(ctx, second))

	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, 1, countRows(t, b, "events"))

	got, err := b.GetEvent(ctx, "orbi", date(3))
	require.NoError(t, err)
	assert.Equal(t, "cleaned emitter", got.Solution)
	assert.Equal(t, "2h downtime", got.Extra)
	assert.Equal(t, types.EventMaintenance, got.Type)
	assert.Empty(t, got.Attachment)
	assert.True(t, got.Date.Equal(date(3)))
}

func TestMergeEvent_Attachment(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")

	payload := []byte("calibration report\ncalibration report\ncalibration report\n")
	ev := &types.Event{InstrumentName: "orbi", Date: date(4), Type: types.EventCalibration,
		AttachmentName: "report.txt", Attachment: payload}
	require.NoError(t, b.MergeEvent(ctx, ev))

	got, err := b.GetEvent(ctx, "orbi", date(4))
	require.NoError(t, err)
	assert.Equal(t, payload, got.Attachment)
	assert.Equal(t, "report.txt", got.AttachmentName)
}

func TestMergeEvent_Rejections(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")

	tests := []struct {
		name    string
		ev      *types.Event
		wantErr error
	}{
		{name: "missing instrument", ev: &types.Event{InstrumentName: "ghost", Date: date(1)}, wantErr: types.ErrInstrumentNotFound},
		{name: "zero date", ev: &types.Event{InstrumentName: "orbi"}, wantErr: types.ErrInvalidData},
		{name: "unknown type", ev: &types.Event{InstrumentName: "orbi", Date: date(1), Type: "flood"}, wantErr: types.ErrInvalidEventType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, b.MergeEvent(ctx, tt.ev), tt.wantErr)
		})
	}
	assert.Equal(t, 0, countRows(t, b, "events"))
}

func TestMergeEvent_EmptyTypeIsUndefined(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")

	ev := &types.Event{InstrumentName: "orbi", Date: date(1)}
	require.NoError(t, b.MergeEvent(ctx, ev))
	assert.Equal(t, types.EventUndefined, ev.Type)
}

func TestDeleteEvent(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	addInstrument(t, b, "orbi")
	require.NoError(t, b.MergeEvent(ctx, &types.Event{InstrumentName: "orbi", Date: date(1)}))
	require.NoError(t, b.MergeEvent(ctx, &types.Event{InstrumentName: "orbi", Date: date(2)}))

	require.NoError(t, b.DeleteEvent(ctx, "orbi", date(1)))
	assert.Equal(t, 1, countRows(t, b, "events"))

	assert.ErrorIs(t, b.DeleteEvent(ctx, "orbi", date(1)), types.ErrNotFound)
	assert.ErrorIs(t, b.DeleteEvent(ctx, "ghost", date(2)), types.ErrInstrumentNotFound)

	_, err := b.GetEvent(ctx, "orbi", date(1))
	assert.ErrorIs(t, err, types.ErrNotFound)
}
