package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/scan"
)

var t0 = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func sqliteSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = filepath.Join(t.TempDir(), "db", "seismo.db")
	return s
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, ok := New(sqliteSettings(t)).(*SQLiteStore)
	require.True(t, ok)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun() scan.Run {
	return scan.Run{
		ID:        uuid.New(),
		Node:      "test-node",
		Started:   t0,
		ModelType: "transformer",
		ModelPath: "/models/seismo-transformer.tflite",
		Source:    "archives.csv",
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	s := &conf.Settings{}
	assert.Nil(t, New(s))

	s.Output.MySQL.Enabled = true
	assert.IsType(t, &MySQLStore{}, New(s))

	s.Output.SQLite.Enabled = true
	assert.IsType(t, &SQLiteStore{}, New(s), "sqlite wins when both are enabled")
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	t.Parallel()

	store := openSQLite(t)
	run := testRun()

	record, err := store.BeginRun(run)
	require.NoError(t, err)
	assert.NotZero(t, record.ID)

	detections := []Detection{
		{Label: "S", Time: t0.Add(9 * time.Second), Score: 0.97, Traces: "E;N;Z"},
		{Label: "P", Time: t0.Add(5 * time.Second), Score: 0.99, Traces: "E;N;Z"},
	}
	require.NoError(t, store.SaveDetections(record.ID, detections))
	require.NoError(t, store.SaveDetections(record.ID, nil))
	require.NoError(t, store.FinishRun(record.ID, StatusCompleted, len(detections)))

	got, err := store.GetRun(run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Detections)
	assert.Equal(t, "test-node", got.Node)
	require.NotNil(t, got.FinishedAt)

	all, err := store.GetDetections(record.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P", all[0].Label, "time ordered")
	assert.Equal(t, "S", all[1].Label)

	onlyS, err := store.GetDetections(record.ID, "S")
	require.NoError(t, err)
	require.Len(t, onlyS, 1)
	assert.InDelta(t, 0.97, onlyS[0].Score, 1e-6)
}

func TestSQLiteStore_MissingRun(t *testing.T) {
	t.Parallel()

	store := openSQLite(t)
	_, err := store.GetRun(uuid.NewString())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestSQLiteStore_Validation(t *testing.T) {
	t.Parallel()

	s := &conf.Settings{}
	s.Output.SQLite.Enabled = true
	err := New(s).Open()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestDataStore_NotOpened(t *testing.T) {
	t.Parallel()

	var ds DataStore
	_, err := ds.BeginRun(testRun())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
	assert.NoError(t, ds.Close())
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()

	s := conf.MySQLSettings{Username: "u", Password: "p", Host: "db", Database: "seismo"}
	assert.Equal(t, "u:p@tcp(db:3306)/seismo?charset=utf8mb4&parseTime=True&loc=UTC", mysqlDSN(s))
	s.Port = "3307"
	assert.Contains(t, mysqlDSN(s), "tcp(db:3307)")

	require.Error(t, validateMySQLConfig(conf.MySQLSettings{Host: "db"}))
}

func TestSink(t *testing.T) {
	t.Parallel()

	store := &SQLiteStore{Settings: sqliteSettings(t)}
	require.NoError(t, store.Open())

	run := testRun()
	sink, err := NewSink(store, run)
	require.NoError(t, err)

	batch := []scan.Detection{
		{Label: scan.LabelP, Time: t0.Add(5050 * time.Millisecond), Score: 0.99, Group: 1, Batch: 0, Offset: 4850, Traces: []string{"E", "N", "Z"}},
		{Label: scan.LabelS, Time: t0.Add(9 * time.Second), Score: 0.97, Amplitude: 3.5, Group: 1, Batch: 0, Offset: 8800, Traces: []string{"E", "N", "Z"}},
	}
	require.NoError(t, sink.Write(context.Background(), batch))
	require.NoError(t, sink.Write(context.Background(), nil))
	assert.Equal(t, 2, sink.Written())

	runID := sink.Run().ID
	stored, err := store.GetDetections(runID, "")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "E;N;Z", stored[0].Traces)
	assert.Equal(t, 4850, stored[0].Offset)
	assert.Equal(t, 1, stored[1].TraceGroup)
	assert.InDelta(t, 3.5, stored[1].Amplitude, 0)

	sink.SetStatus(StatusCancelled)
	require.NoError(t, sink.Close())

	// reopen to read back the finished run
	reopened := &SQLiteStore{Settings: store.Settings}
	require.NoError(t, reopened.Open())
	defer reopened.Close()
	got, err := reopened.GetRun(run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 2, got.Detections)
}

func TestSink_CancelledContext(t *testing.T) {
	t.Parallel()

	store := openSQLite(t)
	sink, err := NewSink(store, testRun())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sink.Write(ctx, []scan.Detection{{Label: scan.LabelP, Time: t0}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sink.Written())
}
