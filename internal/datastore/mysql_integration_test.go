//go:build integration

package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/tphakala/seismo-go/internal/conf"
)

func TestMySQLStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MySQL container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("seismo"),
		tcmysql.WithUsername("seismo"),
		tcmysql.WithPassword("seismo"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, testcontainers.TerminateContainer(container))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Output.MySQL = conf.MySQLSettings{
		Enabled:  true,
		Username: "seismo",
		Password: "seismo",
		Host:     host,
		Port:     port.Port(),
		Database: "seismo",
	}

	store := New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	run := testRun()
	record, err := store.BeginRun(run)
	require.NoError(t, err)
	require.NoError(t, store.SaveDetections(record.ID, []Detection{
		{Label: "P", Time: t0, Score: 0.99, Traces: "E;N;Z"},
	}))
	require.NoError(t, store.FinishRun(record.ID, StatusCompleted, 1))

	got, err := store.GetRun(run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	detections, err := store.GetDetections(record.ID, "P")
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.True(t, t0.Equal(detections[0].Time))
}
