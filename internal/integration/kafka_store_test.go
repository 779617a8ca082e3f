//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/datastore"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/observability"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-timeseries"

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("tsproc-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestKafkaStore_ScriptPublishesSeries runs a script that writes two series to a Kafka
// datastore and reads the published documents back off the topic.
func TestKafkaStore_ScriptPublishesSeries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}}
	p := processor.New(processor.Options{
		Opener:  datastore.NewFactory(cfg, discardLogger()),
		Logger:  discardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	})

	script := fmt.Sprintf(`SetOutputPeriod(OutputStart="2024-01-01",OutputEnd="2024-01-03")
NewTimeSeries(NewTSID="LOC1.USGS.FLOW.Day",Units="CFS",InitialValue="5")
Copy(Alias="copy",TSID="LOC1.USGS.FLOW.Day",NewTSID="LOC1.USGS.FLOW.Day[copy]")
NewDataStore(Name="Bus",Type="Kafka",Topic=%q)
WriteTimeSeries(DataStore="Bus",TSList=AllTS)`, testTopic)

	summary, err := p.RunCommands(ctx, command.SplitLines(script), processor.RunOptions{Phase: command.PhaseRun})
	require.NoError(t, err)
	require.Equal(t, command.SeveritySuccess, summary.Severity, "%+v", summary.Commands)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := map[string]*domain.TimeSeries{}
	for len(got) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		_, err = time.Parse(time.RFC3339, headers["written_at"])
		assert.NoError(t, err, "written_at should be RFC3339")
		assert.Equal(t, "CFS", headers["units"])

		ts, err := domain.UnmarshalTimeSeries(msg.Value)
		require.NoError(t, err)
		assert.Equal(t, headers["tsid"], ts.ID.String())
		got[ts.ID.String()] = ts
	}

	require.Contains(t, got, "LOC1.USGS.FLOW.Day")
	require.Contains(t, got, "LOC1.USGS.FLOW.Day[copy]")
	for _, ts := range got {
		require.NotEmpty(t, ts.Points)
		for _, pt := range ts.Points {
			assert.Equal(t, 5.0, pt.Value)
		}
	}
}

// TestKafkaStore_ReadIsUnsupported checks that reading a topic fails the command and
// the run continues.
func TestKafkaStore_ReadIsUnsupported(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}}
	p := processor.New(processor.Options{
		Opener: datastore.NewFactory(cfg, discardLogger()),
		Logger: discardLogger(),
	})

	script := fmt.Sprintf(`NewDataStore(Name="Bus",Type="Kafka",Topic=%q)
ReadTimeSeries(DataStore="Bus",TSID="LOC1.USGS.FLOW.Day")
NewTimeSeries(NewTSID="A.X.Flow.Day")`, testTopic)

	summary, err := p.RunCommands(ctx, command.SplitLines(script), processor.RunOptions{Phase: command.PhaseRun})
	require.NoError(t, err)
	require.Len(t, summary.Commands, 3)
	assert.Equal(t, command.SeveritySuccess, summary.Commands[0].Severity)
	assert.Equal(t, command.SeverityFailure, summary.Commands[1].Severity)
	assert.Equal(t, []string{"A.X.Flow.Day"}, summary.Results)
}
