//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/weather-daemon/internal/adapter/artifact"
	"github.com/couchcryptid/weather-daemon/internal/adapter/kafka"
	"github.com/couchcryptid/weather-daemon/internal/config"
	"github.com/couchcryptid/weather-daemon/internal/domain"
	"github.com/couchcryptid/weather-daemon/internal/observability"
	"github.com/couchcryptid/weather-daemon/internal/pipeline"
)

var testNow = time.Date(2026, time.January, 27, 20, 0, 0, 0, time.UTC)

// mirroredMessage holds a deserialized message read from the mirror topic.
type mirroredMessage struct {
	Doc     domain.Document
	Raw     []byte
	Key     string
	Headers map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("weatherd-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readMirrored reads a single message from the start of the topic.
func readMirrored(ctx context.Context, t *testing.T, broker, topic string) mirroredMessage {
	t.Helper()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read from mirror topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var doc domain.Document
	require.NoError(t, json.Unmarshal(msg.Value, &doc), "unmarshal mirrored document")

	return mirroredMessage{Doc: doc, Raw: msg.Value, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, topic string) *config.Config {
	return &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   topic,
		Timeout:      10 * time.Second,
	}
}

func testTarget() domain.PollTarget {
	return domain.PollTarget{Name: "Test Location", Latitude: 37.422, Longitude: -122.0841}
}

// TestKafkaWriter_Mirror verifies a document round-trips through the mirror sink.
func TestKafkaWriter_Mirror(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	const topic = "weather-mirror"
	createTopic(t, broker, topic)

	writer := kafka.NewWriter(testConfig(broker, topic), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	doc := domain.Normalize(domain.RawFetchResult{}, testTarget(), testNow)
	require.NoError(t, writer.Mirror(ctx, "cycle-1", doc))

	got := readMirrored(ctx, t, broker, topic)
	assert.Equal(t, "Test Location", got.Key)
	assert.Equal(t, "cycle-1", got.Headers["cycle_id"])
	assert.Equal(t, "2026-01-27T20:00:00Z", got.Headers["updated"])
	assert.Equal(t, doc.Location, got.Doc.Location)
	assert.True(t, doc.Updated.Equal(got.Doc.Updated))
}

type stubFetcher struct {
	raw domain.RawFetchResult
}

func (s stubFetcher) Fetch(context.Context) (domain.RawFetchResult, error) {
	return s.raw, nil
}

// TestPipeline_PublishesAndMirrors runs one full cycle with the Kafka mirror
// attached and checks the mirrored document matches the file on disk.
func TestPipeline_PublishesAndMirrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	const topic = "weather-pipeline"
	createTopic(t, broker, topic)

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(testNow)
	target := testTarget()

	pub, err := artifact.NewPublisher(t.TempDir(), logger, metrics)
	require.NoError(t, err)
	monitor := observability.NewMonitor(observability.MonitorConfig{
		Location:     target.Name,
		PollInterval: time.Hour,
		OutputFile:   pub.Path(),
	}, clock)

	writer := kafka.NewWriter(testConfig(broker, topic), logger)
	t.Cleanup(func() { _ = writer.Close() })

	raw := domain.RawFetchResult{
		domain.SectionCurrent: domain.NewNode(map[string]any{
			"temperature":      map[string]any{"degrees": 16.9},
			"weatherCondition": map[string]any{"type": "CLOUDY", "description": map[string]any{"text": "Cloudy"}},
		}),
	}
	p := pipeline.New(stubFetcher{raw: raw}, pipeline.NewNormalizer(target, clock, time.UTC), pub, monitor,
		clock, time.Hour, logger, metrics, writer)

	require.NoError(t, p.RunOnce(ctx))

	got := readMirrored(ctx, t, broker, topic)
	require.NotNil(t, got.Doc.Now.Temp)
	assert.Equal(t, 62, *got.Doc.Now.Temp)
	assert.NotEmpty(t, got.Headers["cycle_id"])

	onDisk, err := os.ReadFile(pub.Path())
	require.NoError(t, err)
	var fileDoc domain.Document
	require.NoError(t, json.Unmarshal(onDisk, &fileDoc))
	assert.Equal(t, fileDoc.Now, got.Doc.Now)
	assert.Equal(t, fileDoc.Location, got.Doc.Location)

	successes, errs := monitor.Counts()
	assert.Equal(t, int64(1), successes)
	assert.Equal(t, int64(0), errs)
}
