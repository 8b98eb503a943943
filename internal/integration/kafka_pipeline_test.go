//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/canopy-commissioning/internal/adapter/kafka"
	"github.com/couchcryptid/canopy-commissioning/internal/config"
	"github.com/couchcryptid/canopy-commissioning/internal/domain"
	"github.com/couchcryptid/canopy-commissioning/internal/observability"
	"github.com/couchcryptid/canopy-commissioning/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// reportMessage holds a deserialized message read from the sink topic.
type reportMessage struct {
	Report  domain.ReportContext
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) reportMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rc domain.ReportContext
	require.NoError(t, json.Unmarshal(msg.Value, &rc), "unmarshal sink message")

	return reportMessage{Report: rc, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaEnabled:       true,
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer() *pipeline.ReportTransformer {
	builder := domain.NewBuilder(nil, domain.BuildOptions{}, discardLogger())
	return pipeline.NewTransformer(builder, observability.NewMetricsForTesting(), discardLogger())
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor) and
// kafka.Writer (loader) round-trip a project snapshot through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-reader")

	payload := loadMockProjects(t)[0]
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("P-100"),
		Value: payload,
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("P-100"), raw.Key)
	assert.JSONEq(t, string(payload), string(raw.Value))
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer().Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	msg := readReport(ctx, t, newSinkConsumer(t, broker))
	assert.Equal(t, msg.Report.ReportID, msg.Key)
	assert.Equal(t, msg.Report.ReportID, msg.Headers[domain.HeaderReportID])
	assert.Equal(t, "4", msg.Headers[domain.HeaderCanopyCount])
	_, err = time.Parse(time.RFC3339, msg.Headers[domain.HeaderGeneratedAt])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, "P-100", msg.Report.ProjectNumber)
	assert.Equal(t, "2.90", msg.Report.ExtractTotalDesign)
	assert.Equal(t, "1.528", msg.Report.ExtractTotalActual)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka, including a snapshot sent as a portable link.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-pipeline")
	projects := loadMockProjects(t)

	msgs := make([]kafkago.Message, 0, len(projects)+1)
	for i, payload := range projects {
		msgs = append(msgs, kafkago.Message{Key: []byte("project-" + strconv.Itoa(i)), Value: payload})
	}

	// The last fixture again, as a share URL.
	p, err := domain.ParseProject(projects[len(projects)-1])
	require.NoError(t, err)
	shareURL, err := domain.ShareURL("https://reports.example.com", p)
	require.NoError(t, err)
	msgs = append(msgs, kafkago.Message{
		Key:     []byte("project-link"),
		Value:   []byte(shareURL),
		Headers: []kafkago.Header{{Key: domain.HeaderEncoding, Value: []byte(domain.EncodingLink)}},
	})

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p2 := pipeline.New(reader, newTransformer(), writer, discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p2.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	received := make([]reportMessage, 0, len(msgs))
	for len(received) < len(msgs) {
		received = append(received, readReport(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	assert.True(t, p2.Ready())

	byNumber := map[string][]reportMessage{}
	for _, m := range received {
		assert.NotEmpty(t, m.Headers[domain.HeaderReportID], "missing report_id header")
		assert.Equal(t, strconv.Itoa(len(m.Report.Canopies)), m.Headers[domain.HeaderCanopyCount])
		byNumber[m.Report.ProjectNumber] = append(byNumber[m.Report.ProjectNumber], m)
	}

	require.Len(t, byNumber["P-100"], 1)
	require.Len(t, byNumber["CR-2041"], 1)
	require.Len(t, byNumber["NC-7"], 2)

	// The link-encoded copy builds into the same report.
	a, b := byNumber["NC-7"][0], byNumber["NC-7"][1]
	assert.Equal(t, a.Report.ReportID, b.Report.ReportID)
	assert.Equal(t, a.Report.ExtractTotalActual, b.Report.ExtractTotalActual)
	assert.Equal(t, "0.716", a.Report.ExtractTotalActual)
}

// TestPipelineTransformError verifies that an invalid snapshot (poison pill) is
// skipped and the pipeline continues processing valid snapshots.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: loadMockProjects(t)[2]},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	msg := readReport(ctx, t, consumer)
	assert.Equal(t, "NC-7", msg.Report.ProjectNumber)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
