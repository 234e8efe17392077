//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/kafka"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/config"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/pipeline"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/report"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-requests"
	testSinkTopic   = "test-outcomes"
)

// fixedAdapter answers every request with the same result, except that the
// geocoder reports "address not found" for the configured unknown address.
type fixedAdapter struct {
	name        string
	criticality domain.Criticality
	result      domain.ProviderResult
	unknown     string
}

func (a fixedAdapter) Name() string                    { return a.name }
func (a fixedAdapter) Criticality() domain.Criticality { return a.criticality }

func (a fixedAdapter) Fetch(_ context.Context, req domain.Request) domain.ProviderResult {
	if a.unknown != "" && req.Address == a.unknown {
		return domain.Unavailable("address not found")
	}
	return a.result
}

type staticRoster struct{}

func (staticRoster) ListCounties(context.Context, string) ([]domain.County, error) {
	return []domain.County{{Name: "Prince William County, Virginia", StateFIPS: "51", FIPS: "153"}}, nil
}

func newTestEngine(t *testing.T, metrics *observability.Metrics) *pipeline.Engine {
	t.Helper()
	loc := domain.Location{
		FormattedAddress: "3650 Dunigan Ct, Catharpin, VA 20143, USA",
		Coordinates:      domain.Coordinates{Lat: 38.8462, Lon: -77.5636},
		Components: domain.AddressComponents{
			domain.ComponentAdminLevel1: "Virginia",
			domain.ComponentAdminLevel2: "Prince William County",
		},
	}
	e, err := pipeline.NewEngine(pipeline.Providers{
		Geocoding: fixedAdapter{
			name: domain.ProviderGeocoding, criticality: domain.Essential,
			result:  domain.Success(loc, "Google Maps Geocoding API"),
			unknown: "Nowhere Lane",
		},
		Demographics: fixedAdapter{
			name: domain.ProviderDemographics, criticality: domain.Essential,
			result: domain.Success(domain.Demographics{
				Granularity: domain.GranularityCounty,
				AreaName:    "Prince William County, Virginia",
				Population:  482204,
			}, "US Census Bureau ACS 5-Year (county level)"),
		},
		Climate: fixedAdapter{
			name: domain.ProviderClimate, criticality: domain.Optional,
			result: domain.Unavailable(domain.ReasonTimeout),
		},
	}, domain.NewResolver(staticRoster{}, discardLogger()), discardLogger(), metrics)
	require.NoError(t, err)
	return e
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

type publishedOutcome struct {
	Outcome report.Outcome
	Key     string
	Headers map[string]string
}

// readOutcome reads a single message from the sink consumer and decodes it.
func readOutcome(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedOutcome {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var outcome report.Outcome
	require.NoError(t, json.Unmarshal(msg.Value, &outcome), "unmarshal sink message")
	return publishedOutcome{Outcome: outcome, Key: string(msg.Key), Headers: headers}
}

func publishRequests(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func request(t *testing.T, id, address string) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(domain.AnalysisRequest{RequestID: id, Address: address})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(id), Value: payload}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
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

// TestKafkaReaderWriter verifies that kafka.Reader and kafka.Writer round-trip
// a request and an outcome through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	publishRequests(ctx, t, broker, request(t, "req-1", "3650 Dunigan Ct, Catharpin, VA 20143"))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	batch, err := reader.ExtractBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	proc := pipeline.NewProcessor(newTestEngine(t, observability.NewMetricsForTesting()), discardLogger())
	out, err := proc.Process(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputMessage{out}))

	got := readOutcome(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "req-1", got.Key)
	assert.Equal(t, "degraded", got.Headers["status"])
	_, err = time.Parse(time.RFC3339, got.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	require.NotNil(t, got.Outcome.Report)
	assert.Equal(t, "153", got.Outcome.Report.Jurisdiction.CountyFIPS)
	assert.Equal(t, domain.ClimateFallbackSource, got.Outcome.Report.Risk.Source)
}

// TestPipelineEndToEnd runs the worker against real Kafka with a mix of
// analyzable, failing and malformed requests.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	publishRequests(ctx, t, broker,
		request(t, "req-ok", "3650 Dunigan Ct, Catharpin, VA 20143"),
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		request(t, "req-missing", "Nowhere Lane"),
	)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	proc := pipeline.NewProcessor(newTestEngine(t, metrics), discardLogger())
	p := pipeline.New(reader, proc, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := map[string]publishedOutcome{}
	for len(received) < 2 {
		got := readOutcome(ctx, t, consumer)
		received[got.Key] = got
	}

	// The malformed request is skipped: nothing else arrives.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no outcome for the malformed request")

	pipelineCancel()
	require.NoError(t, <-errCh)
	assert.NoError(t, p.CheckReadiness(ctx))

	ok := received["req-ok"]
	require.NotNil(t, ok.Outcome.Report)
	assert.Equal(t, "degraded", ok.Headers["status"])
	assert.Len(t, ok.Outcome.Report.Degradations, 2)

	missing := received["req-missing"]
	assert.Nil(t, missing.Outcome.Report)
	assert.Equal(t, "failed", missing.Headers["status"])
	assert.Equal(t, domain.ProviderGeocoding, missing.Outcome.FailedProvider)
}
