package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-impact-engine/internal/config"
	"github.com/couchcryptid/storm-impact-engine/internal/domain"
)

// Writer publishes finished impact reports to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishReport serializes and publishes one impact report. The key is
// region plus storm so all issuances of one storm in one region land on the
// same partition, in order.
func (w *Writer) PublishReport(ctx context.Context, report *domain.Report) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing report %s: %w", report.Filename(), err)
	}
	w.logger.Info("report published",
		"region", report.RegionCode,
		"storm", report.StormID,
		"issued_at", report.IssuedAt)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message.
func serializeToMessage(report *domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.RegionCode + "/" + report.StormID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(report.RegionCode)},
			{Key: "storm_id", Value: []byte(report.StormID)},
			{Key: "issued_at", Value: []byte(report.IssuedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
