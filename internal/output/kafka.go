package output

import (
	"fmt"
	"strconv"

	"github.com/IBM/sarama"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

const sessionHeader = "session"

// KafkaOptions configures the Kafka record stream.
type KafkaOptions struct {
	Brokers []string
	Topic   string
	Version string // broker protocol version, e.g. "2.1.0"
	Session string // attached to every message as the "session" header
}

// KafkaConsumer publishes each record as a JSON message keyed by the local
// port, so all segments of one connection land in the same partition.
type KafkaConsumer struct {
	producer sarama.SyncProducer
	topic    string
	headers  []sarama.RecordHeader
}

func NewKafkaConfig(version string) (*sarama.Config, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	if version != "" {
		v, err := sarama.ParseKafkaVersion(version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version %q: %w", version, err)
		}
		config.Version = v
	}
	return config, nil
}

func NewKafkaConsumer(opts KafkaOptions) (*KafkaConsumer, error) {
	config, err := NewKafkaConfig(opts.Version)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(opts.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newKafkaConsumer(producer, opts.Topic, opts.Session), nil
}

func newKafkaConsumer(producer sarama.SyncProducer, topic, session string) *KafkaConsumer {
	k := &KafkaConsumer{producer: producer, topic: topic}
	if session != "" {
		k.headers = []sarama.RecordHeader{{Key: []byte(sessionHeader), Value: []byte(session)}}
	}
	return k
}

func (k *KafkaConsumer) Consume(r *record.Record) error {
	value := r.AppendJSON(make([]byte, 0, 160))
	message := &sarama.ProducerMessage{
		Topic:   k.topic,
		Key:     sarama.StringEncoder(strconv.FormatUint(uint64(r.LocalPort), 10)),
		Value:   sarama.ByteEncoder(value[:len(value)-1]),
		Headers: k.headers,
	}
	if _, _, err := k.producer.SendMessage(message); err != nil {
		return fmt.Errorf("kafka send failed: %w", err)
	}
	return nil
}

func (k *KafkaConsumer) Close() error {
	return k.producer.Close()
}
