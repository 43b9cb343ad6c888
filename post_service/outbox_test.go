package main

import (
	"context"
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
)

// fakeProducer acknowledges every message right away, failing the topics
// listed in fail.
type fakeProducer struct {
	fail     map[string]bool
	reject   map[string]bool
	produced []*kafka.Message
	closed   bool
}

func (p *fakeProducer) Produce(msg *kafka.Message, delivery chan kafka.Event) error {
	topic := *msg.TopicPartition.Topic
	if p.reject[topic] {
		return errors.New("queue full")
	}
	p.produced = append(p.produced, msg)
	ack := *msg
	if p.fail[topic] {
		ack.TopicPartition.Error = errors.New("broker down")
	}
	delivery <- &ack
	return nil
}

func (p *fakeProducer) Flush(int) int { return 0 }
func (p *fakeProducer) Close()        { p.closed = true }

func TestRelayMarksOnlyDeliveredRows(t *testing.T) {
	repo := newFakeRepo()
	repo.outbox = []svc.OutboxRow{
		{Id: 1, Topic: models.TopicPostCreated, KafkaKey: "p1", Payload: []byte("a")},
		{Id: 2, Topic: models.TopicLikeCreated, KafkaKey: "p1", Payload: []byte("b")},
		{Id: 3, Topic: models.TopicCommentCreated, KafkaKey: "p2", Payload: []byte("c")},
	}
	producer := &fakeProducer{
		fail:   map[string]bool{models.TopicLikeCreated: true},
		reject: map[string]bool{models.TopicCommentCreated: true},
	}
	relay := newOutboxRelay(repo, producer, svc.KafkaConfig{BatchSize: 10})

	n, err := relay.relayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, repo.sent)

	require.Len(t, producer.produced, 2)
	assert.Equal(t, []byte("p1"), producer.produced[0].Key)
	assert.Equal(t, models.TopicPostCreated, *producer.produced[0].TopicPartition.Topic)
}

func TestRelayEmptyOutbox(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	relay := newOutboxRelay(repo, producer, svc.KafkaConfig{})

	n, err := relay.relayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, producer.produced)
	assert.Equal(t, 100, relay.batch)

	relay.Close()
	assert.True(t, producer.closed)
}
