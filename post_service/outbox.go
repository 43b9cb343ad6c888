package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
)

type publisher interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// outboxRelay moves rows written next to posts, comments and likes to Kafka.
// A row is marked sent only after the broker acknowledged it, so events are
// delivered at least once.
type outboxRelay struct {
	repo     postRepo.PersistenceDB
	producer publisher
	batch    int
	interval time.Duration
	wg       sync.WaitGroup
}

func NewKafkaProducer(config svc.KafkaConfig) (*kafka.Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  config.BootStrapServers,
		"acks":               config.Acks,
		"enable.idempotence": config.Idempotence,
		"compression.type":   config.CompressionType,
		"linger.ms":          config.LingerMs,
	})
	if err != nil {
		log.Println("Error in intiallizing a kakfa producer: ", err.Error())
		return nil, err
	}
	return p, nil
}

func newOutboxRelay(repo postRepo.PersistenceDB, producer publisher, config svc.KafkaConfig) *outboxRelay {
	batch := config.BatchSize
	if batch <= 0 {
		batch = 100
	}
	interval := config.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &outboxRelay{repo: repo, producer: producer, batch: batch, interval: interval}
}

func (r *outboxRelay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

func (r *outboxRelay) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// drain everything pending before waiting for the next tick
			for {
				n, err := r.relayOnce(ctx)
				if err != nil {
					log.Println("Error in relaying outbox: ", err.Error())
				}
				if err != nil || n < r.batch {
					break
				}
			}
		}
	}
}

// relayOnce publishes one batch and returns how many rows were marked sent.
func (r *outboxRelay) relayOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.PendingOutbox(ctx, r.batch)
	if err != nil || len(rows) == 0 {
		return 0, err
	}

	delivery := make(chan kafka.Event, len(rows))
	produced := 0
	for _, row := range rows {
		topic := row.Topic
		err := r.producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(row.KafkaKey),
			Value:          row.Payload,
			Opaque:         row.Id,
		}, delivery)
		if err != nil {
			log.Printf("Error in producing outbox row{%v}: %v", row.Id, err.Error())
			continue
		}
		produced++
	}

	sent := make([]int64, 0, produced)
	for range produced {
		var e kafka.Event
		select {
		case e = <-delivery:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		msg, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if msg.TopicPartition.Error != nil {
			log.Printf("Delivery of outbox row{%v} failed: %v", msg.Opaque, msg.TopicPartition.Error)
			continue
		}
		if id, ok := msg.Opaque.(int64); ok {
			sent = append(sent, id)
		}
	}
	if len(sent) == 0 {
		return 0, nil
	}
	if err := r.repo.MarkOutboxSent(ctx, sent); err != nil {
		return 0, err
	}
	return len(sent), nil
}

func (r *outboxRelay) Close() {
	r.wg.Wait()
	if left := r.producer.Flush(5000); left > 0 {
		log.Printf("%d outbox events still in flight at shutdown", left)
	}
	r.producer.Close()
}
