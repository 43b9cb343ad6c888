package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	svc "github.com/roweshkalloe/qualogy-ai-connect/notification_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/notification_service/store"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

// NotificationWriter reads post service events and stores the notifications
// they cause. Offsets are committed by hand after the writes succeeded.
type NotificationWriter struct {
	c     *kafka.Consumer
	ctx   context.Context
	store store.Store
	wg    sync.WaitGroup
}

func NewNotificationWriter(ctx context.Context, config svc.KafkaConfig, st store.Store) (*NotificationWriter, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": config.BootStrapServers,
		"group.id":          config.GroupID,

		"fetch.min.bytes":   config.FetchMinBytes,
		"auto.offset.reset": config.OffsetReset,

		// at-least-once, redeliveries map to the same notification ids
		"auto.commit.enable": "false",
	})
	if err != nil {
		log.Println("Error in intiallizing a kakfa consumer: ", err.Error())
		return nil, err
	}
	if err := c.SubscribeTopics(config.Topics, nil); err != nil {
		log.Println("Error in subcribtion to topic: ", err.Error())
		c.Close()
		return nil, err
	}
	return &NotificationWriter{c: c, ctx: ctx, store: st}, nil
}

func (nw *NotificationWriter) Start() {
	nw.wg.Add(1)
	go func() {
		defer nw.wg.Done()
		nw.run()
	}()
}

func (nw *NotificationWriter) run() {
	for {
		select {
		case <-nw.ctx.Done():
			return
		default:
			ev := nw.c.Poll(100)
			switch e := ev.(type) {
			case *kafka.Message:
				if err := ProcessMessage(nw.ctx, nw.store, e.Value); err != nil {
					log.Println("Error Processing Message", err.Error())
					// the offset stays uncommitted and the message comes back after a rebalance
					continue
				}
				if _, err := nw.c.CommitMessage(e); err != nil {
					log.Println("Error in Committing offset: ", err.Error())
				}
			case kafka.Error:
				log.Println("Error in Consuming events: ", e)
			}
		}
	}
}

// ProcessMessage decodes one event and stores its notifications. Unknown
// topics are skipped, they are not worth a redelivery.
func ProcessMessage(ctx context.Context, st store.Store, value []byte) error {
	evt, err := models.UnmarshalEvent(value)
	if errors.Is(err, models.ErrUnknownTopic) {
		log.Println("Skipping event: ", err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	for _, n := range notificationsFor(evt) {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := st.Insert(wctx, n)
		cancel()
		if err != nil {
			return err
		}
	}
	return nil
}

func (nw *NotificationWriter) close() error {
	nw.wg.Wait()
	return nw.c.Close()
}
