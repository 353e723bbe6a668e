package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sidlawliet/whiteroom-mentor/internal/activity"
	"github.com/sidlawliet/whiteroom-mentor/internal/config"
	"github.com/sidlawliet/whiteroom-mentor/internal/db"
	"github.com/sidlawliet/whiteroom-mentor/internal/store/rabbitmq"
)

const (
	maxAttempts = 3
	retryDelay  = "5000" // ms, per-message TTL on the retry queue
	attemptsHdr = "x-attempts"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := activity.NewRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	deliveries := make(chan amqp.Delivery, concurrency*2)

	// amqp channels are not meant for concurrent publishing
	var pubMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range deliveries {
				start := time.Now()
				err := repo.Handle(ctx, d.Body)
				if err == nil {
					if err := d.Ack(false); err != nil {
						log.Printf("worker=%d ack failed msg=%s err=%v", workerID, d.MessageId, err)
					}
					continue
				}

				if isPermanent(err) {
					log.Printf("worker=%d bad message msg=%s err=%v", workerID, d.MessageId, err)
					_ = d.Nack(false, false)
					continue
				}

				attempts := attemptsOf(d) + 1
				log.Printf("worker=%d event %s failed attempt=%d cost=%s err=%v",
					workerID, d.MessageId, attempts, time.Since(start), err)
				if attempts >= maxAttempts {
					_ = d.Nack(false, false)
					continue
				}

				pubMu.Lock()
				perr := retry(ctx, ch, cfg.RabbitQueue, d, attempts)
				pubMu.Unlock()
				if perr != nil {
					log.Printf("worker=%d retry publish failed msg=%s err=%v", workerID, d.MessageId, perr)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				close(deliveries)
				wg.Wait()
				return
			}
			deliveries <- d
		}
	}
}

// isPermanent reports errors a redelivery cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, activity.ErrInvalidEvent) || errors.Is(err, activity.ErrMalformedEvent)
}

func attemptsOf(d amqp.Delivery) int {
	switch v := d.Headers[attemptsHdr].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// retry parks d on the retry queue; its TTL dead-letters it back to queue.
func retry(ctx context.Context, ch *amqp.Channel, queue string, d amqp.Delivery, attempts int) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(cctx, "", rabbitmq.RetryQueue(queue), false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Timestamp:    d.Timestamp,
		Expiration:   retryDelay,
		Headers:      amqp.Table{attemptsHdr: int32(attempts)},
		Body:         d.Body,
	})
}
