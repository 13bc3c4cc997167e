package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/campuscyber/cyberkpi/internal/rabbitmq"
	"github.com/campuscyber/cyberkpi/internal/services"
	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "kpi-alert-worker-1"

// AlertWorker consumes start_typing events from the alert queue. Someone
// typing into the fake login form is the moment the campaign team wants
// to hear about, so it is logged and, when configured, mailed.
type AlertWorker struct {
	mailer     *services.MailerService
	alertEmail string
}

func NewAlertWorker(mailer *services.MailerService, alertEmail string) *AlertWorker {
	return &AlertWorker{
		mailer:     mailer,
		alertEmail: alertEmail,
	}
}

// StartWorker starts the consumer process
// ctx is used for graceful shutdown signal
func (w *AlertWorker) StartWorker(ctx context.Context) error {
	if rabbitmq.Client == nil {
		return fmt.Errorf("RabbitMQ client not initialized")
	}

	ch := rabbitmq.Client.Channel

	msgs, err := ch.Consume(
		rabbitmq.AlertQueueName, // queue
		consumerTag,             // consumer tag
		false,                   // auto-ack (manual ack after successful process)
		false,                   // exclusive
		false,                   // no-local
		false,                   // no-wait
		nil,                     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Alert worker started. Waiting for messages in %s", rabbitmq.AlertQueueName)

	go func() {
		for d := range msgs {
			w.processMessage(d)
		}
	}()

	// Wait for context cancellation (graceful shutdown)
	<-ctx.Done()
	log.Println("Shutdown signal received. Canceling alert consumer...")

	if err := ch.Cancel(consumerTag, false); err != nil {
		log.Printf("Error canceling consumer: %v", err)
	}

	return nil
}

func (w *AlertWorker) processMessage(d amqp.Delivery) {
	var msg rabbitmq.EventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("Alert worker: dropping malformed message: %v", err)
		_ = d.Nack(false, false)
		return
	}

	short := msg.SessionID
	if len(short) > 8 {
		short = short[:8] + "..."
	}
	log.Printf("[ALERT] Session %s started typing credentials on %s at %s", short, msg.PagePath, msg.CreatedAt)

	if w.alertEmail != "" {
		subject := "CyberKPI: a visitor started typing credentials"
		body := fmt.Sprintf(
			"Session %s reached the typing stage of the awareness funnel.\n\nPage: %s\nTime: %s\n",
			msg.SessionID, msg.PagePath, msg.CreatedAt,
		)
		if err := w.mailer.SendAlert([]string{w.alertEmail}, subject, body); err != nil {
			// Mail is best-effort; the event itself is already stored
			log.Printf("Alert worker: failed to send mail: %v", err)
		}
	}

	_ = d.Ack(false)
}
