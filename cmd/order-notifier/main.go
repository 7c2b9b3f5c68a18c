// order-notifier consumes order.received events and writes an operator
// notification for every new order. It stands in for the old email
// pipeline: the rendered summary goes to the log, where the hosting
// environment can forward it wherever the operator reads.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/teamjersey/order-intake/internal/events"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	kafkaBrokers := getEnv("KAFKA_BROKERS", "localhost:9092")
	groupID := getEnv("NOTIFIER_GROUP_ID", "order-notifier-group")

	handler := &notifyHandler{logger: logger}
	consumer, err := events.NewKafkaConsumer(kafkaBrokers, groupID, handler, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create notification consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Notification consumer stopped")
		}
	}()

	logger.Info("Order notifier started - monitoring order.received topic")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down order notifier...")
}

type notifyHandler struct {
	logger *logrus.Logger
}

func (h *notifyHandler) HandleOrderReceived(event events.OrderReceivedEvent) error {
	h.logger.WithFields(logrus.Fields{
		"order_id":    event.OrderID,
		"buyer_name":  event.BuyerName,
		"items":       len(event.Items),
		"grand_total": event.GrandTotal,
	}).Info("New jersey order received")

	h.logger.Info(renderNotification(event))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
