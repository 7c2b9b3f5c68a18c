package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const (
	OrderReceivedTopic = "order.received"
)

// OrderReceivedItem is one line item as carried in the notification
// event.
type OrderReceivedItem struct {
	ID           string  `json:"id"`
	Number       string  `json:"number,omitempty"`
	Size         string  `json:"size"`
	NameOnJersey string  `json:"name_on_jersey,omitempty"`
	IsLongSleeve bool    `json:"is_long_sleeve"`
	IsMuslimah   bool    `json:"is_muslimah"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	LineTotal    float64 `json:"line_total"`
}

// OrderReceivedEvent is published once per batch that appended at least
// one new row. Pure edits never publish.
type OrderReceivedEvent struct {
	OrderID         string              `json:"order_id"`
	BuyerName       string              `json:"buyer_name"`
	ContactPhone    string              `json:"contact_phone"`
	Fulfillment     string              `json:"fulfillment"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	Paid            bool                `json:"paid"`
	Subtotal        float64             `json:"subtotal"`
	DeliveryFee     float64             `json:"delivery_fee"`
	GrandTotal      float64             `json:"grand_total"`
	Items           []OrderReceivedItem `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	EventTime       time.Time           `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *KafkaProducer) PublishOrderReceived(event OrderReceivedEvent) error {
	event.EventTime = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: OrderReceivedTopic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     OrderReceivedTopic,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
