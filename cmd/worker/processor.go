package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/minhtran-dev/shop-backend/internal/awsx"
)

const metricsNamespace = "ShopBackend/Orders"

// Processor consumes order lifecycle events from SQS and turns them into
// CloudWatch metrics.
type Processor struct {
	metrics *awsx.MetricsEmitter
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *awsx.Clients) *Processor {
	return &Processor{
		metrics: awsx.NewMetricsEmitter(clients.CloudWatch, metricsNamespace),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return the error so the Lambda runtime retries; repeated
			// failures land in the DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev awsx.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received %s order=%s status=%s", ev.Type, ev.OrderID, ev.Status)

	metric, dims := metricFor(ev)
	if metric == "" {
		log.Printf("[worker] ignoring unknown event type %q", ev.Type)
		return nil
	}
	if err := p.metrics.Count(ctx, metric, dims); err != nil {
		return fmt.Errorf("emit %s: %w", metric, err)
	}
	return nil
}

func metricFor(ev awsx.OrderEvent) (string, map[string]string) {
	switch ev.Type {
	case awsx.EventOrderCreated:
		return "OrdersCreated", nil
	case awsx.EventOrderUpdated:
		return "OrdersUpdated", nil
	case awsx.EventOrderStatusChanged:
		return "OrderStatusChanged", map[string]string{"Status": ev.Status}
	case awsx.EventOrderDeleted:
		return "OrdersDeleted", nil
	}
	return "", nil
}
