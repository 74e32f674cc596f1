package main

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/minhtran-dev/shop-backend/internal/awsx"
)

// fakeCloudWatch records emitted metric datapoints.
type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, *params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func newTestProcessor(cw *fakeCloudWatch) *Processor {
	return &Processor{metrics: awsx.NewMetricsEmitter(cw, metricsNamespace)}
}

func sqsEvent(bodies ...string) events.SQSEvent {
	ev := events.SQSEvent{}
	for _, b := range bodies {
		ev.Records = append(ev.Records, events.SQSMessage{Body: b})
	}
	return ev
}

func TestHandle_OrderCreatedEmitsMetric(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := newTestProcessor(cw)

	err := p.Handle(context.Background(), sqsEvent(`{"type":"order.created","orderId":"o-1"}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(cw.inputs) != 1 {
		t.Fatalf("expected one metric emission, got %d", len(cw.inputs))
	}
	datum := cw.inputs[0].MetricData[0]
	if *datum.MetricName != "OrdersCreated" {
		t.Fatalf("unexpected metric %s", *datum.MetricName)
	}
	if *cw.inputs[0].Namespace != metricsNamespace {
		t.Fatalf("unexpected namespace %s", *cw.inputs[0].Namespace)
	}
}

func TestHandle_StatusChangeCarriesDimension(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := newTestProcessor(cw)

	err := p.Handle(context.Background(),
		sqsEvent(`{"type":"order.status_changed","orderId":"o-2","status":"completed"}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	datum := cw.inputs[0].MetricData[0]
	if *datum.MetricName != "OrderStatusChanged" {
		t.Fatalf("unexpected metric %s", *datum.MetricName)
	}
	if len(datum.Dimensions) != 1 || *datum.Dimensions[0].Name != "Status" || *datum.Dimensions[0].Value != "completed" {
		t.Fatalf("unexpected dimensions %+v", datum.Dimensions)
	}
}

func TestHandle_UnknownEventIsIgnored(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := newTestProcessor(cw)

	err := p.Handle(context.Background(), sqsEvent(`{"type":"order.exploded","orderId":"o-3"}`))
	if err != nil {
		t.Fatalf("unknown events must not fail the batch: %v", err)
	}
	if len(cw.inputs) != 0 {
		t.Fatalf("expected no metric, got %d", len(cw.inputs))
	}
}

func TestHandle_MalformedBodyFailsBatch(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := newTestProcessor(cw)

	if err := p.Handle(context.Background(), sqsEvent(`not-json`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
