package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/queue"
)

type batchProcessor struct {
	errs map[string]error
}

func (p batchProcessor) ProcessQueued(_ context.Context, msg queue.Message) error {
	return p.errs[msg.DocumentID]
}

func TestProcessBatchReportsOnlyRetryableFailures(t *testing.T) {
	proc := batchProcessor{errs: map[string]error{
		"flaky":   errors.New("connection reset"),
		"missing": failure.New(failure.NotFound, "documents", "document not found"),
	}}
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "1", Body: `{"documentId":"ok"}`},
		{MessageId: "2", Body: `{"documentId":"flaky"}`},
		{MessageId: "3", Body: `{"documentId":"missing"}`},
		{MessageId: "4", Body: `not json`},
	}}

	resp := processBatch(context.Background(), proc, event)

	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "2", resp.BatchItemFailures[0].ItemIdentifier)
}
