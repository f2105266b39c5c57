package accesslog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"gotest.tools/v3/assert"
)

const testQueueURL = "https://sqs.us-west-2.amazonaws.com/111122223333/movies-access-log"

type mockSQSClient struct {
	sendMessageFunc func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

func (m *mockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, params, optFns...)
	}
	return &sqs.SendMessageOutput{}, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRecord() Record {
	return Record{
		RequestID:    "2E4kZQ7xNqPZ1NE5oVBpvY0sy4q",
		SourceIP:     "198.51.100.7",
		Time:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Protocol:     "HTTP/1.1",
		Method:       "POST",
		RouteKey:     "POST /movies",
		Status:       201,
		ResponseSize: 42,
	}
}

func TestWriteDeliversRecord(t *testing.T) {
	var sent []string
	client := &mockSQSClient{
		sendMessageFunc: func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			assert.Equal(t, testQueueURL, aws.ToString(params.QueueUrl))
			sent = append(sent, aws.ToString(params.MessageBody))
			return &sqs.SendMessageOutput{}, nil
		},
	}

	p := New(client, testQueueURL, newTestLogger())
	p.Write(context.Background(), testRecord())

	assert.Equal(t, 1, len(sent))

	var got Record
	assert.NilError(t, json.Unmarshal([]byte(sent[0]), &got))
	assert.Equal(t, testRecord(), got)
}

func TestWriteOmitsEmptyIntegrationError(t *testing.T) {
	var body string
	client := &mockSQSClient{
		sendMessageFunc: func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			body = aws.ToString(params.MessageBody)
			return &sqs.SendMessageOutput{}, nil
		},
	}

	p := New(client, testQueueURL, newTestLogger())
	p.Write(context.Background(), testRecord())

	var fields map[string]any
	assert.NilError(t, json.Unmarshal([]byte(body), &fields))
	_, present := fields["integrationError"]
	assert.Assert(t, !present, "empty integration error must be omitted")
}

func TestWriteSurvivesQueueFailure(t *testing.T) {
	client := &mockSQSClient{
		sendMessageFunc: func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			return nil, errors.New("queue unavailable")
		},
	}

	p := New(client, testQueueURL, newTestLogger())
	p.Write(context.Background(), testRecord())
}

func TestWriteWithoutQueueIsLogOnly(t *testing.T) {
	p := New(nil, "", newTestLogger())
	p.Write(context.Background(), testRecord())
}
