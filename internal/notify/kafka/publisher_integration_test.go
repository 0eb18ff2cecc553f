//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"casefile/internal/notify"
	id "casefile/pkg/domain"
	"casefile/pkg/testutil/containers"
)

func TestPublisher(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	const topic = "casefile.notifications.test"

	publisher, err := New(ctx, kc.Brokers, topic)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	recipient := id.ActorID(uuid.New())
	sent := []notify.Notification{
		{
			ID:        uuid.New(),
			Recipient: recipient,
			Kind:      notify.KindCaseSubmitted,
			CaseID:    id.CaseID(uuid.New()),
			Payload:   map[string]string{"stage": "cadet"},
			CreatedAt: time.Now().UTC(),
		},
		{
			ID:        uuid.New(),
			Recipient: recipient,
			Kind:      notify.KindVerdictIssued,
			CaseID:    id.CaseID(uuid.New()),
			CreatedAt: time.Now().UTC(),
		},
	}
	require.NoError(t, publisher.Publish(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	var got []notify.Notification
	for len(got) < len(sent) {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		fetches.EachRecord(func(record *kgo.Record) {
			// Records are keyed by recipient so one recipient's
			// notifications stay ordered.
			assert.Equal(t, recipient.String(), string(record.Key))
			var n notify.Notification
			require.NoError(t, json.Unmarshal(record.Value, &n))
			got = append(got, n)
		})
	}

	require.Len(t, got, 2)
	assert.Equal(t, sent[0].ID, got[0].ID)
	assert.Equal(t, notify.KindCaseSubmitted, got[0].Kind)
	assert.Equal(t, sent[1].ID, got[1].ID)
	assert.Equal(t, "cadet", got[0].Payload["stage"])
}
