package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailConsumer_HandleMessageDecodesJob(t *testing.T) {
	var got MailJob
	c := &MailConsumer{Handle: func(_ context.Context, job MailJob) error {
		got = job
		return nil
	}}
	body, err := json.Marshal(MailJob{To: "a@example.com", Subject: "hi", HTML: "<p>x</p>"})
	require.NoError(t, err)

	require.NoError(t, c.handleMessage(context.Background(), body))
	assert.Equal(t, "a@example.com", got.To)
	assert.Equal(t, "hi", got.Subject)
}

func TestMailConsumer_HandleMessageRejectsBadPayloads(t *testing.T) {
	called := false
	c := &MailConsumer{Handle: func(context.Context, MailJob) error {
		called = true
		return nil
	}}

	assert.Error(t, c.handleMessage(context.Background(), []byte("{")))
	assert.Error(t, c.handleMessage(context.Background(), []byte(`{"subject":"no recipient"}`)))
	assert.False(t, called)
}

func TestMailConsumer_HandlerErrorPropagates(t *testing.T) {
	boom := errors.New("smtp down")
	c := &MailConsumer{Handle: func(context.Context, MailJob) error { return boom }}
	err := c.handleMessage(context.Background(), []byte(`{"to":"a@example.com"}`))
	assert.ErrorIs(t, err, boom)
}

func TestSleep_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
