// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-converter/pkg/types"
)

type writerMock struct {
	msgs   []kafka.Message
	err    error
	closed bool
	ctxErr error
}

func (w *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.ctxErr = ctx.Err()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *writerMock) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Observe(t *testing.T) {
	w := &writerMock{}
	log, _ := test.NewNullLogger()
	p := newPublisher(w, log)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.Observe(context.Background(), types.ConversionResult{
		ID:         "c-1",
		Direction:  types.PPTXToPDF,
		Success:    true,
		Source:     "deck.pptx",
		Filename:   "deck.pdf",
		Method:     "libreoffice",
		InputBytes: 10,
		StartedAt:  started,
		Duration:   2500 * time.Millisecond,
		Data:       []byte("%PDF-1.7"),
	})

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "c-1", string(msg.Key))
	assert.Equal(t, started, msg.Time)
	assert.Equal(t, []kafka.Header{
		{Key: "direction", Value: []byte("pptx2pdf")},
		{Key: "status", Value: []byte("converted")},
	}, msg.Headers)

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "deck.pdf", ev.Filename)
	assert.Equal(t, types.ConversionDone, ev.Status)
	assert.Equal(t, int64(8), ev.OutputBytes)
	assert.Equal(t, int64(2500), ev.DurationMS)
	assert.NotContains(t, string(msg.Value), "%PDF")
}

func TestPublisher_ObserveLogsErrors(t *testing.T) {
	w := &writerMock{err: errors.New("broker unreachable")}
	log, hook := test.NewNullLogger()
	p := newPublisher(w, log)

	p.Observe(context.Background(), types.ConversionResult{ID: "c-2", Direction: types.PDFToPPTX})

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Failed to publish conversion event.", hook.LastEntry().Message)
	assert.Equal(t, "c-2", hook.LastEntry().Data["id"])
}

func TestPublisher_DetachedFromRequestContext(t *testing.T) {
	w := &writerMock{}
	log, _ := test.NewNullLogger()
	p := newPublisher(w, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Publish(ctx, Event{ID: "c-3"}))
	assert.NoError(t, w.ctxErr)
}

func TestPublisher_Close(t *testing.T) {
	w := &writerMock{}
	log, _ := test.NewNullLogger()
	require.NoError(t, newPublisher(w, log).Close())
	assert.True(t, w.closed)
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewPublisher(types.EventsConfig{}, log)
	assert.Error(t, err)

	p, err := NewPublisher(types.EventsConfig{Brokers: []string{"localhost:9092"}}, log)
	require.NoError(t, err)
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, kw.Topic)
}
