package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(msgs).Error(0)
}

func (m *mockWriter) Close() error { return m.Called().Error(0) }

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := Event{
		Type: ChatAppended,
		Key:  "conv-1",
		At:   at,
		Data: map[string]interface{}{"from": "u1", "to": "u2", "length": float64(5)},
	}

	b, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.Key, out.Key)
	assert.True(t, at.Equal(out.At))
	assert.Equal(t, in.Data, out.Data)
}

func TestEncode_RejectsUnsupportedValue(t *testing.T) {
	_, err := Encode(Event{Type: "x", Data: map[string]interface{}{"ch": make(chan int)}})
	assert.Error(t, err)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := new(mockWriter)
	p := &KafkaPublisher{writer: w}

	w.On("WriteMessages", mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 &&
			string(msgs[0].Key) == "p-1" &&
			string(msgs[0].Headers[0].Value) == ProductListed
	})).Return(nil).Once()
	require.NoError(t, p.Publish(context.Background(), Event{Type: ProductListed, Key: "p-1"}))

	w.On("WriteMessages", mock.Anything).Return(errors.New("leader not available")).Once()
	assert.Error(t, p.Publish(context.Background(), Event{Type: ProductRemoved, Key: "p-1"}))

	w.AssertExpectations(t)
}
