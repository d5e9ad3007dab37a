package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ calls int }

func (s *failingSink) Enqueue(context.Context, []Notification) error {
	s.calls++
	return errors.New("delivery down")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	err := sink.Enqueue(context.Background(), []Notification{
		{RecipientID: uuid.New(), TournamentID: uuid.New(), Type: MatchReady, Title: "Your match is ready"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"type":"match_ready"`)
}

func TestFanoutTriesEverySink(t *testing.T) {
	first, second := &failingSink{}, &failingSink{}
	err := Fanout{first, LogSink{Logger: slog.New(slog.DiscardHandler)}, second}.Enqueue(context.Background(), []Notification{{}})

	assert.EqualError(t, err, "delivery down")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}
