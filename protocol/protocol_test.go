package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitchat/models"
)

func TestParseClientEvents(t *testing.T) {
	event, err := Parse([]byte(`{"type":"join","data":{"userId":"u1"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventJoin, event.Type)

	var payload JoinPayload
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, "u1", payload.UserID)
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`{"type":"receiveMessage"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent, "server-to-client types are not accepted from clients")

	_, err = Parse([]byte(`{"type":"shutdown"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestDecodeWithoutPayload(t *testing.T) {
	event, err := Parse([]byte(`{"type":"typing"}`))
	require.NoError(t, err)

	var payload TypingPayload
	assert.Error(t, event.Decode(&payload))
}

func TestReceiveMessageCarriesFullRecord(t *testing.T) {
	msg := models.Message{
		ID:         "m1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi",
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	event := ReceiveMessage(msg)
	require.Equal(t, EventReceiveMessage, event.Type)

	var got models.Message
	require.NoError(t, event.Decode(&got))
	assert.Equal(t, msg, got)
}

func TestStatusAndTypingEnvelopes(t *testing.T) {
	event := UserStatusUpdate("u1", StatusOffline)
	require.Equal(t, EventUserStatusUpdate, event.Type)

	var status StatusPayload
	require.NoError(t, event.Decode(&status))
	assert.Equal(t, "u1", status.UserID)
	assert.Equal(t, StatusOffline, status.Status)

	event = UserTyping("u2")
	require.Equal(t, EventUserTyping, event.Type)

	var typing TypingPayload
	require.NoError(t, event.Decode(&typing))
	assert.Equal(t, "u2", typing.SenderID)
}

func TestErrorEnvelope(t *testing.T) {
	event := Error("join first")
	require.Equal(t, EventError, event.Type)

	var payload ErrorPayload
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, "join first", payload.Message)
}
