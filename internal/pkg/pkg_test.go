package pkg

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("  <b>hello</b> <script>alert(1)</script>world "))
	assert.Equal(t, "Tom & Jerry", Sanitize("Tom & Jerry"))
	assert.Equal(t, "", Sanitize("<img src=x onerror=alert(1)>"))
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("create event: %w", Invalid("title", "required"))
	assert.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "title: required", ve.Error())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestNewMailerDisabled(t *testing.T) {
	assert.Nil(t, NewMailer(SMTPConfig{Enabled: false, Host: "smtp.example.com"}))
	assert.Nil(t, NewMailer(SMTPConfig{Enabled: true}))
	assert.NotNil(t, NewMailer(SMTPConfig{Enabled: true, Host: "smtp.example.com", Port: 587, Username: "a@b.c"}))
}

func TestMailTemplatesEscape(t *testing.T) {
	body := RegistrationStatusHTML("<Ann>", "Hack & Build", "approved", "see you")
	assert.Contains(t, body, "&lt;Ann&gt;")
	assert.Contains(t, body, "Hack &amp; Build")
	assert.Contains(t, AccountApprovedHTML("Bob"), "Bob")
}

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaProducerSend(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaProducerWithWriter(w, "campus.realtime")

	require.NoError(t, p.Send(context.Background(), "u1", []byte(`{"a":1}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u1", string(w.msgs[0].Key))
	assert.Equal(t, "campus.realtime", p.Topic())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	var nilProducer *KafkaProducer
	assert.NoError(t, nilProducer.Close())
}

func TestNewKafkaProducerDisabled(t *testing.T) {
	assert.Nil(t, NewKafkaProducer(KafkaConfig{Enabled: false, Brokers: []string{"127.0.0.1:9092"}, Topic: "t"}))
	assert.Nil(t, NewKafkaProducer(KafkaConfig{Enabled: true, Topic: "t"}))

	p := NewKafkaProducer(KafkaConfig{Enabled: true, Brokers: []string{"127.0.0.1:9092"}, Topic: "t"})
	require.NotNil(t, p)
	assert.Equal(t, "t", p.Topic())
	assert.NoError(t, p.Close())
}
