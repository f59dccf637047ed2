package mailservice

import (
	"bytes"
	"errors"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/inkpost/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	buf := func(i int) *bytes.Buffer {
		b, _ := args.Get(i).(*bytes.Buffer)
		return b
	}
	return buf(0), buf(1), buf(2), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

var errSMTPUnavailable = errors.New("smtp unavailable")

// MockMailer fails the first Failures sends and records the recipients of the rest.
type MockMailer struct {
	mu         sync.Mutex
	Failures   int
	attempts   int
	Recipients []string
	Data       []any
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.attempts <= m.Failures {
		return errSMTPUnavailable
	}

	m.Recipients = append(m.Recipients, recipient)
	m.Data = append(m.Data, data)
	return nil
}

func (m *MockMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.Recipients...)
}

func (m *MockMailer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.attempts
}

type MockLogger struct {
	mock.Mock
}

func (l *MockLogger) Error(msg string, args ...any) {
	l.Called(msg, args)
}

func (l *MockLogger) Info(msg string, args ...any) {
	l.Called(msg, args)
}

// MockMessageConsumer delivers Bodies once and then keeps the channel open.
type MockMessageConsumer struct {
	mock.Mock
	Bodies []string
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	m.Called(key, exchange, queue)

	msgsChan := make(chan amqp.Delivery, len(m.Bodies))
	for _, body := range m.Bodies {
		msgsChan <- amqp.Delivery{Body: []byte(body)}
	}

	return msgsChan, nil
}
