package common

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockMessageProducer struct {
	mock.Mock
}

func (m *MockMessageProducer) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	args := m.Called(msg, key, exchange)
	return args.Error(0)
}

// RecordingProducer keeps every published message in memory.
type RecordingProducer struct {
	mu       sync.Mutex
	Messages [][]byte
}

func (p *RecordingProducer) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Messages = append(p.Messages, msg)
	return nil
}

func (p *RecordingProducer) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.Messages)
}
