package identity

import (
	"context"
	"errors"
	"sync"
)

type MockCall struct {
	Method   string
	UserID   string
	Metadata Metadata
}

// MockProvider 内存版 Provider，记录所有调用
type MockProvider struct {
	mu       sync.Mutex
	Calls    []MockCall
	metadata map[string]Metadata

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
	// FailUpdates 置为 true 时，所有写入都失败，直到手动复位
	FailUpdates bool
}

var ErrMockFailure = errors.New("mock identity provider failure")

func NewMockProvider() *MockProvider {
	return &MockProvider{
		Calls:    make([]MockCall, 0),
		metadata: make(map[string]Metadata),
	}
}

// Seed 预置用户的 metadata
func (m *MockProvider) Seed(userID string, metadata Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[userID] = metadata.Clone()
}

func (m *MockProvider) GetMetadata(ctx context.Context, userID string) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "GetMetadata", UserID: userID})

	if m.FailNext {
		m.FailNext = false
		return nil, ErrMockFailure
	}

	return m.metadata[userID].Clone(), nil
}

func (m *MockProvider) UpdateMetadata(ctx context.Context, userID string, metadata Metadata) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "UpdateMetadata", UserID: userID, Metadata: metadata.Clone()})

	if m.FailNext {
		m.FailNext = false
		return nil, ErrMockFailure
	}
	if m.FailUpdates {
		return nil, ErrMockFailure
	}

	m.metadata[userID] = metadata.Clone()
	return metadata.Clone(), nil
}

// Metadata 返回当前存储的 metadata 副本
func (m *MockProvider) Metadata(userID string) Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metadata[userID].Clone()
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
