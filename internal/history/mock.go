package history

import (
	"github.com/stretchr/testify/mock"

	"github.com/sociochat/engine/internal/types"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordRoomMessage(env *types.Envelope) {
	m.Called(env)
}

func (m *MockRecorder) RecordPrivateMessage(env *types.Envelope) {
	m.Called(env)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRoomMessage(env *types.Envelope) error {
	args := m.Called(env)
	return args.Error(0)
}

func (m *MockStore) SavePrivateMessage(env *types.Envelope) error {
	args := m.Called(env)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
