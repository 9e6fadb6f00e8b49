package chainstate

import (
	"context"

	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockChainState mocks the interfaces.ChainState interface
type MockChainState struct {
	mock.Mock
	ChainTag interfaces.Chain
}

// Chain returns the configured chain tag
func (m *MockChainState) Chain() interfaces.Chain {
	return m.ChainTag
}

// HasLease mocks the HasLease method
func (m *MockChainState) HasLease(ctx context.Context, id interfaces.ParaID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// Lifecycle mocks the Lifecycle method
func (m *MockChainState) Lifecycle(ctx context.Context, id interfaces.ParaID) (interfaces.Lifecycle, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.Lifecycle), args.Error(1)
}

// NextFreeParaID mocks the NextFreeParaID method
func (m *MockChainState) NextFreeParaID(ctx context.Context) (interfaces.ParaID, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.ParaID), args.Error(1)
}

// IsRegistered mocks the IsRegistered method
func (m *MockChainState) IsRegistered(ctx context.Context, id interfaces.ParaID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockStorageReader mocks the StorageReader interface
type MockStorageReader struct {
	mock.Mock
}

// ReadStorage mocks the ReadStorage method
func (m *MockStorageReader) ReadStorage(ctx context.Context, pallet, item string, keys ...[]byte) ([]byte, error) {
	args := m.Called(ctx, pallet, item, keys)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}
