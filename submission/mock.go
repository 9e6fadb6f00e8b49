package submission

import (
	"context"

	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockTransactor mocks the Transactor interface
type MockTransactor struct {
	mock.Mock
}

// SubmitAndWatch mocks the SubmitAndWatch method
func (m *MockTransactor) SubmitAndWatch(ctx context.Context, op interfaces.Operation, signer interfaces.Signer) (*interfaces.Receipt, error) {
	args := m.Called(ctx, op, signer)
	receipt, _ := args.Get(0).(*interfaces.Receipt)
	return receipt, args.Error(1)
}
