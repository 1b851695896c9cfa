package generate

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/changegen/internal/services"
)

type MockChangelogGenerator struct {
	mock.Mock
}

func (m *MockChangelogGenerator) Generate(ctx context.Context, req services.GenerateRequest) (*services.GenerateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerateResult), args.Error(1)
}
