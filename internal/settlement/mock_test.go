package settlement

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/votemap/precinct-cli/pkg/valasztas"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) SearchSettlements(ctx context.Context, keyword string) ([]valasztas.Settlement, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valasztas.Settlement), args.Error(1)
}

func (m *mockClient) StationPolygon(ctx context.Context, key valasztas.StationKey) ([]valasztas.Point, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valasztas.Point), args.Error(1)
}
