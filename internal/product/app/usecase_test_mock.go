package app

import (
	"context"
	"io"

	"smart_cycle_market/internal/product/domain"
	"smart_cycle_market/pkg/events"
	"smart_cycle_market/pkg/imagehost"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository Mock ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) RemoveImage(ctx context.Context, product *domain.Product, imageID uint) error {
	args := m.Called(ctx, product, imageID)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) ByCategory(ctx context.Context, category string, page domain.Page) ([]domain.Product, error) {
	args := m.Called(ctx, category, page)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) ByOwner(ctx context.Context, ownerID string, page domain.Page) ([]domain.Product, error) {
	args := m.Called(ctx, ownerID, page)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) SearchByName(ctx context.Context, name string, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageHost Mock imagehost.Host
type MockImageHost struct {
	mock.Mock
}

func (m *MockImageHost) Upload(ctx context.Context, r io.Reader, fileName, contentType string, t imagehost.Transform) (imagehost.Image, error) {
	args := m.Called(ctx, r, fileName, contentType, t)
	return args.Get(0).(imagehost.Image), args.Error(1)
}

func (m *MockImageHost) Destroy(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

// MockSellerDirectory Mock SellerDirectory
type MockSellerDirectory struct {
	mock.Mock
}

func (m *MockSellerDirectory) Sellers(ctx context.Context, memberIDs []string) (map[string]domain.Seller, error) {
	args := m.Called(ctx, memberIDs)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]domain.Seller), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPublisher Mock events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
