package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smart_cycle_market/internal/product/domain"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/events"
	"smart_cycle_market/pkg/imagehost"
	"smart_cycle_market/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   = "0f8fad5b-d9cb-469f-a165-70867728950e"
	otherID   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	productID = "16fd2706-8baf-433b-82eb-8c7fada847da"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

type fixture struct {
	repo      *MockProductRepository
	images    *MockImageHost
	sellers   *MockSellerDirectory
	publisher *MockPublisher
	uc        ProductUseCase
}

func newFixture() *fixture {
	f := &fixture{
		repo:      new(MockProductRepository),
		images:    new(MockImageHost),
		sellers:   new(MockSellerDirectory),
		publisher: new(MockPublisher),
	}
	f.uc = NewProductUseCase(f.repo, f.images, f.sellers, f.publisher)
	return f
}

func details() domain.Details {
	return domain.Details{
		Name:           "Road bike",
		Description:    "Barely used",
		Category:       "Fitness",
		Price:          320,
		PurchasingDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// staged writes n image files the way the handler stages uploads
func staged(t *testing.T, n int) []domain.Upload {
	t.Helper()
	dir := t.TempDir()
	uploads := make([]domain.Upload, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%d.jpg", i))
		require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))
		uploads = append(uploads, domain.Upload{Path: path, FileName: fmt.Sprintf("photo%d.jpg", i), ContentType: "image/jpeg"})
	}
	return uploads
}

func assertRemoved(t *testing.T, uploads []domain.Upload) {
	t.Helper()
	for _, up := range uploads {
		_, err := os.Stat(up.Path)
		assert.True(t, os.IsNotExist(err), "staged file %s still exists", up.Path)
	}
}

func existing() *domain.Product {
	return &domain.Product{
		ID:        productID,
		OwnerID:   ownerID,
		Name:      "Road bike",
		Category:  "Fitness",
		Price:     300,
		Thumbnail: "https://img/1.jpg",
		Images: []domain.ProductImage{
			{ID: 1, ProductID: productID, URL: "https://img/1.jpg", PublicID: "p/1"},
			{ID: 2, ProductID: productID, URL: "https://img/2.jpg", PublicID: "p/2"},
		},
	}
}

func assertStatus(t *testing.T, err error, code int, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errprocess.HTTPStatus(err))
	assert.Equal(t, msg, errprocess.PublicMessage(err))
}

func TestList(t *testing.T) {
	t.Run("uploads images and uses the first as thumbnail", func(t *testing.T) {
		f := newFixture()
		uploads := staged(t, 2)

		f.images.On("Upload", mock.Anything, mock.Anything, "photo0.jpg", "image/jpeg", imagehost.ProductImage).
			Return(imagehost.Image{URL: "https://img/a.jpg", PublicID: "p/a"}, nil)
		f.images.On("Upload", mock.Anything, mock.Anything, "photo1.jpg", "image/jpeg", imagehost.ProductImage).
			Return(imagehost.Image{URL: "https://img/b.jpg", PublicID: "p/b"}, nil)
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
			return p.OwnerID == ownerID && len(p.Images) == 2 && p.Thumbnail == "https://img/a.jpg"
		})).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.ProductListed && e.Data["ownerId"] == ownerID
		})).Return(nil)

		view, err := f.uc.List(context.Background(), ownerID, details(), uploads)
		require.NoError(t, err)

		assert.Equal(t, "https://img/a.jpg", view.Thumbnail)
		assert.Len(t, view.Images, 2)
		assert.Equal(t, "Fitness", view.Category)
		assertRemoved(t, uploads)
		f.publisher.AssertExpectations(t)
	})

	t.Run("too many images", func(t *testing.T) {
		f := newFixture()
		uploads := staged(t, 6)

		_, err := f.uc.List(context.Background(), ownerID, details(), uploads)
		assertStatus(t, err, 422, "Image files can not be more than 5!")
		f.images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assertRemoved(t, uploads)
	})

	t.Run("unknown category", func(t *testing.T) {
		f := newFixture()
		d := details()
		d.Category = "Weapons"

		_, err := f.uc.List(context.Background(), ownerID, d, nil)
		assertStatus(t, err, 422, "Invalid category!")
	})

	t.Run("not an image", func(t *testing.T) {
		f := newFixture()
		uploads := staged(t, 1)
		uploads[0].ContentType = "application/pdf"

		_, err := f.uc.List(context.Background(), ownerID, details(), uploads)
		assertStatus(t, err, 422, "Invalid image file!")
	})

	t.Run("failed upload destroys the ones already sent", func(t *testing.T) {
		f := newFixture()
		uploads := staged(t, 2)

		f.images.On("Upload", mock.Anything, mock.Anything, "photo0.jpg", mock.Anything, mock.Anything).
			Return(imagehost.Image{URL: "https://img/a.jpg", PublicID: "p/a"}, nil)
		f.images.On("Upload", mock.Anything, mock.Anything, "photo1.jpg", mock.Anything, mock.Anything).
			Return(imagehost.Image{}, errors.New("quota"))
		f.images.On("Destroy", mock.Anything, "p/a").Return(nil)

		_, err := f.uc.List(context.Background(), ownerID, details(), uploads)
		assert.Equal(t, 500, errprocess.HTTPStatus(err))
		f.images.AssertCalled(t, "Destroy", mock.Anything, "p/a")
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assertRemoved(t, uploads)
	})

	t.Run("publish failure does not fail the listing", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

		view, err := f.uc.List(context.Background(), ownerID, details(), nil)
		require.NoError(t, err)
		assert.Empty(t, view.Thumbnail)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("appends images up to the limit", func(t *testing.T) {
		f := newFixture()
		uploads := staged(t, 3)
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)

		_, err := f.uc.Update(context.Background(), ownerID, productID, details(), staged(t, 4))
		assertStatus(t, err, 422, "Image files can not be more than 5!")

		f.images.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/jpeg", imagehost.ProductImage).
			Return(imagehost.Image{URL: "https://img/n.jpg", PublicID: "p/n"}, nil)
		f.repo.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
			return len(p.Images) == 5 && p.Price == 320 && p.Thumbnail == "https://img/1.jpg"
		})).Return(nil)

		view, err := f.uc.Update(context.Background(), ownerID, productID, details(), uploads)
		require.NoError(t, err)
		assert.Len(t, view.Images, 5)
		assertRemoved(t, uploads)
	})

	t.Run("images added concurrently in between", func(t *testing.T) {
		f := newFixture()
		uploads := staged(t, 2)
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)
		f.images.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/jpeg", imagehost.ProductImage).
			Return(imagehost.Image{URL: "https://img/n.jpg", PublicID: "p/n"}, nil)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(domain.ErrTooManyImages)
		f.images.On("Destroy", mock.Anything, "p/n").Return(nil)

		_, err := f.uc.Update(context.Background(), ownerID, productID, details(), uploads)
		assertStatus(t, err, 422, "Image files can not be more than 5!")
		f.images.AssertNumberOfCalls(t, "Destroy", 2)
		assertRemoved(t, uploads)
	})

	t.Run("someone else's product", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)

		_, err := f.uc.Update(context.Background(), otherID, productID, details(), nil)
		assertStatus(t, err, 404, "Product not found!")
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRemove(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)
	f.repo.On("Delete", mock.Anything, productID).Return(nil)
	f.images.On("Destroy", mock.Anything, "p/1").Return(nil)
	f.images.On("Destroy", mock.Anything, "p/2").Return(errors.New("gone"))
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.ProductRemoved && e.Key == productID
	})).Return(nil)

	require.NoError(t, f.uc.Remove(context.Background(), ownerID, productID))
	f.images.AssertNumberOfCalls(t, "Destroy", 2)
	f.publisher.AssertExpectations(t)

	err := f.uc.Remove(context.Background(), otherID, productID)
	assertStatus(t, err, 404, "Product not found!")

	err = f.uc.Remove(context.Background(), ownerID, "nope")
	assertStatus(t, err, 404, "Product not found!")
}

func TestRemoveImage(t *testing.T) {
	t.Run("thumbnail falls back to the first remaining image", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)
		f.repo.On("RemoveImage", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
			return p.Thumbnail == "https://img/2.jpg" && len(p.Images) == 1
		}), uint(1)).Return(nil)
		f.images.On("Destroy", mock.Anything, "p/1").Return(nil)

		require.NoError(t, f.uc.RemoveImage(context.Background(), ownerID, productID, 1))
		f.repo.AssertExpectations(t)
		f.images.AssertExpectations(t)
	})

	t.Run("last image empties the thumbnail", func(t *testing.T) {
		f := newFixture()
		p := existing()
		p.Images = p.Images[:1]
		f.repo.On("FindByID", mock.Anything, productID).Return(p, nil)
		f.repo.On("RemoveImage", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
			return p.Thumbnail == "" && len(p.Images) == 0
		}), uint(1)).Return(nil)
		f.images.On("Destroy", mock.Anything, "p/1").Return(nil)

		require.NoError(t, f.uc.RemoveImage(context.Background(), ownerID, productID, 1))
	})

	t.Run("other image keeps the thumbnail", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)
		f.repo.On("RemoveImage", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
			return p.Thumbnail == "https://img/1.jpg"
		}), uint(2)).Return(nil)
		f.images.On("Destroy", mock.Anything, "p/2").Return(nil)

		require.NoError(t, f.uc.RemoveImage(context.Background(), ownerID, productID, 2))
	})

	t.Run("unknown image", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)

		assertStatus(t, f.uc.RemoveImage(context.Background(), ownerID, productID, 9), 404, "Image not found!")
	})
}

func TestQueries(t *testing.T) {
	seller := map[string]domain.Seller{ownerID: {ID: ownerID, Name: "Ann"}}

	t.Run("detail carries the seller", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", mock.Anything, productID).Return(existing(), nil)
		f.sellers.On("Sellers", mock.Anything, []string{ownerID}).Return(seller, nil)

		view, err := f.uc.Detail(context.Background(), productID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", view.Seller.Name)
		assert.Equal(t, []domain.ImageView{{ID: 1, URL: "https://img/1.jpg"}, {ID: 2, URL: "https://img/2.jpg"}}, view.Images)
	})

	t.Run("detail of missing product", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", mock.Anything, productID).Return(nil, domain.ErrProductNotFound)

		_, err := f.uc.Detail(context.Background(), productID)
		assertStatus(t, err, 404, "Product not found!")
	})

	t.Run("by category", func(t *testing.T) {
		f := newFixture()
		page := domain.Page{No: 2, Limit: 10}
		f.repo.On("ByCategory", mock.Anything, "Fitness", page).Return([]domain.Product{*existing()}, nil)
		f.sellers.On("Sellers", mock.Anything, []string{ownerID}).Return(seller, nil)

		views, err := f.uc.ByCategory(context.Background(), "Fitness", page)
		require.NoError(t, err)
		assert.Len(t, views, 1)

		_, err = f.uc.ByCategory(context.Background(), "fitness", page)
		assertStatus(t, err, 422, "Invalid category!")
	})

	t.Run("latest and search limits", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Latest", mock.Anything, 10).Return([]domain.Product{}, nil)
		f.repo.On("SearchByName", mock.Anything, "bike", 50).Return([]domain.Product{*existing(), *existing()}, nil)
		f.sellers.On("Sellers", mock.Anything, []string{}).Return(map[string]domain.Seller{}, nil)
		f.sellers.On("Sellers", mock.Anything, []string{ownerID}).Return(map[string]domain.Seller{}, nil)

		views, err := f.uc.Latest(context.Background())
		require.NoError(t, err)
		assert.Empty(t, views)

		views, err = f.uc.Search(context.Background(), "  bike ")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, ownerID, views[0].Seller.ID)

		views, err = f.uc.Search(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, views)
		f.repo.AssertNumberOfCalls(t, "SearchByName", 1)
	})
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, domain.Page{No: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, domain.Page{No: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, domain.Page{No: 0, Limit: 10}.Offset())
}
