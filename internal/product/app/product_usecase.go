package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"smart_cycle_market/internal/product/domain"
	"smart_cycle_market/internal/product/repository"
	"smart_cycle_market/pkg"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/events"
	"smart_cycle_market/pkg/imagehost"
	"smart_cycle_market/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	latestLimit = 10
	searchLimit = 50
)

// 讓 test 可以替換檔案操作
var (
	openFile   = os.Open
	removeFile = os.Remove
)

// SellerDirectory owner profiles shown next to products
type SellerDirectory interface {
	Sellers(ctx context.Context, memberIDs []string) (map[string]domain.Seller, error)
}

// ProductUseCase 這裡封裝了對外提供的應用服務
type ProductUseCase interface {
	List(ctx context.Context, ownerID string, details domain.Details, uploads []domain.Upload) (*domain.ProductView, error)
	Update(ctx context.Context, ownerID, productID string, details domain.Details, uploads []domain.Upload) (*domain.ProductView, error)
	Remove(ctx context.Context, ownerID, productID string) error
	RemoveImage(ctx context.Context, ownerID, productID string, imageID uint) error
	Detail(ctx context.Context, productID string) (*domain.ProductView, error)
	ByCategory(ctx context.Context, category string, page domain.Page) ([]domain.ProductView, error)
	Latest(ctx context.Context) ([]domain.ProductView, error)
	Listings(ctx context.Context, ownerID string, page domain.Page) ([]domain.ProductView, error)
	Search(ctx context.Context, name string) ([]domain.ProductView, error)
}

type productUseCase struct {
	repo      repository.ProductRepository
	images    imagehost.Host
	sellers   SellerDirectory
	publisher events.Publisher
}

// NewProductUseCase 建立一個新的 ProductUseCase
func NewProductUseCase(
	repo repository.ProductRepository,
	images imagehost.Host,
	sellers SellerDirectory,
	publisher events.Publisher,
) ProductUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &productUseCase{
		repo:      repo,
		images:    images,
		sellers:   sellers,
		publisher: publisher,
	}
}

func notFound(err error) error {
	return errprocess.Wrap(fiber.StatusNotFound, "Product not found!", err)
}

// List create a listing from staged uploads, the first image becomes the thumbnail
func (u *productUseCase) List(ctx context.Context, ownerID string, details domain.Details, uploads []domain.Upload) (*domain.ProductView, error) {
	defer discardStaged(uploads)

	if err := checkDetails(details); err != nil {
		return nil, err
	}
	if err := checkUploads(uploads, 0); err != nil {
		return nil, err
	}

	images, err := u.uploadAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	product := domain.Product{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Images:  images,
	}
	applyDetails(&product, details)
	product.ResetThumbnail()

	if err := u.repo.Create(ctx, &product); err != nil {
		u.destroyAll(ctx, images)
		return nil, errprocess.Internal(err)
	}
	logger.Log.Info("product listed", zap.String("product_id", product.ID), zap.String("owner_id", ownerID))

	u.publish(ctx, events.ProductListed, &product)
	view := product.View()
	return &view, nil
}

// Update change the owner's listing and append new images
func (u *productUseCase) Update(ctx context.Context, ownerID, productID string, details domain.Details, uploads []domain.Upload) (*domain.ProductView, error) {
	defer discardStaged(uploads)

	if err := checkDetails(details); err != nil {
		return nil, err
	}
	product, err := u.owned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	if err := checkUploads(uploads, len(product.Images)); err != nil {
		return nil, err
	}

	images, err := u.uploadAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	applyDetails(product, details)
	product.Images = append(product.Images, images...)
	if product.Thumbnail == "" {
		product.ResetThumbnail()
	}

	if err := u.repo.Save(ctx, product); err != nil {
		u.destroyAll(ctx, images)
		switch {
		case errors.Is(err, domain.ErrTooManyImages):
			return nil, errprocess.Unprocessable(fmt.Sprintf("Image files can not be more than %d!", domain.MaxImages))
		case errors.Is(err, domain.ErrProductNotFound):
			return nil, notFound(err)
		}
		return nil, errprocess.Internal(err)
	}

	view := product.View()
	return &view, nil
}

// Remove delete the listing and every hosted image of it
func (u *productUseCase) Remove(ctx context.Context, ownerID, productID string) error {
	product, err := u.owned(ctx, ownerID, productID)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return notFound(err)
		}
		return errprocess.Internal(err)
	}

	u.destroyAll(ctx, product.Images)
	u.publish(ctx, events.ProductRemoved, product)
	return nil
}

// RemoveImage delete one image, the thumbnail moves to the first remaining image when it was the removed one
func (u *productUseCase) RemoveImage(ctx context.Context, ownerID, productID string, imageID uint) error {
	product, err := u.owned(ctx, ownerID, productID)
	if err != nil {
		return err
	}

	idx := -1
	for i, img := range product.Images {
		if img.ID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errprocess.Wrap(fiber.StatusNotFound, "Image not found!", domain.ErrImageNotFound)
	}

	removed := product.Images[idx]
	product.Images = append(product.Images[:idx], product.Images[idx+1:]...)
	if product.Thumbnail == removed.URL {
		product.ResetThumbnail()
	}

	if err := u.repo.RemoveImage(ctx, product, imageID); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return errprocess.Wrap(fiber.StatusNotFound, "Image not found!", err)
		}
		return errprocess.Internal(err)
	}
	u.destroyAll(ctx, []domain.ProductImage{removed})
	return nil
}

func (u *productUseCase) Detail(ctx context.Context, productID string) (*domain.ProductView, error) {
	product, err := u.find(ctx, productID)
	if err != nil {
		return nil, err
	}
	views, err := u.views(ctx, []domain.Product{*product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (u *productUseCase) ByCategory(ctx context.Context, category string, page domain.Page) ([]domain.ProductView, error) {
	if !pkg.Contains(domain.Categories, category) {
		return nil, errprocess.Unprocessable("Invalid category!")
	}
	products, err := u.repo.ByCategory(ctx, category, page)
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	return u.views(ctx, products)
}

func (u *productUseCase) Latest(ctx context.Context) ([]domain.ProductView, error) {
	products, err := u.repo.Latest(ctx, latestLimit)
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	return u.views(ctx, products)
}

func (u *productUseCase) Listings(ctx context.Context, ownerID string, page domain.Page) ([]domain.ProductView, error) {
	products, err := u.repo.ByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	return u.views(ctx, products)
}

func (u *productUseCase) Search(ctx context.Context, name string) ([]domain.ProductView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []domain.ProductView{}, nil
	}
	products, err := u.repo.SearchByName(ctx, name, searchLimit)
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	return u.views(ctx, products)
}

func (u *productUseCase) find(ctx context.Context, productID string) (*domain.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, notFound(domain.ErrProductNotFound)
	}
	product, err := u.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, notFound(err)
		}
		return nil, errprocess.Internal(err)
	}
	return product, nil
}

// owned product of ownerID; someone else's product is reported as missing
func (u *productUseCase) owned(ctx context.Context, ownerID, productID string) (*domain.Product, error) {
	product, err := u.find(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.OwnerID != ownerID {
		return nil, notFound(domain.ErrProductNotFound)
	}
	return product, nil
}

// views attach seller profiles in one lookup
func (u *productUseCase) views(ctx context.Context, products []domain.Product) ([]domain.ProductView, error) {
	owners := make([]string, 0, len(products))
	for _, p := range products {
		owners = append(owners, p.OwnerID)
	}

	sellers, err := u.sellers.Sellers(ctx, pkg.Unique(owners))
	if err != nil {
		return nil, errprocess.Internal(err)
	}

	out := make([]domain.ProductView, 0, len(products))
	for i := range products {
		view := products[i].View()
		seller, ok := sellers[products[i].OwnerID]
		if !ok {
			seller = domain.Seller{ID: products[i].OwnerID}
		}
		view.Seller = &seller
		out = append(out, view)
	}
	return out, nil
}

// uploadAll send staged files to the image host, all or nothing
func (u *productUseCase) uploadAll(ctx context.Context, uploads []domain.Upload) ([]domain.ProductImage, error) {
	images := make([]domain.ProductImage, 0, len(uploads))
	for _, up := range uploads {
		img, err := u.uploadOne(ctx, up)
		if err != nil {
			u.destroyAll(ctx, images)
			if errors.Is(err, imagehost.ErrNotImage) {
				return nil, errprocess.Wrap(fiber.StatusUnprocessableEntity, "Invalid image file!", err)
			}
			return nil, errprocess.Internal(err)
		}
		images = append(images, domain.ProductImage{URL: img.URL, PublicID: img.PublicID, CreatedAt: time.Now()})
	}
	return images, nil
}

func (u *productUseCase) uploadOne(ctx context.Context, up domain.Upload) (imagehost.Image, error) {
	f, err := openFile(up.Path)
	if err != nil {
		return imagehost.Image{}, fmt.Errorf("open staged %s: %w", up.FileName, err)
	}
	defer f.Close()

	return u.images.Upload(ctx, f, up.FileName, up.ContentType, imagehost.ProductImage)
}

func (u *productUseCase) destroyAll(ctx context.Context, images []domain.ProductImage) {
	for _, img := range images {
		if err := u.images.Destroy(ctx, img.PublicID); err != nil {
			logger.Log.Warn("image not destroyed", zap.String("public_id", img.PublicID), zap.Error(err))
		}
	}
}

func (u *productUseCase) publish(ctx context.Context, eventType string, p *domain.Product) {
	err := u.publisher.Publish(ctx, events.Event{
		Type: eventType,
		Key:  p.ID,
		At:   time.Now(),
		Data: map[string]interface{}{
			"productId": p.ID,
			"ownerId":   p.OwnerID,
			"category":  p.Category,
			"price":     p.Price,
		},
	})
	if err != nil {
		logger.Log.Warn("event not published", zap.String("type", eventType), zap.String("product_id", p.ID), zap.Error(err))
	}
}

func checkDetails(d domain.Details) error {
	if !pkg.Contains(domain.Categories, d.Category) {
		return errprocess.Unprocessable("Invalid category!")
	}
	if d.Price <= 0 {
		return errprocess.Unprocessable("price must be greater than 0!")
	}
	return nil
}

func checkUploads(uploads []domain.Upload, existing int) error {
	if existing+len(uploads) > domain.MaxImages {
		return errprocess.Unprocessable(fmt.Sprintf("Image files can not be more than %d!", domain.MaxImages))
	}
	for _, up := range uploads {
		if !strings.HasPrefix(up.ContentType, "image/") {
			return errprocess.Unprocessable("Invalid image file!")
		}
	}
	return nil
}

func applyDetails(p *domain.Product, d domain.Details) {
	p.Name = d.Name
	p.Description = d.Description
	p.Category = d.Category
	p.Price = d.Price
	p.PurchasingDate = d.PurchasingDate
}

// discardStaged staged files are removed whatever the outcome
func discardStaged(uploads []domain.Upload) {
	for _, up := range uploads {
		if err := removeFile(up.Path); err != nil && !os.IsNotExist(err) {
			logger.Log.Warn("staged upload not removed", zap.String("path", up.Path), zap.Error(err))
		}
	}
}
