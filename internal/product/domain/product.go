package domain

import (
	"errors"
	"time"
)

// MaxImages images a listing may hold
const MaxImages = 5

var (
	// ErrProductNotFound no product with that id
	ErrProductNotFound = errors.New("product not found")
	// ErrImageNotFound image is not part of the product
	ErrImageNotFound = errors.New("image not found")
	// ErrTooManyImages saving would leave the product with more than MaxImages images
	ErrTooManyImages = errors.New("too many images")
)

// Categories accepted product categories
var Categories = []string{
	"Electronics",
	"Fashion",
	"Fitness",
	"Home",
	"Books",
	"Toys",
	"Music",
	"Cars",
	"Beauty",
	"Others",
}

// Product listing, images are ordered by upload
type Product struct {
	ID             string         `gorm:"type:uuid;primaryKey"`
	OwnerID        string         `gorm:"type:uuid;index;not null"`
	Name           string         `gorm:"not null"`
	Description    string         `gorm:"not null"`
	Category       string         `gorm:"index;not null"`
	Price          float64        `gorm:"not null"`
	PurchasingDate time.Time      `gorm:"not null"`
	Thumbnail      string         `gorm:"not null;default:''"`
	Images         []ProductImage `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time      `gorm:"index"`
	UpdatedAt      time.Time
}

// ProductImage hosted image of a product
type ProductImage struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"type:uuid;index;not null"`
	URL       string `gorm:"not null"`
	PublicID  string `gorm:"not null"`
	CreatedAt time.Time
}

// Upload image staged on disk waiting to be sent to the image host
type Upload struct {
	Path        string
	FileName    string
	ContentType string
}

// Details listing fields set by the owner
type Details struct {
	Name           string
	Description    string
	Category       string
	Price          float64
	PurchasingDate time.Time
}

// Page 1-based page of a listing query
type Page struct {
	No    int
	Limit int
}

// Offset rows to skip
func (p Page) Offset() int {
	if p.No < 1 {
		return 0
	}
	return (p.No - 1) * p.Limit
}

// Seller public profile of the owner
type Seller struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ImageView image as returned by the api
type ImageView struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

// ProductView product as returned by the api
type ProductView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       float64     `json:"price"`
	Date        time.Time   `json:"date"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	Images      []ImageView `json:"images"`
	Seller      *Seller     `json:"seller,omitempty"`
}

// View api shape of p
func (p *Product) View() ProductView {
	images := make([]ImageView, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageView{ID: img.ID, URL: img.URL})
	}
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Date:        p.PurchasingDate,
		Thumbnail:   p.Thumbnail,
		Images:      images,
	}
}

// ResetThumbnail falls back to the first image, or empty when none are left
func (p *Product) ResetThumbnail() {
	p.Thumbnail = ""
	if len(p.Images) > 0 {
		p.Thumbnail = p.Images[0].URL
	}
}
