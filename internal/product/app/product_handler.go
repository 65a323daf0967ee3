package app

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"smart_cycle_market/internal/product/domain"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/logger"
	"smart_cycle_market/pkg/middlewares"
	"smart_cycle_market/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

type productRequest struct {
	Name           string  `json:"name" form:"name" validate:"required"`
	Description    string  `json:"description" form:"description" validate:"required"`
	Category       string  `json:"category" form:"category" validate:"required"`
	Price          float64 `json:"price" form:"price" validate:"required,gt=0"`
	PurchasingDate string  `json:"purchasingDate" form:"purchasingDate" validate:"required"`
}

func (r productRequest) details() (domain.Details, error) {
	date, err := time.Parse(time.RFC3339, r.PurchasingDate)
	if err != nil {
		if date, err = time.Parse(time.DateOnly, r.PurchasingDate); err != nil {
			return domain.Details{}, errprocess.Unprocessable("Invalid purchasingDate!")
		}
	}
	return domain.Details{
		Name:           strings.TrimSpace(r.Name),
		Description:    strings.TrimSpace(r.Description),
		Category:       r.Category,
		Price:          r.Price,
		PurchasingDate: date,
	}, nil
}

// ProductHandler /product endpoints
type ProductHandler struct {
	uc        ProductUseCase
	uploadDir string
}

// NewProductHandler create ProductHandler, uploads are staged in uploadDir
func NewProductHandler(uc ProductUseCase, uploadDir string) *ProductHandler {
	if uploadDir == "" {
		uploadDir = "./tmp"
	}
	return &ProductHandler{uc: uc, uploadDir: uploadDir}
}

func (h *ProductHandler) bindProduct(c *fiber.Ctx) (domain.Details, error) {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.Details{}, errprocess.BadRequest("Invalid request body!")
	}
	if err := validation.Struct(req); err != nil {
		return domain.Details{}, err
	}
	return req.details()
}

// stage save the request's "images" files under uploadDir
func (h *ProductHandler) stage(c *fiber.Ctx) ([]domain.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// not multipart, nothing to stage
		return nil, nil
	}
	files := form.File["images"]
	if len(files) > domain.MaxImages {
		return nil, errprocess.Unprocessable("Image files can not be more than 5!")
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return nil, errprocess.Internal(err)
	}

	uploads := make([]domain.Upload, 0, len(files))
	for _, fh := range files {
		up, err := h.stageOne(c, fh)
		if err != nil {
			discardStaged(uploads)
			return nil, errprocess.Internal(err)
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func (h *ProductHandler) stageOne(c *fiber.Ctx, fh *multipart.FileHeader) (domain.Upload, error) {
	path := filepath.Join(h.uploadDir, uuid.New().String()+filepath.Ext(fh.Filename))
	if err := c.SaveFile(fh, path); err != nil {
		return domain.Upload{}, err
	}
	logger.Log.Debug("upload staged", zap.String("path", path), zap.String("file", fh.Filename))
	return domain.Upload{
		Path:        path,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
	}, nil
}

func page(c *fiber.Ctx) domain.Page {
	no, _ := strconv.Atoi(c.Query("pageNo", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if no < 1 {
		no = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return domain.Page{No: no, Limit: limit}
}

// List create a listing
// @Summary List a product
// @Tags Product
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param name formData string true "Name"
// @Param description formData string true "Description"
// @Param category formData string true "Category"
// @Param price formData number true "Price"
// @Param purchasingDate formData string true "Purchasing date, RFC3339 or YYYY-MM-DD"
// @Param images formData file false "Up to 5 images"
// @Success 201 {object} domain.ProductView
// @Failure 422 {object} map[string]string "validation message"
// @Router /product/list [post]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	details, err := h.bindProduct(c)
	if err != nil {
		return err
	}
	uploads, err := h.stage(c)
	if err != nil {
		return err
	}

	view, err := h.uc.List(c.UserContext(), middlewares.MemberID(c), details, uploads)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product listed.", "product": view})
}

// Update change a listing
// @Summary Update a product
// @Tags Product
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Product id"
// @Param images formData file false "Images to append"
// @Success 200 {object} domain.ProductView
// @Failure 404 {object} map[string]string "Product not found!"
// @Router /product/{id} [patch]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	details, err := h.bindProduct(c)
	if err != nil {
		return err
	}
	uploads, err := h.stage(c)
	if err != nil {
		return err
	}

	view, err := h.uc.Update(c.UserContext(), middlewares.MemberID(c), c.Params("id"), details, uploads)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product updated.", "product": view})
}

// Remove delete a listing
// @Summary Delete a product
// @Tags Product
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Product id"
// @Success 200 {object} map[string]string "message"
// @Failure 404 {object} map[string]string "Product not found!"
// @Router /product/{id} [delete]
func (h *ProductHandler) Remove(c *fiber.Ctx) error {
	if err := h.uc.Remove(c.UserContext(), middlewares.MemberID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product removed."})
}

// RemoveImage delete one image of a listing
// @Summary Delete a product image
// @Tags Product
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param productId path string true "Product id"
// @Param imageId path int true "Image id"
// @Success 200 {object} map[string]string "message"
// @Failure 404 {object} map[string]string "Image not found!"
// @Router /product/image/{productId}/{imageId} [delete]
func (h *ProductHandler) RemoveImage(c *fiber.Ctx) error {
	imageID, err := strconv.ParseUint(c.Params("imageId"), 10, 64)
	if err != nil {
		return errprocess.NotFound("Image not found!")
	}
	if err := h.uc.RemoveImage(c.UserContext(), middlewares.MemberID(c), c.Params("productId"), uint(imageID)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Image removed."})
}

// Detail one product with its seller
// @Summary Product detail
// @Tags Product
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} domain.ProductView
// @Failure 404 {object} map[string]string "Product not found!"
// @Router /product/detail/{id} [get]
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	view, err := h.uc.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"product": view})
}

// ByCategory products of a category, newest first
// @Summary Products by category
// @Tags Product
// @Produce json
// @Param category path string true "Category"
// @Param pageNo query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {array} domain.ProductView
// @Failure 422 {object} map[string]string "Invalid category!"
// @Router /product/by-category/{category} [get]
func (h *ProductHandler) ByCategory(c *fiber.Ctx) error {
	views, err := h.uc.ByCategory(c.UserContext(), c.Params("category"), page(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": views})
}

// Latest newest listings
// @Summary Latest products
// @Tags Product
// @Produce json
// @Success 200 {array} domain.ProductView
// @Router /product/latest [get]
func (h *ProductHandler) Latest(c *fiber.Ctx) error {
	views, err := h.uc.Latest(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": views})
}

// Listings caller's own listings
// @Summary Own listings
// @Tags Product
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param pageNo query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {array} domain.ProductView
// @Router /product/listings [get]
func (h *ProductHandler) Listings(c *fiber.Ctx) error {
	views, err := h.uc.Listings(c.UserContext(), middlewares.MemberID(c), page(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": views})
}

// Search products by name
// @Summary Search products
// @Tags Product
// @Produce json
// @Param name query string true "Part of the name"
// @Success 200 {array} domain.ProductView
// @Router /product/search [get]
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	views, err := h.uc.Search(c.UserContext(), c.Query("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"results": views})
}
