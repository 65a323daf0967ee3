package imagehost

import (
	"context"
	"errors"
	"io"
)

// ErrNotImage upload content type is not image/*
var ErrNotImage = errors.New("imagehost: not an image")

// Image stored image location
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"id"`
}

// Transform resize applied by hosts that support server side transformation
type Transform struct {
	Width   int
	Height  int
	Crop    string
	Gravity string
}

var (
	// ProductImage listing photos
	ProductImage = Transform{Width: 1280, Height: 720, Crop: "fill"}
	// AvatarThumb profile pictures
	AvatarThumb = Transform{Width: 300, Height: 300, Crop: "thumb", Gravity: "face"}
)

// Host remote image storage
type Host interface {
	Upload(ctx context.Context, r io.Reader, fileName, contentType string, t Transform) (Image, error)
	Destroy(ctx context.Context, publicID string) error
}
