package imagehost

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, file interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	args := m.Called(p)
	if args.Get(0) != nil {
		return args.Get(0).(*uploader.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUploader) Destroy(ctx context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	args := m.Called(p)
	if args.Get(0) != nil {
		return args.Get(0).(*uploader.DestroyResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PutObject(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	return m.Called(objectName, contentType).Error(0)
}

func (m *mockStore) RemoveObject(ctx context.Context, objectName string) error {
	return m.Called(objectName).Error(0)
}

func (m *mockStore) Bucket() string { return "market" }

func TestTransformation(t *testing.T) {
	assert.Equal(t, "c_fill,h_720,w_1280", transformation(ProductImage))
	assert.Equal(t, "c_thumb,g_face,h_300,w_300", transformation(AvatarThumb))
}

func TestCloudinary_Upload(t *testing.T) {
	ctx := context.Background()
	up := new(mockUploader)
	c := &Cloudinary{api: up, folder: "products"}

	up.On("Upload", uploader.UploadParams{Folder: "products", Transformation: "c_fill,h_720,w_1280"}).
		Return(&uploader.UploadResult{SecureURL: "https://res.cloudinary.com/x.jpg", PublicID: "products/x"}, nil).Once()

	img, err := c.Upload(ctx, strings.NewReader("jpg"), "x.jpg", "image/jpeg", ProductImage)
	require.NoError(t, err)
	assert.Equal(t, Image{URL: "https://res.cloudinary.com/x.jpg", PublicID: "products/x"}, img)

	t.Run("rejects non image", func(t *testing.T) {
		_, err := c.Upload(ctx, strings.NewReader("pdf"), "x.pdf", "application/pdf", ProductImage)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("api error in result", func(t *testing.T) {
		up.On("Upload", mock.Anything).Return(&uploader.UploadResult{Error: api.ErrorResp{Message: "quota"}}, nil).Once()
		_, err := c.Upload(ctx, strings.NewReader("jpg"), "y.jpg", "image/jpeg", ProductImage)
		assert.ErrorContains(t, err, "quota")
	})

	up.AssertExpectations(t)
}

func TestCloudinary_Destroy(t *testing.T) {
	up := new(mockUploader)
	c := &Cloudinary{api: up}

	up.On("Destroy", uploader.DestroyParams{PublicID: "products/x"}).Return(&uploader.DestroyResult{Result: "ok"}, nil).Once()
	assert.NoError(t, c.Destroy(context.Background(), "products/x"))
	assert.NoError(t, c.Destroy(context.Background(), ""))

	up.AssertExpectations(t)
}

func TestMinIO_UploadAndDestroy(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	m := NewMinIO(store, "http://localhost:9000/", "avatars")

	store.On("PutObject", mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "avatars/") && strings.HasSuffix(name, ".png")
	}), "image/png").Return(nil).Once()

	img, err := m.Upload(ctx, strings.NewReader("png"), "Me.PNG", "image/png", AvatarThumb)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.URL, "http://localhost:9000/market/avatars/"))

	store.On("RemoveObject", img.PublicID).Return(nil).Once()
	assert.NoError(t, m.Destroy(ctx, img.PublicID))

	store.On("PutObject", mock.Anything, "image/gif").Return(errors.New("disk full")).Once()
	_, err = m.Upload(ctx, strings.NewReader("gif"), "a.gif", "image/gif", ProductImage)
	assert.ErrorContains(t, err, "disk full")

	store.AssertExpectations(t)
}
