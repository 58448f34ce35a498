package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/storage"
	"github.com/iliyamo/recipe-share/internal/utils"
)

// DefaultMaxImageBytes caps decoded uploads when no limit is configured.
const DefaultMaxImageBytes = 5 << 20

var dataURIPattern = regexp.MustCompile(`^data:image/([A-Za-z0-9.+-]+);base64,(.+)$`)

// DecodedImage is the content of an image data URI.
type DecodedImage struct {
	MimeType  string
	Extension string
	Data      []byte
}

// ParseImageDataURI decodes "data:image/<subtype>;base64,<payload>". The
// file extension is the subtype, with jpeg shortened to jpg and svg+xml to svg.
func ParseImageDataURI(s string) (DecodedImage, error) {
	// base64 bodies are often wrapped at 76 columns
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return DecodedImage{}, validation("invalid image format")
	}
	subtype := strings.ToLower(m[1])
	payload := m[2]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DecodedImage{}, validation("invalid base64 payload")
	}
	if len(data) == 0 {
		return DecodedImage{}, validation("empty image")
	}
	return DecodedImage{MimeType: "image/" + subtype, Extension: extensionFor(subtype), Data: data}, nil
}

func extensionFor(subtype string) string {
	switch subtype {
	case "jpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	default:
		return subtype
	}
}

// ImageService stores uploaded images and their metadata rows.
type ImageService struct {
	images   *repository.ImageRepo
	store    storage.Store
	maxBytes int
	now      func() time.Time
}

func NewImageService(images *repository.ImageRepo, store storage.Store, maxBytes int) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{images: images, store: store, maxBytes: maxBytes, now: time.Now}
}

// Uploaded is the result of Upload.
type Uploaded struct {
	Image *model.Image
	URL   string
}

// Upload decodes dataURI, writes it under "<unixmillis>-<random hex>.<ext>"
// and records it as owned by the actor.
func (s *ImageService) Upload(ctx context.Context, actor Actor, dataURI string) (*Uploaded, error) {
	if actor.UserID == 0 {
		return nil, unauthorized("authentication required")
	}
	if strings.TrimSpace(dataURI) == "" {
		return nil, validation("no image provided")
	}
	img, err := ParseImageDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	if len(img.Data) > s.maxBytes {
		return nil, validation(fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}

	suffix, err := utils.RandomHex(8)
	if err != nil {
		return nil, internal("could not store image", err)
	}
	name := fmt.Sprintf("%d-%s.%s", s.now().UnixMilli(), suffix, img.Extension)
	if err := s.store.Put(ctx, name, img.Data, img.MimeType); err != nil {
		return nil, internal("could not store image", err)
	}

	row := &model.Image{
		Filename: name,
		Path:     name,
		MimeType: img.MimeType,
		Size:     int64(len(img.Data)),
		OwnerID:  actor.UserID,
	}
	if err := s.images.Create(ctx, row); err != nil {
		if derr := s.store.Delete(ctx, name); derr != nil && !errors.Is(derr, storage.ErrNotExist) {
			log.Warn().Err(derr).Str("file", name).Msg("upload: orphaned object after failed insert")
		}
		return nil, internal("could not store image", err)
	}
	return &Uploaded{Image: row, URL: s.store.URL(row.Path)}, nil
}

// Delete removes the stored object, then the metadata row. A missing object
// is tolerated. Only the uploader or an admin may delete.
func (s *ImageService) Delete(ctx context.Context, actor Actor, id uint64) error {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("image not found")
		}
		return internal("could not delete image", err)
	}
	if !actor.CanManage(img.OwnerID) {
		return forbidden("only the uploader or an admin can delete this image")
	}
	if err := s.store.Delete(ctx, img.Path); err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			return internal("could not delete image", err)
		}
		log.Debug().Str("file", img.Path).Msg("image object already gone")
	}
	if err := s.images.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("image not found")
		}
		return internal("could not delete image", err)
	}
	return nil
}

// URL returns the public address of a stored image.
func (s *ImageService) URL(img *model.Image) string { return s.store.URL(img.Path) }
