package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/service"
)

// UploadHandler accepts base64 image uploads.
type UploadHandler struct {
	Images *service.ImageService
}

func NewUploadHandler(images *service.ImageService) *UploadHandler {
	return &UploadHandler{Images: images}
}

type uploadReq struct {
	ImageBase64 string `json:"imageBase64"`
}

// Upload stores a "data:image/<type>;base64,..." payload.
func (h *UploadHandler) Upload(c echo.Context) error {
	var req uploadReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	up, err := h.Images.Upload(ctx, actor(c), req.ImageBase64)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "image uploaded",
		"image":    imageFrom(up.Image),
		"imageUrl": up.URL,
	})
}

func (h *UploadHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid image id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Images.Delete(ctx, actor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
