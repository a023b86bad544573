package http

import (
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/imagelinker/internal/infrastructure/storage"
)

// FileHandler serves objects behind proxy-signed links.
type FileHandler struct {
	storage storage.Storage
	signer  *storage.LinkSigner
}

func NewFileHandler(s storage.Storage, signer *storage.LinkSigner) *FileHandler {
	return &FileHandler{storage: s, signer: signer}
}

func (h *FileHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.GET(strings.TrimSuffix(storage.FilesRoute, "/")+"/*key", h.ServeFile)
}

// ServeFile GET /files/*key?expires=...&signature=...
func (h *FileHandler) ServeFile(c *ginext.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		badRequest(c, "file key is required")
		return
	}

	if err := h.signer.Verify(key, c.Query("expires"), c.Query("signature")); err != nil {
		respondError(c, err)
		return
	}

	obj, err := h.storage.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control": "private, max-age=3600",
	})
}
