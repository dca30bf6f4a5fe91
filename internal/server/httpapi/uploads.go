package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/server/services"
	"github.com/gin-gonic/gin"
)

func noop() {}

// formFile opens an uploaded file. It returns nil when the request is not
// multipart or has no such field. The returned func closes the file.
func formFile(c *gin.Context, field string) (*services.Upload, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &services.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// formFiles opens several fields at once; close releases all of them.
func (h *Handler) formFiles(c *gin.Context, fields ...string) (map[string]*services.Upload, func(), bool) {
	out := make(map[string]*services.Upload, len(fields))
	var closers []func()
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}
	for _, f := range fields {
		u, closeFn, err := formFile(c, f)
		if err != nil {
			closeAll()
			h.badRequest(c, "invalid upload: "+f)
			return nil, noop, false
		}
		closers = append(closers, closeFn)
		out[f] = u
	}
	return out, closeAll, true
}
