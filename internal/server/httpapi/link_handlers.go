package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/server/collection"
	"github.com/dmitrijs2005/mymee/internal/server/services"
	"github.com/gin-gonic/gin"
)

// linkForm is accepted as JSON or as multipart form with icon and
// thumbnail files.
type linkForm struct {
	Title          *string `json:"title" form:"title"`
	URL            *string `json:"url" form:"url"`
	Active         *bool   `json:"active" form:"active"`
	ScheduledStart *string `json:"scheduledStart" form:"scheduledStart"`
	ScheduledEnd   *string `json:"scheduledEnd" form:"scheduledEnd"`
}

// scheduleBound is one end of the visibility window as sent by the client.
type scheduleBound struct {
	at    *time.Time
	clear bool
}

// parseBound reads an RFC 3339 time. An absent field leaves the bound
// unchanged, an empty string removes it.
func parseBound(field string, v *string) (scheduleBound, error) {
	if v == nil {
		return scheduleBound{}, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return scheduleBound{clear: true}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return scheduleBound{}, fmt.Errorf("%w: %s must be an RFC 3339 time", common.ErrorInvalidInput, field)
	}
	return scheduleBound{at: &t}, nil
}

func (f linkForm) schedule() (start, end scheduleBound, err error) {
	if start, err = parseBound("scheduledStart", f.ScheduledStart); err != nil {
		return start, end, err
	}
	end, err = parseBound("scheduledEnd", f.ScheduledEnd)
	return start, end, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// reorderMove accepts the item id as either "id" or "_id".
type reorderMove struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Order    int    `json:"order"`
}

type reorderRequest struct {
	Links []reorderMove `json:"links"`
}

func (r reorderRequest) moves() []collection.Move {
	out := make([]collection.Move, 0, len(r.Links))
	for _, m := range r.Links {
		id := m.ID
		if id == "" {
			id = m.LegacyID
		}
		out = append(out, collection.Move{ID: id, Order: m.Order})
	}
	return out
}

func (h *Handler) ListLinks(c *gin.Context) {
	links, err := h.links.ListLinks(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

func (h *Handler) AddLink(c *gin.Context) {
	var req linkForm
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	start, end, err := req.schedule()
	if err != nil {
		h.fail(c, err)
		return
	}
	files, closeFiles, ok := h.formFiles(c, "icon", "thumbnail")
	if !ok {
		return
	}
	defer closeFiles()

	links, err := h.links.AddLink(c.Request.Context(), session(c).UserID, services.LinkInput{
		Title:          deref(req.Title),
		URL:            deref(req.URL),
		Active:         req.Active,
		ScheduledStart: start.at,
		ScheduledEnd:   end.at,
		Icon:           files["icon"],
		Thumbnail:      files["thumbnail"],
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, links)
}

func (h *Handler) ReorderLinks(c *gin.Context) {
	var req reorderRequest
	if !h.bind(c, &req) {
		return
	}
	links, err := h.links.ReorderLinks(c.Request.Context(), session(c).UserID, req.moves())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "links": links})
}

func (h *Handler) EditLink(c *gin.Context) {
	var req linkForm
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	start, end, err := req.schedule()
	if err != nil {
		h.fail(c, err)
		return
	}
	files, closeFiles, ok := h.formFiles(c, "icon", "thumbnail")
	if !ok {
		return
	}
	defer closeFiles()

	link, err := h.links.EditLink(c.Request.Context(), session(c).UserID, c.Param("id"), services.LinkPatch{
		Title:               req.Title,
		URL:                 req.URL,
		Active:              req.Active,
		ScheduledStart:      start.at,
		ScheduledEnd:        end.at,
		ClearScheduledStart: start.clear,
		ClearScheduledEnd:   end.clear,
		Icon:                files["icon"],
		Thumbnail:           files["thumbnail"],
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link updated", "link": link})
}

func (h *Handler) DeleteLink(c *gin.Context) {
	id, err := h.links.DeleteLink(c.Request.Context(), session(c).UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link deleted", "id": id})
}

type socialLinkRequest struct {
	Title  *string `json:"title"`
	URL    *string `json:"url"`
	Icon   *string `json:"icon"`
	Active *bool   `json:"active"`
}

func (h *Handler) ListSocialLinks(c *gin.Context) {
	links, err := h.links.ListSocialLinks(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

func (h *Handler) AddSocialLink(c *gin.Context) {
	var req socialLinkRequest
	if !h.bind(c, &req) {
		return
	}
	links, err := h.links.AddSocialLink(c.Request.Context(), session(c).UserID, services.SocialLinkInput{
		Title: deref(req.Title),
		URL:   deref(req.URL),
		Icon:  deref(req.Icon),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, links)
}

func (h *Handler) ReorderSocialLinks(c *gin.Context) {
	var req reorderRequest
	if !h.bind(c, &req) {
		return
	}
	links, err := h.links.ReorderSocialLinks(c.Request.Context(), session(c).UserID, req.moves())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "links": links})
}

func (h *Handler) EditSocialLink(c *gin.Context) {
	var req socialLinkRequest
	if !h.bind(c, &req) {
		return
	}
	link, err := h.links.EditSocialLink(c.Request.Context(), session(c).UserID, c.Param("id"), services.SocialLinkPatch{
		Title:  req.Title,
		URL:    req.URL,
		Icon:   req.Icon,
		Active: req.Active,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Social link updated", "link": link})
}

func (h *Handler) DeleteSocialLink(c *gin.Context) {
	id, err := h.links.DeleteSocialLink(c.Request.Context(), session(c).UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Social link deleted", "id": id})
}
