package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/middleware"
	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
)

// BookHandler serves the public catalog.  Routes run behind OptionalAuth,
// so a user may or may not be attached.
type BookHandler struct {
	Catalog     *service.CatalogService
	Entitlement *service.EntitlementService
}

func NewBookHandler(cat *service.CatalogService, ent *service.EntitlementService) *BookHandler {
	return &BookHandler{Catalog: cat, Entitlement: ent}
}

type bookListResp struct {
	Books      []service.BookView `json:"books"`
	Pagination Pagination         `json:"pagination"`
}

// List: GET /books
func (h *BookHandler) List(c echo.Context) error {
	return h.list(c, "")
}

// ByCategory: GET /books/category/:category
func (h *BookHandler) ByCategory(c echo.Context) error {
	return h.list(c, c.Param("category"))
}

func (h *BookHandler) list(c echo.Context, category string) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.viewer(ctx, c)
	if err != nil {
		return err
	}
	p := pageRequest(c)
	res, err := h.Catalog.List(ctx, category, v, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookListResp{Books: views(v, res.Items), Pagination: newPagination(p, res.Total)})
}

// Search: GET /books/search?q=  (?query= is accepted too)
func (h *BookHandler) Search(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		term = c.QueryParam("query")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.viewer(ctx, c)
	if err != nil {
		return err
	}
	p := pageRequest(c)
	res, err := h.Catalog.Search(ctx, term, v, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookListResp{Books: views(v, res.Items), Pagination: newPagination(p, res.Total)})
}

// Trending: GET /books/trending
func (h *BookHandler) Trending(c echo.Context) error {
	return h.top(c, h.Catalog.Trending)
}

// NewReleases: GET /books/new-releases
func (h *BookHandler) NewReleases(c echo.Context) error {
	return h.top(c, h.Catalog.NewReleases)
}

func (h *BookHandler) top(c echo.Context, fetch func(context.Context, int) ([]model.Book, error)) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.viewer(ctx, c)
	if err != nil {
		return err
	}
	books, err := fetch(ctx, topLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views(v, books))
}

// Get: GET /books/:id
func (h *BookHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.viewer(ctx, c)
	if err != nil {
		return err
	}
	b, err := h.Catalog.GetByID(ctx, c.Param("id"), v)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.View(b))
}

// Audio: GET /books/:id/audio, behind Authenticate and RequireEntitlement.
func (h *BookHandler) Audio(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Catalog.GetByID(ctx, c.Param("id"), service.Viewer{Admin: u.IsAdmin(), Entitled: true})
	if err != nil {
		return err
	}
	if b.AudioFile == nil {
		return echo.NewHTTPError(http.StatusNotFound, "book has no audio")
	}
	return c.JSON(http.StatusOK, echo.Map{"bookId": b.ID, "audioFile": *b.AudioFile})
}

// viewer describes the caller.  Entitlement is only looked up for signed-in
// non-admins.
func (h *BookHandler) viewer(ctx context.Context, c echo.Context) (service.Viewer, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.Viewer{}, nil
	}
	if u.IsAdmin() {
		return service.Viewer{Admin: true}, nil
	}
	active, err := h.Entitlement.HasActiveSubscription(ctx, u.ID)
	if err != nil {
		return service.Viewer{}, err
	}
	return service.Viewer{Entitled: active}, nil
}

func views(v service.Viewer, books []model.Book) []service.BookView {
	out := make([]service.BookView, 0, len(books))
	for _, b := range books {
		out = append(out, v.View(b))
	}
	return out
}
