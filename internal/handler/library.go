package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/middleware"
	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
)

// LibraryHandler serves the caller's own saved books.  Every route runs
// behind Authenticate.
type LibraryHandler struct {
	Library     *service.LibraryService
	Entitlement *service.EntitlementService
}

func NewLibraryHandler(lib *service.LibraryService, ent *service.EntitlementService) *LibraryHandler {
	return &LibraryHandler{Library: lib, Entitlement: ent}
}

type addReq struct {
	BookID string `json:"bookId"`
}

type libraryResp struct {
	Books      []model.LibraryBook `json:"books"`
	Pagination Pagination          `json:"pagination"`
}

// List: GET /library
func (h *LibraryHandler) List(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p := pageRequest(c)
	res, err := h.Library.List(ctx, u, p)
	if err != nil {
		return err
	}
	entitled := u.IsAdmin()
	if !entitled {
		if entitled, err = h.Entitlement.HasActiveSubscription(ctx, u.ID); err != nil {
			return err
		}
	}
	if !entitled {
		for i := range res.Items {
			res.Items[i].Book = res.Items[i].Book.Restricted()
		}
	}
	return c.JSON(http.StatusOK, libraryResp{Books: res.Items, Pagination: newPagination(p, res.Total)})
}

// Add: POST /library/add {bookId}
func (h *LibraryHandler) Add(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	var req addReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.BookID = strings.TrimSpace(req.BookID)
	if req.BookID == "" {
		return &service.ValidationError{Field: "bookId", Message: "is required"}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Library.Add(ctx, u, req.BookID); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "book added to library", "bookId": req.BookID})
}

// Remove: DELETE /library/:bookId
func (h *LibraryHandler) Remove(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Library.Remove(ctx, u.ID, c.Param("bookId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book removed from library"})
}

// Check: GET /library/check/:bookId
func (h *LibraryHandler) Check(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	in, err := h.Library.Check(ctx, u.ID, c.Param("bookId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"inLibrary": in})
}
