package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
)

// AdminHandler serves /admin.  The group runs Authenticate then
// RequireRole(ADMIN), so handlers here do not check the caller again.
type AdminHandler struct {
	Admin *service.AdminService
}

func NewAdminHandler(a *service.AdminService) *AdminHandler { return &AdminHandler{Admin: a} }

type adminBooksResp struct {
	Books      []model.Book `json:"books"`
	Pagination Pagination   `json:"pagination"`
}

type adminUsersResp struct {
	Users      []model.UserSummary `json:"users"`
	Pagination Pagination          `json:"pagination"`
}

// ListBooks: GET /admin/books, unpublished included.
func (h *AdminHandler) ListBooks(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p := pageRequest(c)
	res, err := h.Admin.ListBooks(ctx, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminBooksResp{Books: res.Items, Pagination: newPagination(p, res.Total)})
}

// CreateBook: POST /admin/books
func (h *AdminHandler) CreateBook(c echo.Context) error {
	var in service.BookInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Admin.CreateBook(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

// UpdateBook: PUT /admin/books/:id, partial.
func (h *AdminHandler) UpdateBook(c echo.Context) error {
	var in service.BookInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Admin.UpdateBook(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// DeleteBook: DELETE /admin/books/:id
func (h *AdminHandler) DeleteBook(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Admin.DeleteBook(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted"})
}

// Statistics: GET /admin/statistics
func (h *AdminHandler) Statistics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Admin.Statistics(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Users: GET /admin/users
func (h *AdminHandler) Users(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p := pageRequest(c)
	res, err := h.Admin.ListUsers(ctx, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminUsersResp{Users: res.Items, Pagination: newPagination(p, res.Total)})
}
