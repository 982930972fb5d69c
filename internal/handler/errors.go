package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/service"
)

const msgInternal = "internal server error"

// statusOf lists every service sentinel with its HTTP status.  The
// sentinel's own text is the client-facing message, so wrapped causes
// never reach the response.
var statusOf = []struct {
	err    error
	status int
}{
	{service.ErrInvalidPlan, http.StatusBadRequest},
	{service.ErrQueryTooShort, http.StatusBadRequest},
	{service.ErrAlreadyInLibrary, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrSubscriptionRequired, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrBookNotFound, http.StatusNotFound},
	{service.ErrNotInLibrary, http.StatusNotFound},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrEmailInUse, http.StatusConflict},
	{service.ErrBookReferenced, http.StatusConflict},
}

// ErrorHandler is the single place where errors become HTTP responses.
// Every error is logged with the request method and path; 5xx details are
// echoed to the client only when dev is set.
func ErrorHandler(log *slog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := classify(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
			if dev {
				body["detail"] = err.Error()
			}
		}
		req := c.Request()
		log.Log(req.Context(), level, "request failed",
			"status", status,
			"method", req.Method,
			"path", req.URL.Path,
			"err", err,
		)

		if req.Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", "err", err)
		}
	}
}

func classify(err error) (int, echo.Map) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field}
	}
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			body := echo.Map{"error": m.err.Error()}
			if m.err == service.ErrSubscriptionRequired {
				body["requiresSubscription"] = true
			}
			return m.status, body
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Code < http.StatusInternalServerError {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, echo.Map{"error": msg}
	}
	return http.StatusInternalServerError, echo.Map{"error": msgInternal}
}

// bind decodes the request body into v.  Decoding failures become
// validation errors: a mistyped field is named, anything else is
// reported against the body as a whole.
func bind(c echo.Context, v any) error {
	err := c.Bind(v)
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
		return err
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return &service.ValidationError{Field: te.Field, Message: "has the wrong type"}
	}
	return &service.ValidationError{Field: "body", Message: "must be a valid JSON object"}
}
