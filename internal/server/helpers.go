package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"forum/internal/middleware"
	"forum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxListLimit = 100

// respondError writes err with the status of its AppError code. Anything that
// is not an AppError is logged and reported as an internal error.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	appErr, ok := models.AsAppError(err)
	if !ok {
		appErr = models.NewInternalError(err)
	}
	if appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "method", c.Method(), "error", err)
	}
	return models.RespondWithError(c, appErr.Status(), appErr)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// FormID is an id sent in a request body. JSON bodies may carry it as a
// number or a string; form bodies always carry a string.
type FormID string

// UnmarshalJSON accepts 5, "5" and null.
func (id *FormID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FormID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FormID(n.String())
	return nil
}

// parseFormID parses an id sent in a request body field.
func parseFormID(raw FormID, field string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(field))
	}
	return uint(id), nil
}

// humanizeParam converts a parameter name into a label: "id" -> "ID",
// "topic_id" -> "topic ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "_id"); ok {
		return strings.ReplaceAll(prefix, "_", " ") + " ID"
	}
	return param
}

// parseLimit reads ?limit= bounded to [1, 100]; zero means "use the default".
func parseLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return 0
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *Server) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

func message(text string, fields fiber.Map) fiber.Map {
	if fields == nil {
		fields = fiber.Map{}
	}
	fields["message"] = text
	return fields
}
