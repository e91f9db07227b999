package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaultguard/credential-vault/internal/core/ports"
)

const defaultGeneratedLength = 16

type GeneratorHandler struct {
	generator ports.PasswordGenerator
}

func NewGeneratorHandler(generator ports.PasswordGenerator) *GeneratorHandler {
	return &GeneratorHandler{generator: generator}
}

// Generate handles POST /v1/generate. Omitted class flags default to true.
//
// @Summary      Generate a random password
// @Tags         generator
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      generateRequest  false  "Generator options"
// @Success      200   {object}  ports.GeneratedPassword
// @Failure      400   {object}  errorResponse
// @Router       /v1/generate [post]
func (h *GeneratorHandler) Generate(c echo.Context) error {
	if _, err := ctxUserID(c); err != nil {
		return err
	}
	var req generateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	opts := ports.GeneratorOptions{
		Length:  req.Length,
		Upper:   boolOr(req.IncludeUppercase, true),
		Lower:   boolOr(req.IncludeLowercase, true),
		Numbers: boolOr(req.IncludeNumbers, true),
		Symbols: boolOr(req.IncludeSymbols, true),
	}
	if opts.Length == 0 {
		opts.Length = defaultGeneratedLength
	}

	out, err := h.generator.Generate(opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
