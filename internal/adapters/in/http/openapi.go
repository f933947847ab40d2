package http

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

//go:embed openapi.json
var openAPIDocument []byte

// LoadOpenAPI parses and validates the embedded API description.
func LoadOpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err = doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIValidator rejects /api requests whose parameters or body do not
// match the document. Other paths (health, metrics, swagger) pass through.
func OpenAPIValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}

			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				return validationFailure(c, err)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return validationFailure(c, err)
			}
			return next(c)
		}
	}, nil
}

func validationFailure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, routers.ErrPathNotFound):
		return c.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "Route not found"})
	case errors.Is(err, routers.ErrMethodNotAllowed):
		return c.JSON(http.StatusMethodNotAllowed, Error{Code: http.StatusMethodNotAllowed, Message: "Method not allowed"})
	}
	return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
}

// swaggerDoc serves the embedded document to echo-swagger through swag's registry.
type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string {
	return string(openAPIDocument)
}

// RegisterSwaggerDoc makes the document available at /swagger/doc.json.
func RegisterSwaggerDoc() {
	if _, err := swag.ReadDoc(); err != nil {
		swag.Register(swag.Name, swaggerDoc{})
	}
}
