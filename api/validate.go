package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rpupo63/portfolio-site-backend/errs"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errs.NewMaxBodySizeExceededError(maxJSONBody)
		case errors.Is(err, io.EOF):
			return errs.NewMalformedPayloadError("json", err)
		default:
			return errs.NewInvalidJSONError(err)
		}
	}
	return validateStruct(dst)
}

// validateStruct maps the first validation failure to an API error.
func validateStruct(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return errs.NewBadRequestError(err.Error())
	}

	fe := validationErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return errs.NewMissingRequiredFieldError(field)
	case "email":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("%s must be a valid email address", field))
	case "url":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("%s must be a valid URL", field))
	case "oneof":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "max":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	}
	return errs.NewInvalidFieldError(field, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
}
