// Package validate checks request structs with go-playground/validator and
// reports failures as an apperr.ValidationError keyed by JSON field name.
package validate

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("fdi", func(fl validator.FieldLevel) bool {
			return domain.ValidToothAny(int(fl.Field().Int()))
		})
		_ = v.RegisterValidation("surface", func(fl validator.FieldLevel) bool {
			return slices.Contains(domain.Surfaces, strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return v
}

// Struct validates s. The error, if any, is an *apperr.ValidationError.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[fieldPath(fe)] = message(fe)
	}
	return &apperr.ValidationError{Fields: fields}
}

// fieldPath drops the root struct name: "CreateRequest.teeth[0].tooth_fdi"
// becomes "teeth[0].tooth_fdi".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "fdi":
		return "must be a valid FDI tooth number"
	case "surface":
		return "must be one of O, M, D, V, L, P, I or empty"
	case "uuid":
		return "must be a UUID"
	}
	return "failed " + fe.Tag() + " validation"
}
