package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a field name to what is wrong with it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validate checks values against the kind's typed entity. Every non-generated
// field is checked, so updates must carry the full entity.
func (k *Kind) Validate(values Values) error {
	for name := range values {
		if _, ok := k.Field(name); !ok {
			return FieldErrors{name: "unknown field for " + k.Name}
		}
	}

	body, err := k.Body(values, true)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if k.newObject == nil {
		return nil
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k.Name, err)
	}
	obj := k.newObject()
	if err := json.Unmarshal(buf, obj); err != nil {
		return fmt.Errorf("decode %s: %w", k.Name, err)
	}

	if err := validate.Struct(obj); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := make(FieldErrors, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = describe(fe)
		}
		return out
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must look like " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "numeric":
		return "must be numeric"
	default:
		return "failed " + fe.Tag()
	}
}
