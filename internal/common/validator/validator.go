// Package validator interprets `validate` struct tags on request types and
// reports failures as a common.ValidationError keyed by JSON field name.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bookshelf_api/internal/common"

	playground "github.com/go-playground/validator/v10"
)

// UsernameRX allows letters, digits and underscores.
var UsernameRX = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = newValidate(time.Now)

func newValidate(now func() time.Time) *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("username", func(fl playground.FieldLevel) bool {
		return UsernameRX.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notfuture", func(fl playground.FieldLevel) bool {
		return fl.Field().Int() <= int64(now().Year())
	})
	_ = v.RegisterValidation("notblank", func(fl playground.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// maxbytes bounds the encoded length; max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl playground.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// Struct validates s. It returns nil or a *common.ValidationError; the
// first failing rule per field wins.
func Struct(s interface{}) error {
	return check(validate, s)
}

func check(v *playground.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating request: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return common.NewValidationError(fields)
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "username":
		return "may only contain letters, numbers and underscores"
	case "notfuture":
		return "must not be in the future"
	case "required_without":
		return "is required when " + fe.Param() + " is missing"
	}
	return "is invalid"
}
