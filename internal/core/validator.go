package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"airaware/internal/types"
)

// Validator wraps go-playground/validator with the tags the query structs
// use: is_layer and is_bbox. Field names in errors come from the `query`
// struct tag so they match what the client sent.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers the custom tags.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	must("is_layer", func(fl validator.FieldLevel) bool {
		return types.IsLayer(fl.Field().String())
	})
	must("is_bbox", func(fl validator.FieldLevel) bool {
		_, err := ParseBBox(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s. The first failing field becomes an AppError
// whose code names the parameter; all failures are listed in Details.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	first := verrs[0]
	return types.NewAppErrorWithDetails(
		tagToErrorCode(first.Field(), first.Tag()),
		validationMessage(first),
		err,
		map[string]any{"fields": fields},
	)
}

// tagToErrorCode maps a failed field and tag to a stable error code.
func tagToErrorCode(field, tag string) types.ErrorCode {
	if tag == "required" {
		return types.ErrCodeValidationMissingField
	}
	switch field {
	case "lat":
		return types.ErrCodeValidationInvalidLat
	case "lon":
		return types.ErrCodeValidationInvalidLon
	case "layer":
		return types.ErrCodeValidationInvalidLayer
	case "bbox":
		return types.ErrCodeValidationInvalidBBox
	case "days":
		return types.ErrCodeValidationInvalidDays
	case "q":
		return types.ErrCodeValidationInvalidQuery
	}
	return types.ErrCodeValidationInvalidParam
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("missing required parameter %q", fe.Field())
	case "latitude":
		return "lat must be a number between -90 and 90"
	case "longitude":
		return "lon must be a number between -180 and 180"
	case "is_layer":
		return "layer must be aqi or one of " + strings.Join(types.PollutantKeys, ", ")
	case "is_bbox":
		return "bbox must be west,south,east,north in degrees"
	}
	return fmt.Sprintf("invalid value for parameter %q", fe.Field())
}

// ParseBBox parses "west,south,east,north".
func ParseBBox(s string) (types.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.BBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = f
	}
	b := types.BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if err := b.Validate(); err != nil {
		return types.BBox{}, err
	}
	return b, nil
}
