package resource

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/example/scheduling-platform/internal/apperr"
)

// validate holds the struct-tag rules for CategoryInput and ResourceInput,
// grounded on nthome0191-debug-Skeji's internal/schedules/validator package:
// a package-level *validator.Validate with a couple of domain-specific
// RegisterValidation funcs, translated into this repo's apperr.ValidationError
// shape instead of that example's own ValidationErrors type. Fields whose
// constraints are not expressible as a single struct tag (the weekday-keyed
// AvailabilitySchedule map) stay as the hand-written loop in service.go.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("resource_status", validateResourceStatus); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("category_type", validateCategoryType); err != nil {
		panic(err)
	}
	return v
}

func validateResourceStatus(fl validator.FieldLevel) bool {
	switch Status(fl.Field().String()) {
	case StatusDisponivel, StatusManutencao, StatusIndisponivel:
		return true
	default:
		return false
	}
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch CategoryType(fl.Field().String()) {
	case CategoryTypeFisico, CategoryTypeHumano, CategoryTypeSoftware:
		return true
	default:
		return false
	}
}

// validateStruct runs the struct-tag rules on in and translates any
// failures into an apperr.ValidationError, or returns nil when in passes.
func validateStruct(message string, in any) *apperr.ValidationError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v := apperr.NewValidation(message)
		v.Add("_", err.Error())
		return v
	}

	v := apperr.NewValidation(message)
	for _, fe := range fieldErrs {
		v.Add(snakeFieldNames[fe.Field()], describeTag(fe))
	}
	return v
}

// snakeFieldNames maps the Go field names carrying a validate tag to the
// snake_case keys this package's hand-written validate() methods already
// use, so API consumers see one consistent field-error vocabulary
// regardless of which validation path produced it.
var snakeFieldNames = map[string]string{
	"Name":       "name",
	"Type":       "type",
	"CategoryID": "category_id",
	"Status":     "status",
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "resource_status":
		return "must be disponivel, manutencao, or indisponivel"
	case "category_type":
		return "must be fisico, humano, or software"
	default:
		return fe.Error()
	}
}
