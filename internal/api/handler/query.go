package handler

import (
	"errors"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/travelrecap/travelrecap/internal/api/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// queryValidator reports field errors under their query parameter names.
func queryValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// validateQuery runs struct validation and converts failures to field errors.
func validateQuery(q any) []models.FieldError {
	err := queryValidator().Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "query", Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string) (*int, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &models.FieldError{Field: name, Message: "must be an integer", Code: "type"}
	}
	return &v, nil
}

// floatParam parses an optional float query parameter, returning def when
// it is absent.
func floatParam(r *http.Request, name string, def float64) (float64, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &models.FieldError{Field: name, Message: "must be a number", Code: "type"}
	}
	return v, nil
}

func parsePlaceLocationsQuery(r *http.Request) (models.PlaceLocationsQuery, []models.FieldError) {
	year, ferr := intParam(r, "year")
	if ferr != nil {
		return models.PlaceLocationsQuery{}, []models.FieldError{*ferr}
	}
	q := models.PlaceLocationsQuery{Year: year}
	return q, validateQuery(q)
}

func parseRecapQuery(r *http.Request, defaultThreshold float64) (models.RecapQuery, []models.FieldError) {
	var errs []models.FieldError

	threshold, ferr := floatParam(r, "probabilityThreshold", defaultThreshold)
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	year, ferr := intParam(r, "year")
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	if errs != nil {
		return models.RecapQuery{}, errs
	}

	q := models.RecapQuery{ProbabilityThreshold: threshold, Year: year}
	return q, validateQuery(q)
}
