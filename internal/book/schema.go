package book

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/validation"

	"github.com/go-playground/validator/v10"
)

const (
	maxTitleLen       = 200
	maxAuthorLen      = 100
	maxDescriptionLen = 1000
	minYear           = 1000

	yearTag = "bookyear"
)

// NewSchema returns the constraint set shared by the request layer and the
// store boundary. now drives the upper bound of the year range.
func NewSchema(now func() time.Time) *validation.Schema {
	if now == nil {
		now = time.Now
	}
	v := validator.New()
	if err := registerYearRule(v, yearTag, now); err != nil {
		panic(err)
	}

	return validation.NewSchema(v,
		validation.Rule{
			Field:    "title",
			Trim:     true,
			Required: true,
			Tag:      "max=" + strconv.Itoa(maxTitleLen),
			Messages: map[string]string{
				"required": "Book title is required",
				"max":      "Title cannot be more than 200 characters",
			},
		},
		validation.Rule{
			Field:    "author",
			Trim:     true,
			Required: true,
			Tag:      "max=" + strconv.Itoa(maxAuthorLen),
			Messages: map[string]string{
				"required": "Author name is required",
				"max":      "Author name cannot be more than 100 characters",
			},
		},
		validation.Rule{
			Field:     "year",
			Trim:      true,
			Tag:       yearTag,
			Normalize: normalizeYear,
			Messages: map[string]string{
				yearTag: "Year must be a valid year",
				"type":  "Year must be a valid year",
			},
		},
		validation.Rule{
			Field:    "genre",
			Trim:     true,
			Required: true,
			Tag:      "oneof=" + strings.Join(Genres, " "),
			Messages: map[string]string{
				"required": "Genre is required",
				"oneof":    "Invalid genre selected",
				"type":     "Invalid genre selected",
			},
		},
		validation.Rule{
			Field:      "imagePath",
			StringOnly: true,
			Messages: map[string]string{
				"type": "Image path must be a string",
			},
		},
		validation.Rule{
			Field: "description",
			Trim:  true,
			Tag:   "max=" + strconv.Itoa(maxDescriptionLen),
			Messages: map[string]string{
				"max": "Description cannot be more than 1000 characters",
			},
		},
	)
}

// registerYearRule installs the year range check under tag. The upper bound
// follows now, so a schema built once keeps accepting next year's books.
func registerYearRule(v *validator.Validate, tag string, now func() time.Time) error {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return validYear(fl.Field().String(), now().Year()+1)
	})
	if err != nil {
		return fmt.Errorf("register %q validation: %w", tag, err)
	}
	return nil
}

func validYear(s string, maxYear int) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= minYear && n <= maxYear
}

// normalizeYear runs after validation succeeded, so the parse cannot fail.
func normalizeYear(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}
