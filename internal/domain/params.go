package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Default request parameters, matching the explorer's form defaults.
var (
	DefaultYears    = YearRange{Start: 2021, End: 2024}
	DefaultBaseline = YearRange{Start: 1981, End: 2010}
)

// DefaultWindow is the default rolling window in days.
const DefaultWindow = 30

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	Start int `json:"start" validate:"gt=0"`
	End   int `json:"end" validate:"gt=0,gtefield=Start"`
}

// Contains reports whether year lies within the range, both ends inclusive.
func (y YearRange) Contains(year int) bool {
	return year >= y.Start && year <= y.End
}

// Within reports whether y lies entirely inside outer.
func (y YearRange) Within(outer YearRange) bool {
	return y.Start >= outer.Start && y.End <= outer.End
}

func (y YearRange) String() string {
	return fmt.Sprintf("%d-%d", y.Start, y.End)
}

// ParseYearRange parses "1981-2010" or a single year "2021".
func ParseYearRange(s string) (YearRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearRange{}, errors.New("empty year range")
	}
	startStr, endStr, found := strings.Cut(s, "-")
	if !found {
		endStr = startStr
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return YearRange{}, fmt.Errorf("invalid start year %q", startStr)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return YearRange{}, fmt.Errorf("invalid end year %q", endStr)
	}
	return YearRange{Start: start, End: end}, nil
}

// Params are the four inputs of an anomaly computation.
type Params struct {
	Regions  []string  `json:"regions" validate:"required,min=1,unique,dive,required"`
	Years    YearRange `json:"years"`
	Baseline YearRange `json:"baseline"`
	Window   int       `json:"window" validate:"min=1,max=366"`
}

// DefaultParams returns the explorer's default selection.
func DefaultParams() Params {
	return Params{
		Regions:  append([]string(nil), DefaultRegions...),
		Years:    DefaultYears,
		Baseline: DefaultBaseline,
		Window:   DefaultWindow,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Normalize checks everything about the parameters that does not depend on the
// loaded data and returns a copy with canonical region names.
func Normalize(p Params) (Params, error) {
	p.Regions = normalizeRegionNames(p.Regions)

	if err := getValidator().Struct(p); err != nil {
		return Params{}, translateValidationError(err)
	}

	for i, name := range p.Regions {
		r, ok := LookupRegion(name)
		if !ok {
			return Params{}, invalidParam("regions", "unknown region %q", name)
		}
		p.Regions[i] = r.Name
	}
	if hasDuplicates(p.Regions) {
		return Params{}, invalidParam("regions", "duplicate region")
	}
	return p, nil
}

// Validate normalizes the parameters and checks both year ranges against the
// span of the loaded data. Failures are InvalidParameterErrors.
func Validate(p Params, span YearRange) (Params, error) {
	p, err := Normalize(p)
	if err != nil {
		return Params{}, err
	}
	if !p.Years.Within(span) {
		return Params{}, invalidParam("years", "%s outside available data %s", p.Years, span)
	}
	if !p.Baseline.Within(span) {
		return Params{}, invalidParam("baseline", "%s outside available data %s", p.Baseline, span)
	}
	return p, nil
}

func normalizeRegionNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = normalizeRegionName(n)
	}
	return out
}

func hasDuplicates(names []string) bool {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}

// translateValidationError maps the first validator failure to an InvalidParameterError
// named after the top-level request field.
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalidParam("params", "%v", err)
	}
	fe := verrs[0]
	return invalidParam(paramName(fe.Namespace()), "%s", describeTag(fe))
}

// paramName turns "Params.years.end" or "Params.regions[0]" into "years" / "regions".
func paramName(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}
	name, _, _ := strings.Cut(rest, ".")
	name, _, _ = strings.Cut(name, "[")
	return name
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "unique":
		return "must not contain duplicates"
	case "gtefield":
		return "end must not be before start"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
