package descriptor

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"formula/pkg/platform"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	nameRegex   = regexp.MustCompile(`^[a-z0-9]+([-_.][a-z0-9]+)*$`)
	sha256Regex = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// IsValidVersion checks that v is a semantic version. Short forms such
// as "0.4" are accepted, a leading "v" is not.
func IsValidVersion(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}

	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		return false
	}

	_, err := semver.NewVersion(v)
	return err == nil
}

// IsValidSHA256 checks that s is a lowercase hex encoded sha256 sum.
func IsValidSHA256(s string) bool {
	return sha256Regex.MatchString(s)
}

// NewValidator creates a new validator instance.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	validations := map[string]validator.Func{
		"formula_name":     validateName,
		"formula_version":  validateVersion,
		"formula_sha256":   validateSHA256,
		"formula_http_url": validateHttpURL,
		"formula_os":       validateOS,
		"formula_cpu":      validateCPU,
		"formula_bits":     validateBits,
		"formula_bin":      validateBin,
	}

	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, errors.Wrapf(err, "failed to register %s validation", tag)
		}
	}

	return v, nil
}

// Validate checks d against the descriptor schema and verifies that no
// two rules select the same platform.
func Validate(v *validator.Validate, d Descriptor) error {
	var errs ErrorList

	if err := v.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		errs.MustMerge(handleValidatorError(verrs))
	}

	if err := CheckExclusive(d); err != nil {
		errs.MustMerge(err)
	}

	return errs.Err()
}

// handleValidatorError converts validator errors into an ErrorList.
func handleValidatorError(verrs validator.ValidationErrors) error {
	var errs ErrorList
	for _, fe := range verrs {
		msg, ok := FieldDescriptions[fe.StructField()]
		if !ok {
			msg = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
		errs.AddMsg(fieldPath(fe.Namespace()), msg)
	}
	return errs.Err()
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func validateName(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if len(v) < 2 || len(v) > 128 {
		return false
	}
	return nameRegex.MatchString(v)
}

func validateVersion(fl validator.FieldLevel) bool {
	return IsValidVersion(fl.Field().String())
}

func validateSHA256(fl validator.FieldLevel) bool {
	return IsValidSHA256(fl.Field().String())
}

// validateHttpURL checks if a URL starts with http:// or https://.
func validateHttpURL(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")
}

func validateOS(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case platform.OSDarwin, platform.OSLinux:
		return true
	default:
		return false
	}
}

func validateCPU(fl validator.FieldLevel) bool {
	return platform.CPU(fl.Field().String()).Valid()
}

func validateBits(fl validator.FieldLevel) bool {
	switch fl.Field().Int() {
	case 0, 32, 64:
		return true
	default:
		return false
	}
}

func validateBin(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" || v == "." || v == ".." {
		return false
	}
	return !strings.ContainsAny(v, `/\`)
}
