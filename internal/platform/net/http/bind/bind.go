// Package bind provides JSON bind and validation helpers for handlers and
// inbound bus messages
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// ValidatorSvc holds a singleton validator and translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce    sync.Once
	vSvc     *ValidatorSvc
	jsonMore = func(dec *json.Decoder) bool { return dec.More() } // seam
)

// offender numbers look like A1234BC
var offenderNoRe = regexp.MustCompile(`^[A-Z][0-9]{4}[A-Z]{2}$`)

// Get returns the validator singleton with english translations and json tag names
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")

		_ = v.RegisterValidation("offender_no", func(fl validator.FieldLevel) bool {
			return offenderNoRe.MatchString(fl.Field().String())
		})
		registerShort(v, trans, "offender_no", "{0} must be an offender number like A1234BC")

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

// Struct validates v and maps failures to a validation error naming the first field
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.JSONErrf("validation error")
	}
	field, msg := ValidationFieldAndMessage(err)
	return perr.WithField(perr.Validationf("%s", msg), field)
}

// Var validates a single value against tag and names field in the failure
func Var(field string, v any, tag string) error {
	if err := Get().Validator.Var(v, tag); err != nil {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			logger.Get().Error().Err(inv).Str("tag", tag).Msg("validator internal error")
			return perr.JSONErrf("validation error")
		}
		return perr.WithField(perr.InvalidArgf("invalid %s %v", field, v), field)
	}
	return nil
}

// Decode unmarshals a JSON payload into T and validates it
func Decode[T any](data []byte) (T, error) {
	var dst T
	if len(bytes.TrimSpace(data)) == 0 {
		return dst, perr.JSONErrf("empty payload")
	}
	if err := json.Unmarshal(data, &dst); err != nil {
		var zero T
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if err := Struct(dst); err != nil {
		var zero T
		return zero, err
	}
	return dst, nil
}

// JSONOptions controls parsing behavior
type JSONOptions struct {
	MaxBytes        int64 // default 1MB
	DisallowUnknown bool  // default true
	AllowEmptyBody  bool  // default false
}

func defaultJSONOptions() JSONOptions {
	return JSONOptions{
		MaxBytes:        1 << 20,
		DisallowUnknown: true,
	}
}

// ParseJSON decodes a request body into T, validates it, and maps failures to project errors
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := defaultJSONOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("failed to close request body")
		}
	}()

	var reader io.Reader
	if !o.AllowEmptyBody {
		buf := make([]byte, 1)
		n, _ := r.Body.Read(buf)
		if n == 0 {
			return zero, perr.JSONErrf("empty body")
		}
		reader = io.MultiReader(bytes.NewReader(buf[:n]), r.Body)
	} else {
		reader = r.Body
	}
	if o.MaxBytes > 0 {
		reader = io.LimitReader(reader, o.MaxBytes)
	}

	dec := json.NewDecoder(reader)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		if o.AllowEmptyBody && errors.Is(err, io.EOF) {
			return dst, nil
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Struct(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// ValidationFieldAndMessage returns the first field and translated message
func ValidationFieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
