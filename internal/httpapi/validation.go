package httpapi

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"classattend/internal/attendance"
)

var registerOnce sync.Once

// registerValidators adds the isodate tag to gin's validator and reports fields by their json names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := attendance.NormalizeDate(fl.Field().String())
			return err == nil
		})
	})
}

// fieldPath drops the top-level struct name: "submitRequest.students[0].student" -> "students[0].student".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "isodate":
		return "must be an ISO date (YYYY-MM-DD) or RFC 3339 timestamp"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
