// Package validation registers the custom binding rules used by request
// structs and provides content sanitizing and email checks.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	slugPattern            = regexp.MustCompile(`^[a-z0-9-]+$`)
	settingKeyPattern      = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	settingCategoryPattern = regexp.MustCompile(`^[a-z_]+$`)

	registerOnce sync.Once
)

// IsSlug reports whether s is a lowercase URL slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// IsSettingKey reports whether s is a valid site setting key.
func IsSettingKey(s string) bool {
	return settingKeyPattern.MatchString(s)
}

// Register installs the custom rules on gin's validator engine and makes
// validation errors report JSON field names. It is safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation("slug", matchString(slugPattern))
		_ = v.RegisterValidation("settingkey", matchString(settingKeyPattern))
		_ = v.RegisterValidation("settingcategory", matchString(settingCategoryPattern))
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}
