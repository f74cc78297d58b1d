package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// subdomainRe matches a single RFC 1123 DNS label. The subdomain becomes a
// label under the base domain, so underscores and uppercase are out.
var subdomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// RegisterValidations installs custom binding validators on gin's engine.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
			return subdomainRe.MatchString(fl.Field().String())
		})
	}
}
