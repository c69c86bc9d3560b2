// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gatherhall/events-service/pkg/dates"
)

// validate is the shared validator instance with the domain-specific
// rules registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// wallclock: "HH:MM" 24h wall time in the site timezone.
	_ = v.RegisterValidation("wallclock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})

	// datekey: canonical "YYYY-MM-DD" calendar date.
	_ = v.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		_, err := dates.ParseDateKey(fl.Field().String())
		return err == nil
	})

	return v
}
