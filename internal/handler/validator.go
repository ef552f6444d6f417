package handler

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// CustomValidator plugs go-playground/validator into echo.  Field names in
// the returned errors follow the json tags.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the validator registered on the echo instance.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate returns validator.ValidationErrors unchanged so handlers can
// translate them with fieldErrors.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// fieldError is one entry of a 400 validation response.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationMessages maps field and failed tag to the message clients see.
var validationMessages = map[string]string{
	"passenger|required":          "passenger is required",
	"passenger.username|required": "username is required",
	"passenger.username|min":      "username must be at least 5 characters",
	"passenger.email|required":    "email is required",
	"passenger.email|email":       "email is not valid",
	"passenger.phone|required":    "Phone number is required",
	"passenger.phone|len":         "Phone number is not valid",
	"passenger.phone|number":      "Phone number is not valid",
	"username|required":           "username is required",
	"password|required":           "password is required",
}

// fieldErrors converts a Validate error into wire entries, one per field.
func fieldErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:] // drop the struct name
		}
		msg, ok := validationMessages[field+"|"+fe.Tag()]
		if !ok {
			msg = field + " is not valid"
		}
		out = append(out, fieldError{Field: field, Message: msg})
	}
	return out
}

// parseSeatNumber accepts a JSON number or a numeric string and checks it
// names a seat on the bus.  Only the first failing check is reported.
func parseSeatNumber(raw json.RawMessage) (int, *fieldError) {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, &fieldError{Field: "seat_number", Message: "Invalid seat number, please select seat number from 1 to 40"}
		}
		s = strings.TrimSpace(str)
	}
	if s == "" || s == "null" {
		return 0, &fieldError{Field: "seat_number", Message: "seat number is required"}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &fieldError{Field: "seat_number", Message: "Invalid seat number, please select seat number from 1 to 40"}
	}
	if f != math.Trunc(f) || f < model.MinSeatNumber || f > model.MaxSeatNumber {
		return 0, &fieldError{Field: "seat_number", Message: "please select seat number from 1 to 40"}
	}
	return int(f), nil
}
