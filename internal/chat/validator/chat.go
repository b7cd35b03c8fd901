package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"storagechat/pkg/logger"
	"storagechat/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ChatValidator checks the two forms a visitor fills in: the identity gate
// and the inline booking form.
type ChatValidator struct {
	validate   *validator.Validate
	facilities map[string]struct{}
	logger     *logger.Logger
}

func NewChatValidator(log *logger.Logger, facilities []string) *ChatValidator {
	v := validator.New()

	cv := &ChatValidator{
		validate:   v,
		facilities: make(map[string]struct{}, len(facilities)),
		logger:     log,
	}
	for _, f := range facilities {
		cv.facilities[f] = struct{}{}
	}

	// json names keep field errors aligned with the widget's form fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("amount", validateAmount); err != nil {
		log.Fatal("Failed to register 'amount' validator",
			"error", err,
		)
	}

	if err := v.RegisterValidation("facility", cv.validateFacility); err != nil {
		log.Fatal("Failed to register 'facility' validator",
			"error", err,
		)
	}

	log.Info("Chat validator initialized successfully",
		"facilities", len(cv.facilities),
	)

	return cv
}

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// validateAmount accepts a non-negative decimal such as "100" or "49.95".
// Exponents, signs and Inf/NaN spellings are rejected.
func validateAmount(fl validator.FieldLevel) bool {
	return amountPattern.MatchString(fl.Field().String())
}

func (v *ChatValidator) validateFacility(fl validator.FieldLevel) bool {
	_, ok := v.facilities[fl.Field().String()]
	return ok
}

func (v *ChatValidator) ValidateIdentity(identity *model.Identity) error {
	return v.validateStruct(identity)
}

func (v *ChatValidator) ValidateBooking(draft *model.BookingDraft) error {
	return v.validateStruct(draft)
}

func (v *ChatValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ChatValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "amount":
			message = fmt.Sprintf("%s must be a number greater than or equal to 0", err.Field())
		case "facility":
			message = fmt.Sprintf("%s must be one of the listed facilities", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
