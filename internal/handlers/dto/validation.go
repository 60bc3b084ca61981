package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rafabene/avantpro-accounts/internal/domain/valueobjects"
)

// RegisterValidators registra as validações customizadas no validator do Gin
// e faz os erros usarem o nome do campo JSON
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return valueobjects.IsValidUsername(fl.Field().String())
	})
}

// ValidationErrors converte erros de binding em ValidationError traduzidos.
// Erros que não são de validação (ex: JSON malformado) retornam nil.
func ValidationErrors(c *gin.Context, err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	result := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		params := map[string]interface{}{"Field": fe.Field(), "Param": fe.Param()}

		key := "validation." + fe.Tag()
		message := T(c, key, params)
		if message == key {
			message = T(c, "validation.default", params)
		}

		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: message,
			Tag:     fe.Tag(),
		})
	}
	return result
}
