package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	TeamID string `json:"teamId" validate:"required"`
	Level  string `mapstructure:"level" validate:"oneof=debug info"`
	Note   string `validate:"required"`
}

func TestCreate_UsesTagNames(t *testing.T) {
	err := Create().Validate(body{Level: "loud"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.Equal(t, []string{"teamId", "level", "Note"}, fields)
}

func TestCreate_Valid(t *testing.T) {
	assert.NoError(t, Create().Validate(body{TeamID: "alpha", Level: "info", Note: "x"}))
}
