package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skywise/internal/types"
)

type batchBody struct {
	Cities []string `json:"cities" validate:"required,min=1,max=3,dive,required,city_name"`
}

func requireValidationError(t *testing.T, err error, code types.ErrorCode) *types.AppError {
	t.Helper()
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr), "expected *types.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator(discardLogger())

	tests := []struct {
		name      string
		body      batchBody
		wantCode  types.ErrorCode
		wantField string
	}{
		{"valid", batchBody{Cities: []string{"London", "São Paulo"}}, "", ""},
		{"missing", batchBody{}, types.ErrCodeValidationMissingField, "cities"},
		{"empty list", batchBody{Cities: []string{}}, types.ErrCodeValidationMissingField, "cities"},
		{"too many", batchBody{Cities: []string{"a", "b", "c", "d"}}, types.ErrCodeValidationBatchSize, "cities"},
		{"blank entry", batchBody{Cities: []string{"London", ""}}, types.ErrCodeValidationMissingField, "cities[1]"},
		{"bad entry", batchBody{Cities: []string{"<script>"}}, types.ErrCodeValidationInvalidCity, "cities[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.body)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr := requireValidationError(t, err, tt.wantCode)
			fields, ok := appErr.Details["validation_errors"].([]ValidationError)
			require.True(t, ok)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.wantField, fields[0].Field)
			assert.Equal(t, string(tt.wantCode), fields[0].Code)
		})
	}
}

func TestValidateStruct_NonStructIsInternal(t *testing.T) {
	v := NewValidator(discardLogger())
	err := v.ValidateStruct(42)
	requireValidationError(t, err, types.ErrCodeInternalUnexpected)
}

func TestVar(t *testing.T) {
	v := NewValidator(discardLogger())

	assert.NoError(t, v.Var("city", "Rio de Janeiro", "required,city_name"))

	appErr := requireValidationError(t, v.Var("city", "", "required,city_name"), types.ErrCodeValidationMissingField)
	assert.Equal(t, "city is required", appErr.Message)

	requireValidationError(t, v.Var("city", "drop;table", "required,city_name"), types.ErrCodeValidationInvalidCity)

	assert.NoError(t, v.Var("fact", "wind_speed", "fact_name"))
	appErr = requireValidationError(t, v.Var("fact", "Wind Speed", "fact_name"), types.ErrCodeValidationInvalidFacts)
	assert.Contains(t, appErr.Message, "fact")
}

func TestValidFactName(t *testing.T) {
	tests := map[string]bool{
		"temp":               true,
		"precipitation_prob": true,
		"uv_index":           true,
		"":                   false,
		"Temp":               false,
		"wind-speed":         false,
		"temp ":              false,
	}
	for in, want := range tests {
		assert.Equal(t, want, validFactName(in), "validFactName(%q)", in)
	}
}
