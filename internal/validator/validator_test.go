package validator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holdRequest struct {
	Seats      []string `json:"seats" validate:"required,min=1,max=10,unique,dive,seat"`
	TTLSeconds *int     `json:"ttlSeconds,omitempty" validate:"omitnil,min=1,max=900"`
	Email      string   `validate:"omitempty,email"`
}

func TestNewValidator(t *testing.T) {
	tests := []struct {
		name      string
		input     holdRequest
		wantTag   string
		wantMsg   string
		wantField string
	}{
		{
			name:  "valid request",
			input: holdRequest{Seats: []string{"A1", "B12"}, TTLSeconds: ptr(5)},
		},
		{
			name:      "missing seats",
			input:     holdRequest{},
			wantTag:   "required",
			wantMsg:   ErrRequired,
			wantField: "seats",
		},
		{
			name:    "empty seat list",
			input:   holdRequest{Seats: []string{}},
			wantTag: "min",
			wantMsg: fmt.Sprintf(ErrMinItems, "1"),
		},
		{
			name:    "duplicate seats",
			input:   holdRequest{Seats: []string{"A1", "A1"}},
			wantTag: "unique",
			wantMsg: ErrUniqueItems,
		},
		{
			name:    "lower case row",
			input:   holdRequest{Seats: []string{"a1"}},
			wantTag: "seat",
			wantMsg: ErrSeatLabel,
		},
		{
			name:    "seat number zero",
			input:   holdRequest{Seats: []string{"A0"}},
			wantTag: "seat",
			wantMsg: ErrSeatLabel,
		},
		{
			name:    "ttl zero",
			input:   holdRequest{Seats: []string{"A1"}, TTLSeconds: ptr(0)},
			wantTag: "min",
			wantMsg: fmt.Sprintf(ErrMinValue, "1"),
		},
		{
			name:      "ttl too long",
			input:     holdRequest{Seats: []string{"A1"}, TTLSeconds: ptr(901)},
			wantTag:   "max",
			wantMsg:   fmt.Sprintf(ErrMaxValue, "900"),
			wantField: "ttlSeconds",
		},
		{
			name:      "invalid email",
			input:     holdRequest{Seats: []string{"A1"}, Email: "not-an-email"},
			wantTag:   "email",
			wantMsg:   ErrEmail,
			wantField: "Email",
		},
	}

	v := NewValidator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)

			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}

			var validationErrs validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrs))
			require.Len(t, validationErrs, 1)

			assert.Equal(t, tt.wantTag, validationErrs[0].Tag())
			assert.Equal(t, tt.wantMsg, ValidationMessage(validationErrs[0]))

			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, validationErrs[0].Field())
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
