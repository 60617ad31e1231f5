package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderValidate(t *testing.T) {
	cases := []struct {
		name  string
		order Order
		want  error
	}{
		{"student order", Order{Orderer: StudentOrderer{StudentID: 1}, ItemID: 1, Quantity: 1}, nil},
		{"teacher order", Order{Orderer: TeacherOrderer{TeacherID: 2}, ItemID: 1, Quantity: 3}, nil},
		{"no orderer", Order{ItemID: 1, Quantity: 1}, ErrMissingOrderer},
		{"zero student id", Order{Orderer: StudentOrderer{}, ItemID: 1, Quantity: 1}, ErrMissingOrderer},
		{"zero teacher id", Order{Orderer: TeacherOrderer{}, ItemID: 1, Quantity: 1}, ErrMissingOrderer},
		{"zero quantity", Order{Orderer: StudentOrderer{StudentID: 1}, ItemID: 1, Quantity: 0}, ErrInvalidQuantity},
		{"negative quantity", Order{Orderer: TeacherOrderer{TeacherID: 1}, ItemID: 1, Quantity: -2}, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.order.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateName(t *testing.T) {
	got, err := ValidateName("  Ms. Lee ")
	require.NoError(t, err)
	assert.Equal(t, "Ms. Lee", got)

	_, err = ValidateName("   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = ValidateName(strings.Repeat("x", 256))
	assert.Error(t, err)
}
