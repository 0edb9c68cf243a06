package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Name     string `json:"name" validate:"required"`
	Start    string `json:"start_time" validate:"omitempty,clocktime"`
	Date     string `json:"date" validate:"omitempty,isodate"`
	Password string `json:"password" validate:"min=8"`
	Confirm  string `json:"password_confirm" validate:"eqfield=Password"`
	Role     string `json:"role" validate:"oneof=admin instructor student"`
}

func TestStruct(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := Struct(form{Name: "x", Start: "09:30", Date: "2025-06-01", Password: "longenough", Confirm: "longenough", Role: "student"})
		assert.NoError(t, err)
	})

	t.Run("FieldNamesAndMessages", func(t *testing.T) {
		err := Struct(form{Start: "9h30", Date: "01/06/2025", Password: "short", Confirm: "other", Role: "dean"})
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "this field is required", fe["name"])
		assert.Equal(t, "start_time must be a time formatted HH:MM", fe["start_time"])
		assert.Equal(t, "date must be a date formatted YYYY-MM-DD", fe["date"])
		assert.Equal(t, "passwords don't match", fe["password_confirm"])
		assert.Contains(t, fe, "password")
		assert.Contains(t, fe, "role")
	})

	t.Run("ErrorIsSortedAndStable", func(t *testing.T) {
		err := FieldErrors{"b": "two", "a": "one"}
		assert.Equal(t, "a: one; b: two", err.Error())
	})
}

func TestParseClock(t *testing.T) {
	for _, s := range []string{"09:30", "09:30:00", "23:59"} {
		_, err := ParseClock(s)
		assert.NoError(t, err, s)
	}
	for _, s := range []string{"", "24:00", "9.30", "noon"} {
		_, err := ParseClock(s)
		assert.Error(t, err, s)
	}
}
