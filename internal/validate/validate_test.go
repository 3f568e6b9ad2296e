package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "valid", raw: "doctor@example.com", want: "doctor@example.com"},
		{name: "normalized to lower case", raw: "  Doctor@Example.COM ", want: "doctor@example.com"},
		{name: "empty", raw: "", wantErr: true},
		{name: "missing at sign", raw: "doctor.example.com", wantErr: true},
		{name: "missing domain", raw: "doctor@", wantErr: true},
		{name: "over length cap", raw: strings.Repeat("a", 250) + "@x.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reasons := Email(tt.raw)
			if tt.wantErr {
				require.NotEmpty(t, reasons)
				return
			}
			require.Empty(t, reasons)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "international", raw: "+12345678901", want: "+12345678901"},
		{name: "digits only", raw: "5551234567", want: "5551234567"},
		{name: "formatting stripped", raw: "+1 (555) 123-4567", want: "+15551234567"},
		{name: "empty", raw: "", wantErr: true},
		{name: "letters", raw: "555CALLNOW", wantErr: true},
		{name: "too long", raw: "+1234567890123456", wantErr: true},
		{name: "plus in the middle", raw: "123+456", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reasons := Phone(tt.raw)
			if tt.wantErr {
				require.NotEmpty(t, reasons)
				return
			}
			require.Empty(t, reasons)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLicense(t *testing.T) {
	t.Run("uppercases valid input", func(t *testing.T) {
		got, reasons := License("md12345")
		require.Empty(t, reasons)
		assert.Equal(t, "MD12345", got)
	})

	t.Run("too short", func(t *testing.T) {
		_, reasons := License("MD1")
		require.Len(t, reasons, 1)
		assert.Contains(t, reasons[0], "between 5 and 20")
	})

	t.Run("too long", func(t *testing.T) {
		_, reasons := License(strings.Repeat("A", 21))
		require.Len(t, reasons, 1)
	})

	t.Run("bad characters and bad length both reported", func(t *testing.T) {
		_, reasons := License("a-1")
		assert.Len(t, reasons, 2)
	})

	t.Run("empty", func(t *testing.T) {
		_, reasons := License("")
		require.Len(t, reasons, 1)
	})
}

func TestZip(t *testing.T) {
	for _, valid := range []string{"12345", "12345-6789"} {
		_, reasons := Zip(valid)
		assert.Empty(t, reasons, valid)
	}
	for _, invalid := range []string{"", "1234", "123456", "12345-678", "ABCDE", "12345 6789"} {
		_, reasons := Zip(invalid)
		assert.NotEmpty(t, reasons, invalid)
	}
}

func TestName(t *testing.T) {
	t.Run("title-cases on success", func(t *testing.T) {
		got, reasons := Name("maRY anN", "First name")
		require.Empty(t, reasons)
		assert.Equal(t, "Mary Ann", got)
	})

	t.Run("keeps apostrophes and hyphens", func(t *testing.T) {
		got, reasons := Name("o'brien-smith", "Last name")
		require.Empty(t, reasons)
		assert.Equal(t, "O'brien-smith", got)
	})

	t.Run("single character", func(t *testing.T) {
		_, reasons := Name("a", "First name")
		require.Len(t, reasons, 1)
		assert.Contains(t, reasons[0], "First name")
	})

	t.Run("digits rejected", func(t *testing.T) {
		_, reasons := Name("John3", "First name")
		require.NotEmpty(t, reasons)
	})

	t.Run("length counts characters, not bytes", func(t *testing.T) {
		// One rune, two bytes: still too short.
		_, reasons := Name("é", "First name")
		require.Len(t, reasons, 2)
		assert.Contains(t, reasons[0], "between 2 and 50 characters")
	})

	t.Run("required", func(t *testing.T) {
		_, reasons := Name("  ", "City")
		require.Equal(t, []string{"City is required."}, reasons)
	})
}

func TestSpecialization(t *testing.T) {
	got, reasons := Specialization(" Cardiology ")
	require.Empty(t, reasons)
	assert.Equal(t, "cardiology", got)

	_, reasons = Specialization("astrology")
	require.NotEmpty(t, reasons)

	_, reasons = Specialization("")
	require.NotEmpty(t, reasons)
}

func TestYearsOfExperience(t *testing.T) {
	assert.Empty(t, YearsOfExperience(0))
	assert.Empty(t, YearsOfExperience(50))
	assert.NotEmpty(t, YearsOfExperience(-1))
	assert.NotEmpty(t, YearsOfExperience(51))
}

func TestFieldErrors(t *testing.T) {
	fe := make(FieldErrors)
	assert.True(t, fe.Empty())

	fe.Add("email")
	assert.True(t, fe.Empty(), "adding zero reasons must not create the key")

	fe.Add("email", "Invalid email format.")
	fe.Add("email", "Another reason.")
	assert.False(t, fe.Empty())
	assert.Len(t, fe["email"], 2)
}
