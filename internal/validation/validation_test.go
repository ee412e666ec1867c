package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid lowercase", "0x1234567890abcdef1234567890abcdef12345678", false},
		{"valid uppercase hex", "0x1234567890ABCDEF1234567890ABCDEF12345678", false},
		{"valid mixed case", "0xDeAdBeEf00000000000000000000000000000000", false},
		{"empty", "", true},
		{"missing prefix", "1234567890abcdef1234567890abcdef12345678", true},
		{"too short", "0x1234", true},
		{"too long", "0x1234567890abcdef1234567890abcdef123456789", true},
		{"non-hex characters", "0x1234567890abcdef1234567890abcdef1234567g", true},
		{"whitespace", "0x1234567890abcdef1234567890abcdef1234567 ", true},
		{"prefix only", "0x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress("0xDeAdBeEf00000000000000000000000000000000")
	assert.Equal(t, "0xdeadbeef00000000000000000000000000000000", got)
	assert.Equal(t, got, strings.ToLower(got))
}
