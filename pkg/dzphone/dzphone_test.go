package dzphone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/pkg/dzphone"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "national mobile", raw: "0550123456", want: "0550123456"},
		{name: "spaces and dashes", raw: "0550 12-34 56", want: "0550123456"},
		{name: "international plus", raw: "+213 550 12 34 56", want: "0550123456"},
		{name: "international double zero", raw: "00213661234567", want: "0661234567"},
		{name: "country code with trunk zero", raw: "+2130770123456", want: "0770123456"},
		{name: "missing leading zero", raw: "550123456", want: "0550123456"},
		{name: "landline", raw: "021 23 45 67", want: "021234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dzphone.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []string{"", "12345", "0850123456", "05501234567", "abc"} {
		t.Run(raw, func(t *testing.T) {
			_, err := dzphone.Normalize(raw)
			assert.ErrorIs(t, err, dzphone.ErrInvalid)
		})
	}
}

func TestIsMobile(t *testing.T) {
	assert.True(t, dzphone.IsMobile("0661234567"))
	assert.False(t, dzphone.IsMobile("021234567"))
}
