package orders

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlaceOrder(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		min     int
		wantErr bool
		want    string
	}{
		{"valid", testAddr, 10, false, testAddr},
		{"trimmed", "   " + testAddr + "\n", 10, false, testAddr},
		{"empty", "   ", 10, true, ""},
		{"too short", "1 Main St", 10, true, ""},
		{"exact minimum", "1 Main St.", 10, false, "1 Main St."},
		{"default minimum", "short", 0, true, ""},
		{"multibyte counted as runes", "東京都港区六本木一丁目", 10, false, "東京都港区六本木一丁目"},
		{"too long", strings.Repeat("a", MaxAddressLength+1), 10, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePlaceOrder(PlaceOrderInput{ShippingAddr: tt.addr}, tt.min)
			if tt.wantErr {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "shipping_addr", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ShippingAddr)
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, ValidateQuantity(1))
	assert.NoError(t, ValidateQuantity(MaxLineQuantity))
	assert.Error(t, ValidateQuantity(0))
	assert.Error(t, ValidateQuantity(-3))
	assert.Error(t, ValidateQuantity(MaxLineQuantity+1))
}

func TestErrorMessages(t *testing.T) {
	err := &InsufficientStockError{Name: "Widget", Available: 2, Requested: 5}
	assert.Equal(t, "Not enough stock for Widget. Available: 2, Requested: 5", err.Error())

	assert.True(t, IsBusinessError(errors.Wrap(ErrEmptyCart, "checkout")))
	assert.True(t, IsBusinessError(&ProductUnavailableError{Name: "Widget"}))
	assert.False(t, IsBusinessError(errors.New("connection refused")))
}
