package networks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Network
		wantErr bool
	}{
		{"mainnet", Mainnet, false},
		{"testnet", Testnet, false},
		{"", Mainnet, false}, // defaults to mainnet
		{"goerli", "", true},
		{"MAINNET", "", true},
		{"main net", "", true},
	}

	for _, tt := range tests {
		t.Run("input="+tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChainIDMappingIsTotal(t *testing.T) {
	for _, n := range All() {
		assert.NotZero(t, n.ChainID(), "chain ID missing for %s", n)
		assert.NotEmpty(t, n.DefaultRPC(), "default RPC missing for %s", n)
	}
}

func TestChainIDs(t *testing.T) {
	assert.Equal(t, int64(1), Mainnet.ChainID())
	assert.Equal(t, int64(11155111), Testnet.ChainID())
}
