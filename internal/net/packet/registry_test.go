package packet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got []string
	reg.Register("query", func(from any, msg Message) {
		var body struct {
			Request string `json:"request"`
		}
		require.NoError(t, json.Unmarshal(msg.Raw, &body))
		got = append(got, from.(string)+":"+body.Request)
	})

	require.NoError(t, reg.Dispatch("peer", []byte(`{"type":"query","request":"current_settings"}`)))
	assert.Equal(t, []string{"peer:current_settings"}, got)

	assert.NoError(t, reg.Dispatch("peer", []byte(`{"type":"bogus"}`)), "unknown types are ignored")
	assert.ErrorIs(t, reg.Dispatch("peer", []byte(`{not json`)), ErrInvalidJSON)
	assert.ErrorIs(t, reg.Dispatch("peer", []byte(`[1,2]`)), ErrInvalidJSON)
	assert.Len(t, got, 1)
}

func TestRegistryRecoversPanics(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register("config", func(any, Message) { panic("boom") })

	err := reg.Dispatch(nil, []byte(`{"type":"config"}`))
	assert.ErrorContains(t, err, "boom")
}
