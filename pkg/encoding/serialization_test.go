package encoding_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/binprot/pkg/encoding"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

func TestFuncCodec(t *testing.T) {
	var c encoding.Codec = encoding.FuncCodec{Format: "json", MarshalFunc: json.Marshal, UnmarshalFunc: json.Unmarshal}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	var out map[string]int
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, map[string]int{"a": 1}, out)
}

func TestCodecs_AreInterchangeable(t *testing.T) {
	codecs := []encoding.Codec{
		binprot.Codec(),
		encoding.FuncCodec{Format: "json", MarshalFunc: json.Marshal, UnmarshalFunc: json.Unmarshal},
	}
	for _, c := range codecs {
		data, err := c.Marshal(int64(1000))
		require.NoError(t, err, c.Name())

		var n int64
		require.NoError(t, c.Unmarshal(data, &n), c.Name())
		assert.Equal(t, int64(1000), n, c.Name())
	}
}
