package serialization_test

import (
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/serialization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestJSONCodecRoundTrips(t *testing.T) {
	codec := serialization.NewJSONCodec[sample]()
	in := sample{Name: "pig5", Count: 3}

	encoded, err := codec.Encode(in)
	require.NoError(t, err)

	out, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestYAMLCodecRoundTrips(t *testing.T) {
	codec := serialization.NewYAMLCodec[sample]()
	in := sample{Name: "pig5", Count: 3}

	encoded, err := codec.Encode(in)
	require.NoError(t, err)

	out, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMsgPackCodecIsUnimplemented(t *testing.T) {
	codec := serialization.NewMsgPackCodec[sample]()

	_, err := codec.Encode(sample{})
	assert.Error(t, err)

	_, err = codec.Decode([]byte{})
	assert.Error(t, err)
}
