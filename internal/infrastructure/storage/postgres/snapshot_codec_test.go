package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payloadRow struct {
	ItemCode string `json:"itemCode"`
	Note     string `json:"note"`
}

func TestPayloadCodec_SmallPayloadStaysPlain(t *testing.T) {
	c, err := NewPayloadCodec(0)
	require.NoError(t, err)
	defer c.Close()

	data, algo, err := c.Encode([]payloadRow{{ItemCode: "I"}})
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, algo)
	assert.JSONEq(t, `[{"itemCode":"I","note":""}]`, string(data))

	var out []payloadRow
	require.NoError(t, c.Decode(data, algo, &out))
	assert.Equal(t, "I", out[0].ItemCode)
}

func TestPayloadCodec_LargePayloadCompressed(t *testing.T) {
	c, err := NewPayloadCodec(64)
	require.NoError(t, err)
	defer c.Close()

	rows := make([]payloadRow, 50)
	for i := range rows {
		rows[i] = payloadRow{ItemCode: "ITEM", Note: strings.Repeat("x", 40)}
	}

	data, algo, err := c.Encode(rows)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, algo)

	var out []payloadRow
	require.NoError(t, c.Decode(data, algo, &out))
	assert.Equal(t, rows, out)
}

func TestPayloadCodec_UnknownAlgo(t *testing.T) {
	c, err := NewPayloadCodec(0)
	require.NoError(t, err)
	defer c.Close()

	var out []payloadRow
	err = c.Decode([]byte("[]"), CompressionAlgo("lz4"), &out)
	assert.ErrorContains(t, err, "unknown compression algo")
}
