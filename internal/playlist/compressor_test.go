package playlist

import (
	"bytes"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypanel/internal/models"
	"storypanel/internal/playlist/interfaces"
)

func newCodec(t *testing.T) interfaces.CompressorInterface {
	t.Helper()
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func encodedSnapshot(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(models.PlaylistSnapshot{
		Version:   models.SnapshotVersion,
		City:      "tehran",
		FetchedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Groups: []models.StoryGroup{{ID: 1, Title: "لابی", Slides: []models.Slide{
			{ID: 2, ImageURL: "/uploads/2.jpg", Elements: models.Elements{{Type: models.ElementText, X: 50, Y: 20, Content: "خوش آمدید"}}},
		}}},
	})
	require.NoError(t, err)
	return raw
}

func TestZstdCompression_Roundtrip(t *testing.T) {
	c := newCodec(t)

	cases := map[string][]byte{
		"snapshot":   encodedSnapshot(t),
		"empty":      {},
		"repetitive": bytes.Repeat([]byte(`{"type":"link","x":50,"y":80}`), 30_000),
	}
	for name, original := range cases {
		t.Run(name, func(t *testing.T) {
			packed, err := c.Compress(original)
			require.NoError(t, err)

			unpacked, err := c.Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, len(original), len(unpacked))
			assert.True(t, bytes.Equal(original, unpacked))
		})
	}
}

func TestZstdCompression_ShrinksElementLists(t *testing.T) {
	original := bytes.Repeat([]byte(`{"type":"link","x":50,"y":80}`), 30_000)

	packed, err := newCodec(t).Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(original)/10)
}

func TestZstdCompression_RejectsGarbage(t *testing.T) {
	c := newCodec(t)

	for _, junk := range [][]byte{
		[]byte("not valid zstd data"),
		{0xff, 0xfe, 0xfd, 0xfc, 0x00, 0x01},
		encodedSnapshot(t),
	} {
		_, err := c.Decompress(junk)
		assert.Error(t, err)
	}
}

func TestZstdCompression_ChecksumMismatch(t *testing.T) {
	c := newCodec(t)

	packed, err := c.Compress([]byte(`{"version":1,"city":"tehran","groups":[]}`))
	require.NoError(t, err)

	// the frame ends with the content checksum
	packed[len(packed)-1] ^= 0xff
	_, err = c.Decompress(packed)
	assert.Error(t, err)
}
