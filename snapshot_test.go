package decalkit

import (
	"bytes"
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func TestSnapshotJSON(t *testing.T) {
	h := newHarness(t)
	inst := h.place(t, h.registerImage(20, 10), spotA)
	h.SetLocked(inst.ID, true)

	raw, err := h.Snapshot().JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "locked_view", decoded["state"])
	assert.Equal(t, string(inst.ID), decoded["active"])

	decals := decoded["decals"].([]any)
	require.Len(t, decals, 1)
	d := decals[0].(map[string]any)
	assert.Equal(t, "image", d["kind"])
	assert.Equal(t, true, d["locked"])
	assert.Equal(t, map[string]any{"width_cm": 10.0, "height_cm": 5.0}, d["print_size"])

	images := decoded["images"].([]any)
	require.Len(t, images, 1)
	assert.Contains(t, images[0].(map[string]any)["label"], "image-")
}

func TestSnapshotPreview(t *testing.T) {
	h := newHarness(t)
	h.Arm(h.registerImage(10, 10))
	snap := h.Snapshot()
	assert.Equal(t, StateArmed, snap.State)
	assert.NotEmpty(t, snap.Armed)
	assert.Nil(t, snap.Preview)

	h.PointerDown(down(spotA))
	snap = h.Snapshot()
	require.NotNil(t, snap.Preview)
	assert.True(t, snap.Preview.Placed)
	assert.Empty(t, snap.Armed)
	assert.Equal(t, PrintSize{Width: 10, Height: 10}, snap.Preview.PrintSize)
}

func TestThumbnail(t *testing.T) {
	h := newHarness(t)
	c := h.registerImage(40, 20)

	raw, err := h.Thumbnail(c.ID, 0)
	require.NoError(t, err)
	require.Greater(t, len(raw), 12)
	assert.Equal(t, []byte("RIFF"), raw[:4])
	assert.Equal(t, []byte("WEBP"), raw[8:12])

	img, err := webp.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 96, 96), img.Bounds())

	_, err = h.Thumbnail("missing", 32)
	assert.Error(t, err)
	_, err = EncodeThumbnail(image.NewNRGBA(image.Rectangle{}), 32)
	assert.Error(t, err)
}

func TestFitRect(t *testing.T) {
	assert.Equal(t, image.Rect(0, 24, 96, 72), fitRect(image.Rect(0, 0, 40, 20), 96))
	assert.Equal(t, image.Rect(24, 0, 72, 96), fitRect(image.Rect(0, 0, 20, 40), 96))
}
