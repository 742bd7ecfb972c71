package qrlink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableURL(t *testing.T) {
	b := Builder{BaseURL: "https://menu.example.com/"}

	link, err := b.TableURL("mario-group", "trattoria-roma", "t42")
	require.NoError(t, err)
	assert.Equal(t, "https://menu.example.com/mario-group/trattoria-roma?table=t42", link)
}

func TestTableURLEscapesSlugs(t *testing.T) {
	b := Builder{BaseURL: "https://menu.example.com"}

	link, err := b.TableURL("mario group", "café", "t 1")
	require.NoError(t, err)
	assert.Contains(t, link, "mario%20group")
	assert.Contains(t, link, "caf%C3%A9")
	assert.Contains(t, link, "table=t+1")
}

func TestTableURLValidation(t *testing.T) {
	_, err := Builder{}.TableURL("o", "v", "t")
	assert.Error(t, err)

	_, err = Builder{BaseURL: "https://x"}.TableURL("", "v", "t")
	assert.Error(t, err)
}

func TestEncodePNG(t *testing.T) {
	png, err := EncodePNG("https://menu.example.com/o/v?table=t1", Options{Size: 128})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.True(t, bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}), "output is not a PNG")
}

func TestEncodePNGEmptyLink(t *testing.T) {
	_, err := EncodePNG("", Options{})
	assert.Error(t, err)
}
