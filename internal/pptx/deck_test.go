// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) Image {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		m.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	img, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	return img
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(b)
	}
	return parts
}

func TestDecodeImage(t *testing.T) {
	img := pngImage(t, 40, 30)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 30, img.Height)

	_, err := DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestDeckWrite(t *testing.T) {
	d := NewDeck(SizeFromPoints(720, 540))
	d.Title = `Q3 <Review> & "Plans"`
	require.NoError(t, d.AddImage(pngImage(t, 80, 60)))
	require.NoError(t, d.AddImage(pngImage(t, 60, 80)))
	assert.Equal(t, 2, d.Len())

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))
	parts := readZip(t, buf.Bytes())

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide2.xml.rels",
		"ppt/media/image1.png",
		"ppt/media/image2.png",
	} {
		assert.Contains(t, parts, name)
	}

	// Every XML part must be well-formed.
	for name, body := range parts {
		if !strings.HasSuffix(name, ".xml") && !strings.HasSuffix(name, ".rels") {
			continue
		}
		dec := xml.NewDecoder(strings.NewReader(body))
		for {
			_, err := dec.Token()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, "part %s", name)
		}
	}

	pres := parts["ppt/presentation.xml"]
	assert.Equal(t, 2, strings.Count(pres, "<p:sldId "))
	assert.Contains(t, pres, `<p:sldSz cx="9144000" cy="6858000"/>`)
	assert.Contains(t, pres, `r:id="rId7"`)

	assert.Contains(t, parts["ppt/_rels/presentation.xml.rels"], `Id="rId7"`)
	assert.Contains(t, parts["ppt/_rels/presentation.xml.rels"], `Target="slides/slide2.xml"`)
	assert.Contains(t, parts["[Content_Types].xml"], `/ppt/slides/slide2.xml`)
	assert.Contains(t, parts["[Content_Types].xml"], `Extension="png"`)
	assert.NotContains(t, parts["[Content_Types].xml"], `Extension="jpeg"`)
	assert.Contains(t, parts["docProps/core.xml"], "Q3 &lt;Review&gt; &amp; &#34;Plans&#34;")
	assert.Contains(t, parts["docProps/app.xml"], "<Slides>2</Slides>")
	assert.Contains(t, parts["ppt/slides/_rels/slide2.xml.rels"], "../media/image2.png")
}

func TestDeckAddImage_Fit(t *testing.T) {
	// 4:3 slide, 2:1 picture: full width, letterboxed vertically.
	d := NewDeck(9144000, 6858000)
	require.NoError(t, d.AddImage(pngImage(t, 200, 100)))

	s := d.slides[0]
	assert.Equal(t, int64(9144000), s.CX)
	assert.Equal(t, int64(4572000), s.CY)
	assert.Equal(t, int64(0), s.X)
	assert.Equal(t, int64(1143000), s.Y)

	// Portrait picture: full height, pillarboxed.
	require.NoError(t, d.AddImage(pngImage(t, 100, 200)))
	s = d.slides[1]
	assert.Equal(t, int64(6858000), s.CY)
	assert.Equal(t, int64(3429000), s.CX)
	assert.Equal(t, int64((9144000-3429000)/2), s.X)
	assert.Equal(t, int64(0), s.Y)
}

func TestDeckAddImage_Invalid(t *testing.T) {
	d := NewDeck(DefaultWidth, DefaultHeight)
	assert.Error(t, d.AddImage(Image{Format: "gif", Width: 10, Height: 10}))
	assert.Error(t, d.AddImage(Image{Format: "png", Width: 0, Height: 10}))
	assert.Equal(t, 0, d.Len())
}

func TestDeckWrite_Empty(t *testing.T) {
	d := NewDeck(DefaultWidth, DefaultHeight)
	assert.ErrorIs(t, d.Write(io.Discard), ErrEmptyDeck)
}

func TestNewDeck_Clamp(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int64
		wantW, wantH int64
	}{
		{"within range", DefaultWidth, DefaultHeight, DefaultWidth, DefaultHeight},
		{"too small", 1000, 0, MinSlideEMU, MinSlideEMU},
		{"too large", MaxSlideEMU * 2, MaxSlideEMU + 1, MaxSlideEMU, MaxSlideEMU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := NewDeck(tt.w, tt.h).Size()
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestDeckWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	d := NewDeck(DefaultWidth, DefaultHeight)
	require.NoError(t, d.AddImage(pngImage(t, 16, 9)))
	require.NoError(t, d.WriteFile(path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Equal(t, "[Content_Types].xml", zr.File[0].Name)
}
