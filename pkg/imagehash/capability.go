package imagehash

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// Capability は起動時に一度だけ判定したデコーダーの利用可否です。
type Capability struct {
	PNG  bool
	JPEG bool
}

// CanHash は少なくとも一つの形式をデコードできるかどうかを返すのだ。
func (c Capability) CanHash() bool {
	return c.PNG || c.JPEG
}

// DetectCapability は 1x1 の画像を実際にエンコード・デコードして各形式の可否を調べます。
func DetectCapability() Capability {
	probe := image.NewRGBA(image.Rect(0, 0, 1, 1))
	probe.Set(0, 0, color.RGBA{R: 128, G: 64, B: 32, A: 255})

	var c Capability

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, probe); err == nil {
		_, err = png.Decode(&pngBuf)
		c.PNG = err == nil
	}

	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, probe, nil); err == nil {
		_, err = jpeg.Decode(&jpegBuf)
		c.JPEG = err == nil
	}

	return c
}
