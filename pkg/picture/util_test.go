package picture

import (
	"bytes"
	"image"
	_ "image/jpeg"
)

func decodeConfig(b []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(b))
}
