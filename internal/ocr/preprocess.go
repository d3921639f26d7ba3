package ocr

import (
	"context"
	"fmt"
	"os"
)

// preprocess writes a grayscale, locally thresholded, lightly sharpened copy of
// in to out. The same input and settings always produce the same output.
func (e *Extractor) preprocess(ctx context.Context, in, out string) error {
	// magick <in> -colorspace Gray -lat 25x25+10% -sharpen 0x1 <out>
	_, errb, err := e.runner.Run(ctx, e.cfg.Magick, e.logger,
		in, "-colorspace", "Gray", "-lat", "25x25+10%", "-sharpen", "0x1", out)
	if err != nil {
		return fmt.Errorf("magick: %w: %s", err, truncate(string(errb), 512))
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return fmt.Errorf("preprocess produced no output: %v", statErr)
	}
	return nil
}
