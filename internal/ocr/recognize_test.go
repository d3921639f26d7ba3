package ocr_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/ocr"
	"github.com/joseph-ayodele/tradedocs/internal/ocr/mocks"
	"github.com/joseph-ayodele/tradedocs/internal/testutil"
)

const pageText = "AJ1323 - BLACK LEATHER\nWholesale: EUR 220.00\nColors 39 40 41 42 Qty\nBLACK BLACK 1 1 2 2 6"

func TestExtractor_RecognizePage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("both modes kept separate, preprocessed once", func(t *testing.T) {
		work := t.TempDir()
		raw := filepath.Join(work, "page-1.png")
		pre := filepath.Join(work, "page-1.pre.png")
		runner := mocks.NewMockRunner(ctrl)
		gomock.InOrder(
			runner.EXPECT().
				Run(gomock.Any(), "magick", gomock.Any(), raw, "-colorspace", "Gray", "-lat", "25x25+10%", "-sharpen", "0x1", pre).
				DoAndReturn(func(_ context.Context, _ string, _ *slog.Logger, _ ...string) ([]byte, []byte, error) {
					testutil.Touch(t, pre)
					return nil, nil, nil
				}),
			runner.EXPECT().
				Run(gomock.Any(), "tesseract", gomock.Any(), pre, "stdout", "-l", "eng", "--psm", "3").
				Return([]byte("general\r\ntext  here\n"), nil, nil),
			runner.EXPECT().
				Run(gomock.Any(), "tesseract", gomock.Any(), pre, "stdout", "-l", "eng", "--psm", "6", "-c", "preserve_interword_spaces=1").
				Return([]byte(pageText), nil, nil),
		)

		ex := ocr.NewExtractor(ocr.Config{Preprocess: true}, slog.Default(), ocr.WithRunner(runner))
		got := ex.RecognizePage(context.Background(), entity.RawPage{Index: 0, Path: raw}, []ocr.Mode{ocr.ModeGeneral, ocr.ModeTabular})

		assert.Equal(t, 0, got.Index)
		assert.Equal(t, "general\ntext here", got.General)
		assert.Equal(t, pageText, got.Tabular)
		assert.False(t, got.Empty())
	})

	t.Run("recognition failure yields empty text, not an error", func(t *testing.T) {
		runner := mocks.NewMockRunner(ctrl)
		runner.EXPECT().
			Run(gomock.Any(), "tesseract", gomock.Any(), gomock.Any()).
			Return(nil, []byte("Error in pixReadStream"), errors.New("exit status 1"))

		ex := ocr.NewExtractor(ocr.Config{}, slog.Default(), ocr.WithRunner(runner))
		got := ex.RecognizePage(context.Background(), entity.RawPage{Index: 3, Path: "x.png"}, []ocr.Mode{ocr.ModeGeneral})

		assert.True(t, got.Empty())
		assert.Equal(t, float32(0), got.Confidence)
	})

	t.Run("preprocess failure falls back to the raw image", func(t *testing.T) {
		runner := mocks.NewMockRunner(ctrl)
		runner.EXPECT().Run(gomock.Any(), "magick", gomock.Any(), gomock.Any()).Return(nil, nil, errors.New("not installed"))
		runner.EXPECT().
			Run(gomock.Any(), "tesseract", gomock.Any(), "raw.png", "stdout", "-l", "deu", "--psm", "3").
			Return([]byte(pageText), nil, nil)

		ex := ocr.NewExtractor(ocr.Config{Preprocess: true, TesseractLang: "deu"}, slog.Default(), ocr.WithRunner(runner))
		got := ex.Recognize(context.Background(), entity.RawPage{Path: "raw.png"}, ocr.ModeGeneral)

		assert.Equal(t, pageText, got)
	})
}

func TestParseModes(t *testing.T) {
	modes, err := ocr.ParseModes([]string{"tabular", "general", "tabular"})
	assert.NoError(t, err)
	assert.Equal(t, []ocr.Mode{ocr.ModeTabular, ocr.ModeGeneral}, modes)

	modes, err = ocr.ParseModes(nil)
	assert.NoError(t, err)
	assert.Equal(t, []ocr.Mode{ocr.ModeGeneral}, modes)

	_, err = ocr.ParseModes([]string{"cursive"})
	assert.Error(t, err)
}

func TestExtractor_RecognizePage_PageTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), "tesseract", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ *slog.Logger, _ ...string) ([]byte, []byte, error) {
			<-ctx.Done()
			return nil, nil, ctx.Err()
		}).
		Times(2)

	ex := ocr.NewExtractor(ocr.Config{PageTimeout: 50 * time.Millisecond}, slog.Default(), ocr.WithRunner(runner))
	start := time.Now()
	got := ex.RecognizePage(context.Background(), entity.RawPage{Index: 2, Path: "slow.png"}, []ocr.Mode{ocr.ModeGeneral, ocr.ModeTabular})

	assert.True(t, got.Empty())
	assert.Equal(t, 2, got.Index)
	assert.Less(t, time.Since(start), 5*time.Second)
}
