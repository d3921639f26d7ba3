package ocr_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/ocr"
	"github.com/joseph-ayodele/tradedocs/internal/ocr/mocks"
	"github.com/joseph-ayodele/tradedocs/internal/testutil"
)

func TestExtractor_Rasterize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("renders pages in page order", func(t *testing.T) {
		dir := t.TempDir()
		pdf := testutil.WritePDF(t, dir, 3)
		work := t.TempDir()
		runner := mocks.NewMockRunner(ctrl)
		runner.EXPECT().
			Run(gomock.Any(), "pdftoppm", gomock.Any(), "-r", "300", "-png", "-f", "1", "-l", "3", pdf, filepath.Join(work, "page")).
			DoAndReturn(func(_ context.Context, _ string, _ *slog.Logger, _ ...string) ([]byte, []byte, error) {
				for _, name := range []string{"page-3.png", "page-1.png", "page-2.png"} {
					testutil.Touch(t, filepath.Join(work, name))
				}
				return nil, nil, nil
			})

		ex := ocr.NewExtractor(ocr.Config{}, slog.Default(), ocr.WithRunner(runner))
		pages, err := ex.Rasterize(context.Background(), pdf, work)

		require.NoError(t, err)
		require.Len(t, pages, 3)
		for i, p := range pages {
			assert.Equal(t, i, p.Index)
			assert.Equal(t, filepath.Join(work, "page-"+string(rune('1'+i))+".png"), p.Path)
		}
	})

	t.Run("max pages caps the render range", func(t *testing.T) {
		pdf := testutil.WritePDF(t, t.TempDir(), 5)
		work := t.TempDir()
		runner := mocks.NewMockRunner(ctrl)
		runner.EXPECT().
			Run(gomock.Any(), "pdftoppm", gomock.Any(), "-r", "150", "-png", "-f", "1", "-l", "2", pdf, filepath.Join(work, "page")).
			DoAndReturn(func(_ context.Context, _ string, _ *slog.Logger, _ ...string) ([]byte, []byte, error) {
				testutil.Touch(t, filepath.Join(work, "page-1.png"))
				testutil.Touch(t, filepath.Join(work, "page-2.png"))
				return nil, nil, nil
			})

		ex := ocr.NewExtractor(ocr.Config{DPI: 150, MaxPages: 2}, slog.Default(), ocr.WithRunner(runner))
		pages, err := ex.Rasterize(context.Background(), pdf, work)

		require.NoError(t, err)
		assert.Len(t, pages, 2)
	})

	t.Run("corrupt pdf is a conversion error and never renders", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.pdf")
		require.NoError(t, os.WriteFile(bad, []byte("this is not a pdf"), 0o644))
		runner := mocks.NewMockRunner(ctrl)

		ex := ocr.NewExtractor(ocr.Config{}, slog.Default(), ocr.WithRunner(runner))
		pages, err := ex.Rasterize(context.Background(), bad, t.TempDir())

		require.Error(t, err)
		assert.Nil(t, pages)
		assert.True(t, common.IsConversionError(err))
		assert.ErrorIs(t, err, common.ErrConversion)
	})

	t.Run("render failure is a conversion error", func(t *testing.T) {
		pdf := testutil.WritePDF(t, t.TempDir(), 1)
		runner := mocks.NewMockRunner(ctrl)
		runner.EXPECT().
			Run(gomock.Any(), "pdftoppm", gomock.Any(), gomock.Any()).
			Return(nil, []byte("Syntax Error"), errors.New("exit status 1"))

		ex := ocr.NewExtractor(ocr.Config{}, slog.Default(), ocr.WithRunner(runner))
		_, err := ex.Rasterize(context.Background(), pdf, t.TempDir())

		var ce *common.ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "render", ce.Stage)
	})

	t.Run("no images rendered is a conversion error", func(t *testing.T) {
		pdf := testutil.WritePDF(t, t.TempDir(), 1)
		runner := mocks.NewMockRunner(ctrl)
		runner.EXPECT().Run(gomock.Any(), "pdftoppm", gomock.Any(), gomock.Any()).Return(nil, nil, nil)

		ex := ocr.NewExtractor(ocr.Config{}, slog.Default(), ocr.WithRunner(runner))
		_, err := ex.Rasterize(context.Background(), pdf, t.TempDir())

		assert.True(t, common.IsConversionError(err))
	})
}

func TestExtractor_PageCount(t *testing.T) {
	ex := ocr.NewExtractor(ocr.Config{}, slog.Default())
	n, err := ex.PageCount(testutil.WritePDF(t, t.TempDir(), 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = ex.PageCount(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.True(t, common.IsConversionError(err))
}
