package vision

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmichie/greenie/pkg/aikit/prompt"
	"github.com/mmichie/greenie/pkg/vision/mocks"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setupTest(t *testing.T) (*gomock.Controller, *Analyzer, *mocks.MockGenerator) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)

	prompts, err := prompt.Default()
	require.NoError(t, err)

	return ctrl, NewAnalyzer(gen, prompts, zerolog.Nop()), gen
}

func TestAnalyze(t *testing.T) {
	ctrl, analyzer, gen := setupTest(t)
	defer ctrl.Finish()

	ctx := context.Background()
	img := NewImage("leaf.png", pngBytes)

	t.Run("Default instruction", func(t *testing.T) {
		gen.EXPECT().
			GenerateWithImage(ctx, gomock.Any(), pngBytes).
			DoAndReturn(func(_ context.Context, p string, _ []byte) (string, error) {
				assert.Contains(t, p, "1. Plant identification (species name, common name)")
				assert.Contains(t, p, "2. Plant health assessment")
				assert.Contains(t, p, "3. Any visible issues or diseases")
				assert.Contains(t, p, "4. Care recommendations")
				return "A healthy basil plant.", nil
			})

		result := analyzer.Analyze(ctx, img, "")
		assert.Equal(t, Analysis{Success: true, Analysis: "A healthy basil plant."}, result)
	})

	t.Run("Custom question", func(t *testing.T) {
		gen.EXPECT().
			GenerateWithImage(ctx, "Analyze this image and answer the following question: Is it edible?", pngBytes).
			Return("Yes.", nil)

		result := analyzer.Analyze(ctx, img, "Is it edible?")
		assert.True(t, result.Success)
		assert.Equal(t, "Yes.", result.Analysis)
	})

	t.Run("Provider failure", func(t *testing.T) {
		gen.EXPECT().GenerateWithImage(ctx, gomock.Any(), pngBytes).Return("", assert.AnError)

		result := analyzer.Analyze(ctx, img, "")
		assert.False(t, result.Success)
		assert.Empty(t, result.Analysis)
		assert.True(t, strings.HasPrefix(result.Error, "Error analyzing image:"))
	})

	t.Run("Missing image", func(t *testing.T) {
		result := analyzer.Analyze(ctx, nil, "")
		assert.Equal(t, Analysis{Error: "Image file not found"}, result)
	})
}

func TestIdentifyAndDiagnose(t *testing.T) {
	ctrl, analyzer, gen := setupTest(t)
	defer ctrl.Finish()

	ctx := context.Background()
	img := NewImage("fern.png", pngBytes)

	gen.EXPECT().
		GenerateWithImage(ctx, gomock.Any(), pngBytes).
		DoAndReturn(func(_ context.Context, p string, _ []byte) (string, error) {
			assert.True(t, strings.HasPrefix(p, "Identify the plant in this image."))
			return "Boston fern", nil
		})
	assert.Equal(t, "Boston fern", analyzer.IdentifyPlant(ctx, img).Analysis)

	gen.EXPECT().
		GenerateWithImage(ctx, gomock.Any(), pngBytes).
		DoAndReturn(func(_ context.Context, p string, _ []byte) (string, error) {
			assert.True(t, strings.HasPrefix(p, "Diagnose any health issues with the plant in this image."))
			return "Overwatering", nil
		})
	assert.Equal(t, "Overwatering", analyzer.DiagnosePlantIssue(ctx, img).Analysis)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "leaf.png", img.Name)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.False(t, img.Empty())

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	var none *Image
	assert.True(t, none.Empty())
}
