package ml

import (
	"github.com/pkg/errors"
)

// ImageLoader converts an image file to width*height grayscale values in 0-255.
type ImageLoader func(path string, width, height int) ([]float64, error)

// InferenceImg classifies a single image with trained params. The image is
// resized to width x height, which must match the network's input width.
func InferenceImg(params Parameters, batchNorm bool, imagePath string, width, height int, load ImageLoader) (int, float64, error) {
	if batchNorm && len(params) > 1 {
		return 0, 0, ErrSingleSampleBatchNorm
	}
	spec := params.Spec()
	if len(spec) == 0 {
		return 0, 0, errors.New("no trained layers")
	}
	if width*height != spec[0] {
		return 0, 0, shapeError("image %dx%d for an input width of %d", width, height, spec[0])
	}

	// 1. Load & Convert
	pixelData, err := load(imagePath, width, height)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "load %s", imagePath)
	}

	// 2. Normalize (0-255 -> 0.0-1.0)
	for i := range pixelData {
		pixelData[i] = pixelData[i] / 255.0
	}

	// 3. Predict
	return Predict(pixelData, params, batchNorm)
}
