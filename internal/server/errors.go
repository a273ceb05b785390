package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/logger"
	"github.com/menta2k/labelkit/pkg/crop"
	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/kontext"
	"github.com/menta2k/labelkit/pkg/labels"
	"github.com/menta2k/labelkit/pkg/poster"
	"github.com/menta2k/labelkit/pkg/raster"
	"github.com/menta2k/labelkit/pkg/translate"
	"github.com/menta2k/labelkit/pkg/vision"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

var badRequest = []error{
	errBadRequest,
	translate.ErrSameLanguage,
	translate.ErrInvalidLanguage,
	translate.ErrUnknownService,
	kontext.ErrNoPairImages,
	kontext.ErrNoImages,
	kontext.ErrNoAPIKey,
	kontext.ErrNoModel,
	kontext.ErrNoPair,
	kontext.ErrNoResults,
	vision.ErrNoAPIKey,
	vision.ErrNoModel,
	labels.ErrMissingContent,
	labels.ErrMissingReplace,
	labels.ErrUnknownAction,
	labels.ErrBadPattern,
	labels.ErrBadPosition,
	labels.ErrNoImages,
	labels.ErrNoFiles,
	labels.ErrBadArchive,
	crop.ErrCropTooSmall,
	crop.ErrBadRotation,
	crop.ErrBadAspect,
	crop.ErrNoImages,
	crop.ErrQualityRange,
	crop.ErrUnknownFormat,
	raster.ErrNoImages,
	raster.ErrUnresolvable,
	poster.ErrInvalidColor,
	poster.ErrGridFull,
	poster.ErrDuplicateID,
	poster.ErrUnknownType,
	poster.ErrInvalidElement,
	poster.ErrOutOfRange,
	imgio.ErrUnknownFormat,
}

var notFound = []error{
	errNotFound,
	labels.ErrNotFound,
	crop.ErrItemNotFound,
	poster.ErrPreviewGone,
}

// statusFor maps domain errors to HTTP status codes; anything unknown is a 500
func statusFor(err error) int {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// fail writes {"error": message} with the status for err
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
