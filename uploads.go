package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var errUploadTooLarge = errors.New("file exceeds the upload size limit")

// importOptions reads ?layout= and ?header_rows= (layout defaults to rich).
func importOptions(c *gin.Context) (importer.Options, error) {
	layout, err := importer.ParseLayout(c.Query("layout"))
	if err != nil {
		return importer.Options{}, err
	}
	opts := importer.DefaultOptions()
	if layout == importer.LayoutMinimal {
		opts = importer.LegacyOptions()
	}
	if raw := strings.TrimSpace(c.Query("header_rows")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return importer.Options{}, errors.New("header_rows must be a non-negative integer")
		}
		opts.HeaderRows = n
	}
	return opts, nil
}

// readUpload returns the multipart "file" field, rejecting anything above limit.
func readUpload(c *gin.Context, limit int64) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, errUploadTooLarge
		}
		return "", nil, errors.New("file is required")
	}
	if file.Size > limit {
		return "", nil, errUploadTooLarge
	}
	if !importer.SupportedExtension(file.Filename) {
		return "", nil, importer.ErrUnsupportedFileType
	}
	f, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return "", nil, err
	}
	if int64(len(data)) > limit {
		return "", nil, errUploadTooLarge
	}
	return file.Filename, data, nil
}

func importPriceListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		requestID := requestIDFromHeaders(c)
		limit := config.ImportMaxUploadBytes()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+(1<<20))

		opts, err := importOptions(c)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		fileName, data, err := readUpload(c, limit)
		if err != nil {
			if errors.Is(err, errUploadTooLarge) {
				badRequest(c, fmt.Sprintf("file size exceeds %dMB limit", limit>>20))
				return
			}
			if errors.Is(err, importer.ErrUnsupportedFileType) {
				badRequest(c, err.Error())
				return
			}
			badRequest(c, "file is required")
			return
		}

		rows, err := importer.Parse(fileName, data, opts)
		if err != nil {
			logImportError(logger, err, fileName, requestID)
			if errorStatus(err) == http.StatusInternalServerError {
				badRequest(c, "price list could not be read")
				return
			}
			respondError(c, err, "failed to import price list")
			return
		}

		prices, err := models.ImportIngredientPrices(c.Request.Context(), rows)
		if err != nil {
			respondError(c, err, "failed to import price list")
			return
		}
		archiveKey := models.ArchivePriceList(c.Request.Context(), fileName, data)

		logger.WithFields(logrus.Fields{
			"file_name":   fileName,
			"rows":        len(rows),
			"request_id":  requestID,
			"archive_key": archiveKey,
		}).Info("[pricelist.import]")

		respond(c, http.StatusOK, gin.H{"imported": len(rows), "items": prices})
	}
}

func logImportError(logger *logrus.Logger, err error, fileName string, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"file_name":  fileName,
		"request_id": requestID,
	}).Warn("[pricelist.parse]")
}

func requestIDFromHeaders(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Correlation-Id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return fmt.Sprintf("import-%d", time.Now().UnixNano())
}
