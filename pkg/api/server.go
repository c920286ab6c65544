// Package api provides the REST API server for ly2mei
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/ly2mei/pkg/converter"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title ly2mei API
// @version 1.0
// @description API for converting LilyPond music to MEI, MIDI and event dumps
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	return NewRouter().Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the gin engine with every route registered.
func NewRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert/ly2mei", handleLyToMEI)
		v1.POST("/convert/ly2midi", handleLyToMIDI)
		v1.POST("/convert/ly2events", handleLyToEvents)
		v1.GET("/formats", listFormats)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ly2mei",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"ly", "mei", "midi", "json", "yaml"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// handleLyToMEI godoc
// @Summary Convert LilyPond to MEI
// @Description Upload a LilyPond file and receive an MEI document
// @Tags convert
// @Accept multipart/form-data
// @Produce application/mei+xml
// @Param file formData file true "LilyPond file to convert"
// @Param prefix query string false "xml:id prefix (default: ly)"
// @Param ns query string false "Label namespace (default: lilypond)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/ly2mei [post]
func handleLyToMEI(c *gin.Context) {
	handleConversion(c, converter.FormatMEI)
}

// handleLyToMIDI godoc
// @Summary Convert LilyPond to MIDI
// @Description Upload a LilyPond file and receive a Standard MIDI File
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "LilyPond file to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/ly2midi [post]
func handleLyToMIDI(c *gin.Context) {
	handleConversion(c, converter.FormatMIDI)
}

// handleLyToEvents godoc
// @Summary Dump the LilyPond event stream
// @Description Upload a LilyPond file and receive its flat event stream
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "LilyPond file to convert"
// @Param format query string false "json or yaml (default: json)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/ly2events [post]
func handleLyToEvents(c *gin.Context) {
	format := converter.Format(strings.ToLower(c.DefaultQuery("format", string(converter.FormatJSON))))
	if format != converter.FormatJSON && format != converter.FormatYAML {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported event format"})
		return
	}
	handleConversion(c, format)
}

func handleConversion(c *gin.Context, to converter.Format) {
	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	conv := converter.New(
		converter.WithIDPrefix(c.Query("prefix")),
		converter.WithLabelNamespace(c.Query("ns")),
	)

	result, err := conv.ConvertBytes(data, to)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, converter.ErrUnsupported) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName(header.Filename, to)))
	c.Data(http.StatusOK, contentType(to), result)
}

func outputName(input string, to converter.Format) string {
	ext := map[converter.Format]string{
		converter.FormatMEI:  ".mei",
		converter.FormatMIDI: ".mid",
		converter.FormatJSON: ".json",
		converter.FormatYAML: ".yaml",
	}[to]
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if base == "" || base == "." {
		base = "converted"
	}
	return base + ext
}

func contentType(to converter.Format) string {
	switch to {
	case converter.FormatMEI:
		return "application/mei+xml"
	case converter.FormatMIDI:
		return "audio/midi"
	case converter.FormatJSON:
		return "application/json"
	case converter.FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
