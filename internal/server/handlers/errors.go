package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// respondError maps domain errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Debug("invalid request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// pathID parses an ObjectID path parameter, writing a 400 when malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalID parses an optional hex ObjectID; empty input yields the nil ID.
func optionalID(value, field string) (primitive.ObjectID, error) {
	if value == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s", models.ErrValidation, field)
	}
	return id, nil
}

// DateParser turns request dates into instants. Plain YYYY-MM-DD values
// are read in the server timezone; RFC 3339 values keep their offset.
type DateParser struct {
	loc *time.Location
}

// NewDateParser returns a parser for the given timezone.
func NewDateParser(loc *time.Location) DateParser {
	if loc == nil {
		loc = time.Local
	}
	return DateParser{loc: loc}
}

// Parse returns the zero time for empty input.
func (p DateParser) Parse(value, field string) (time.Time, error) {
	t, _, err := p.parse(value, field)
	return t, err
}

// ParseEnd is Parse for inclusive upper bounds: a plain date extends to the
// last millisecond of that day.
func (p DateParser) ParseEnd(value, field string) (time.Time, error) {
	t, dateOnly, err := p.parse(value, field)
	if err != nil || !dateOnly {
		return t, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Millisecond), nil
}

// ParsePtr is Parse for optional body fields.
func (p DateParser) ParsePtr(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := p.Parse(*value, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p DateParser) parse(value, field string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, p.loc); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", models.ErrValidation, field)
}

// queryRange reads startDate and endDate query parameters.
func (p DateParser) queryRange(c *gin.Context) (time.Time, time.Time, error) {
	start, err := p.Parse(c.Query("startDate"), "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := p.ParseEnd(c.Query("endDate"), "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func queryLimit(c *gin.Context) (int64, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", models.ErrValidation)
	}
	return n, nil
}
