package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
)

// pathID parses the positive integer id path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

// queryBool reads an optional boolean query flag. Absent means false.
func queryBool(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, name+" must be a boolean")
	}
	return v, nil
}

func queryID(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return &id, nil
}

// observationFilter reads the teacher_id, department_id and focus_area_id
// query parameters.
func observationFilter(c *gin.Context) (models.ObservationFilter, error) {
	var filter models.ObservationFilter
	var err error
	if filter.TeacherID, err = queryID(c, "teacher_id"); err != nil {
		return filter, err
	}
	if filter.DepartmentID, err = queryID(c, "department_id"); err != nil {
		return filter, err
	}
	if filter.FocusAreaID, err = queryID(c, "focus_area_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

const trustForwardedKey = "trust_forwarded_headers"

// TrustForwardedHeaders marks requests as coming through a reverse proxy
// whose X-Forwarded-Proto and X-Forwarded-Host may be used for links.
func TrustForwardedHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(trustForwardedKey, true)
		c.Next()
	}
}

// requestBaseURL returns the origin the client used to reach us. Forwarded
// headers are only honoured when TrustForwardedHeaders ran for the request.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if !c.GetBool(trustForwardedKey) {
		return scheme + "://" + c.Request.Host
	}
	if proto := firstHeaderValue(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}
	host := c.Request.Host
	if fwd := firstHeaderValue(c.GetHeader("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func invalidBody(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid observation payload")
}
