package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/internal/service"
	"obituary-service/internal/transport/http/ez"
)

var photoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// obituaryForm binds from multipart, urlencoded or JSON bodies.
type obituaryForm struct {
	FullName    string `form:"fullName"    json:"fullName"`
	DateOfBirth string `form:"dateOfBirth" json:"dateOfBirth"`
	DateOfDeath string `form:"dateOfDeath" json:"dateOfDeath"`
	Biography   string `form:"biography"   json:"biography"`
}

// parseDate accepts 2006-01-02 or RFC 3339. Blank yields the zero time.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// input converts the form. Unparseable dates are recorded in v.
func (f obituaryForm) input(v *errs.ValidationError) domain.ObituaryInput {
	dob, ok := parseDate(f.DateOfBirth)
	if !ok {
		v.Add("dateOfBirth", "date of birth must be YYYY-MM-DD")
	}
	dod, ok := parseDate(f.DateOfDeath)
	if !ok {
		v.Add("dateOfDeath", "date of death must be YYYY-MM-DD")
	}
	return domain.ObituaryInput{
		FullName:    f.FullName,
		DateOfBirth: dob,
		DateOfDeath: dod,
		Biography:   f.Biography,
	}
}

// photoFrom opens the optional "photo" file of a multipart request. The
// returned closer is never nil.
func photoFrom(c *gin.Context, v *errs.ValidationError) (*service.Photo, func()) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			v.Add("photo", "photo could not be read")
		}
		return nil, noop
	}
	if !photoExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		v.Add("photo", "photo must be a jpg, png, gif or webp image")
		return nil, noop
	}
	f, err := fh.Open()
	if err != nil {
		v.Add("photo", "photo could not be read")
		return nil, noop
	}
	return &service.Photo{Name: fh.Filename, Body: f}, func() { _ = f.Close() }
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ez.BadRequest("invalid id")
	}
	return id, nil
}
