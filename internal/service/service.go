package service

import (
	"errors"
	"strings"
	"time"

	"github.com/groovoo/service-desk/internal/repository"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

// storeError maps repository failures onto the error taxonomy.
func storeError(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	default:
		return apperrors.NewInternalError(err)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
