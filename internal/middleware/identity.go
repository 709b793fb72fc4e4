package middleware

import (
	"context"
	"net/http"
)

// Identity comes from the gateway: the session provider upstream validates
// credentials and injects the caller's ids as headers. This service never
// issues or verifies sessions itself.

type contextKey string

const (
	studentIDKey  contextKey = "student_id"
	educatorIDKey contextKey = "educator_id"

	HeaderStudentID  = "X-Student-Id"
	HeaderEducatorID = "X-Educator-Id"
)

func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if studentID := r.Header.Get(HeaderStudentID); studentID != "" {
			ctx = context.WithValue(ctx, studentIDKey, studentID)
		}
		if educatorID := r.Header.Get(HeaderEducatorID); educatorID != "" {
			ctx = context.WithValue(ctx, educatorIDKey, educatorID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func StudentID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(studentIDKey).(string)
	return id, ok && id != ""
}

func EducatorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(educatorIDKey).(string)
	return id, ok && id != ""
}
