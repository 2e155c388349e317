package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CallerIDKey is the context key for the authenticated caller ID
	CallerIDKey contextKey = "caller_id"
	// CallerIDHeader carries the caller ID set by the trusted edge proxy
	CallerIDHeader = "x-appwrite-user-id"
)

// Identity extracts the caller identity from the request. The trusted
// header wins; a bearer token's subject claim is the fallback. Requests
// without either still pass through, handlers decide whether identity
// is required.
func Identity(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID := r.Header.Get(CallerIDHeader)

			if callerID == "" && jwtSecret != "" {
				callerID = subjectFromBearer(r, jwtSecret)
			}

			if callerID != "" {
				ctx := context.WithValue(r.Context(), CallerIDKey, callerID)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetCallerID extracts the caller ID from context. Empty when the
// request carried no identity.
func GetCallerID(ctx context.Context) string {
	if callerID, ok := ctx.Value(CallerIDKey).(string); ok {
		return callerID
	}
	return ""
}

func subjectFromBearer(r *http.Request, secret string) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	tokenString := strings.TrimPrefix(auth, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
