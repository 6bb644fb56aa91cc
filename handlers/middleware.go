package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// frameAncestors mirrors the embedding policy of the deployment: the page is
// meant to be iframed by Farcaster clients.
const frameAncestors = "frame-ancestors 'self' https://*.warpcast.com https://*.farcaster.xyz https://*.fcast.me https://*.farcaster.network https://*.neynar.com *;"

// RequestLogger logs one line per request with method, path, remote address,
// status and the time taken to process it. proxyCount controls how
// X-Forwarded-For is interpreted.
func RequestLogger(logger logrus.FieldLogger, proxyCount int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   remoteAddress(r, proxyCount),
				"status":   ww.Status(),
				"duration": time.Since(start),
			}).Info("request completed")
		})
	}
}

// remoteAddress resolves the client address. With proxies in front of the
// server, the real client is the X-Forwarded-For entry proxyCount hops from
// the end of the list.
func remoteAddress(r *http.Request, proxyCount int) string {
	if proxyCount > 0 {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			hops := strings.Split(forwarded, ",")
			if proxyCount > len(hops) {
				return strings.TrimSpace(hops[0])
			}
			return strings.TrimSpace(hops[len(hops)-proxyCount])
		}
	}
	return r.RemoteAddr
}

// FrameHeaders drops X-Frame-Options and sets a permissive frame-ancestors
// policy on every response so the page stays embeddable.
func FrameHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("X-Frame-Options")
		w.Header().Set("Content-Security-Policy", frameAncestors)
		next.ServeHTTP(w, r)
	})
}

// clientID returns the browser's client id, issuing a cookie when absent.
// The id tags broadcast events so browsers can skip their own echo.
func clientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie("client_id"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := "client_" + uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "client_id", Value: id, Path: "/"})
	return id
}
