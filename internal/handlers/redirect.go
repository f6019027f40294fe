package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivam-2310/ShortAI/internal/analytics"
	"github.com/Shivam-2310/ShortAI/internal/metrics"
	"github.com/Shivam-2310/ShortAI/internal/shortener"
)

type RedirectHandler struct {
	Shortener *shortener.Service
	Tracker   *analytics.Tracker
}

// Redirect serves GET /{key}[?password=...]. Gated links answer with an HTML
// password form; all other terminal states map straight to status codes.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	suppliedPassword := r.URL.Query().Get("password")

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	originalURL, err := h.Shortener.Resolve(r.Context(), key, suppliedPassword)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrNeedsPassword):
			serveHTML(w, http.StatusUnauthorized, passwordFormHTML(key, ""))
		case errors.Is(err, shortener.ErrBadPassword):
			serveHTML(w, http.StatusUnauthorized, passwordFormHTML(key, "Invalid password. Please try again."))
		case errors.Is(err, shortener.ErrExpired):
			jsonError(w, "short URL has expired", http.StatusGone)
		case errors.Is(err, shortener.ErrInactive):
			jsonError(w, "short URL is inactive", http.StatusForbidden)
		case errors.Is(err, shortener.ErrNotFound):
			jsonError(w, "short URL not found", http.StatusNotFound)
		default:
			jsonError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	metrics.Redirects.Inc()
	http.Redirect(w, r, originalURL, http.StatusFound)
	h.track(key, r)
}

type unlockRequest struct {
	Password string `json:"password"`
}

// Unlock serves POST /{key}/unlock with a JSON password. Errors are JSON,
// unlike the GET form flow.
func (h *RedirectHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req unlockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	originalURL, err := h.Shortener.Resolve(r.Context(), key, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrNeedsPassword), errors.Is(err, shortener.ErrBadPassword):
			jsonError(w, "invalid password", http.StatusUnauthorized)
		case errors.Is(err, shortener.ErrExpired):
			jsonError(w, "short URL has expired", http.StatusGone)
		case errors.Is(err, shortener.ErrInactive):
			jsonError(w, "short URL is inactive", http.StatusForbidden)
		case errors.Is(err, shortener.ErrNotFound):
			jsonError(w, "short URL not found", http.StatusNotFound)
		default:
			jsonError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	metrics.Redirects.Inc()
	http.Redirect(w, r, originalURL, http.StatusFound)
	h.track(key, r)
}

// track captures the audit snapshot synchronously. The request must not be
// read from the worker goroutine.
func (h *RedirectHandler) track(key string, r *http.Request) {
	snapshot := analytics.Snapshot{
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	}
	h.Tracker.Track(key, snapshot)
}

func serveHTML(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(body))
}

func passwordFormHTML(key, errorMessage string) string {
	errorHTML := ""
	if errorMessage != "" {
		errorHTML = `<p class="error">` + html.EscapeString(errorMessage) + `</p>`
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Password Required</title>
<style>
body { font-family: -apple-system, sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f3f4f6; }
.card { background: #fff; padding: 2rem; border-radius: 10px; box-shadow: 0 8px 24px rgba(0,0,0,.12); max-width: 22rem; width: 100%%; }
h1 { font-size: 1.25rem; margin: 0 0 .5rem; }
p { color: #6b7280; font-size: .875rem; }
.error { color: #dc2626; }
input { width: 100%%; padding: .6rem; margin: .75rem 0; border: 1px solid #d1d5db; border-radius: 6px; box-sizing: border-box; }
button { width: 100%%; padding: .6rem; border: 0; border-radius: 6px; background: #4f46e5; color: #fff; font-weight: 600; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
<h1>Password Required</h1>
<p>This link is password protected. Enter the password to continue.</p>
%s
<form method="GET" action="/%s">
<input type="password" name="password" placeholder="Password" required autofocus>
<button type="submit">Unlock</button>
</form>
</div>
</body>
</html>`, errorHTML, html.EscapeString(key))
}
