package handlers

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

const (
	qrDefaultSize = 300
	qrMinSize     = 100
	qrMaxSize     = 1000
)

// QRCode renders a PNG pointing at the mapping's short URL. Size and colors
// come from query params; an unparsable size or color falls back to the
// default, and sizes outside 100-1000 are clamped to that range.
func (h *LinkHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	mapping, err := h.Shortener.Lookup(key)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	size := qrDefaultSize
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		size = s
	}
	if size < qrMinSize {
		size = qrMinSize
	}
	if size > qrMaxSize {
		size = qrMaxSize
	}

	opts := []standard.ImageOption{
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(uint8(size / 30)),
	}
	if fg := r.URL.Query().Get("fgColor"); hexColorRe.MatchString(fg) {
		opts = append(opts, standard.WithFgColorRGBHex(fg))
	}
	if bg := r.URL.Query().Get("bgColor"); hexColorRe.MatchString(bg) {
		opts = append(opts, standard.WithBgColorRGBHex(bg))
	}

	shortURL := h.Shortener.BaseURL + "/" + mapping.EffectiveKey()

	qrc, err := qrcode.New(shortURL)
	if err != nil {
		jsonError(w, "failed to generate qr code", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	writer := standard.NewWithWriter(nopCloser{&buf}, opts...)
	if err := qrc.Save(writer); err != nil {
		jsonError(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(buf.Bytes())
}
