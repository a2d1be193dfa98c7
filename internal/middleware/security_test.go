package middleware_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/internal/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("Security", func() {
	It("should redirect plain HTTP to HTTPS when enabled", func() {
		h := middleware.New(middleware.Security(true)).Then(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://viewer.example.com/v2/experiments/?page=2", nil))

		Expect(rec.Code).To(Equal(http.StatusMovedPermanently))
		Expect(rec.Header().Get("Location")).To(Equal("https://viewer.example.com/v2/experiments/?page=2"))
	})

	It("should trust the forwarded proto header", func() {
		h := middleware.New(middleware.Security(true)).Then(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Strict-Transport-Security")).To(Equal("max-age=31536000"))
	})

	It("should add HSTS only on secure requests", func() {
		h := middleware.New(middleware.Security(false)).Then(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Strict-Transport-Security")).To(BeEmpty())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.TLS = &tls.ConnectionState{}
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Header().Get("Strict-Transport-Security")).NotTo(BeEmpty())
	})

	It("should always set nosniff and the XSS filter", func() {
		h := middleware.New(middleware.Security(false)).Then(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
		Expect(rec.Header().Get("X-XSS-Protection")).To(Equal("1; mode=block"))
	})
})

var _ = Describe("XFrame", func() {
	It("should deny framing by default", func() {
		rec := httptest.NewRecorder()
		middleware.New(middleware.XFrame()).Then(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get("X-Frame-Options")).To(Equal("DENY"))
	})

	It("should keep a policy chosen by the handler", func() {
		h := middleware.New(middleware.XFrame()).Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get("X-Frame-Options")).To(Equal("SAMEORIGIN"))
	})
})
