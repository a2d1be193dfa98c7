package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/csrf"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/internal/middleware"
	"github.com/angeloszaimis/experiments-viewer/pkg/logger"
)

var _ = Describe("CSRF", func() {
	var (
		h     http.Handler
		token string
	)

	BeforeEach(func() {
		token = ""
		h = middleware.New(middleware.CSRF("test secret", logger.Discard())).Then(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				token = csrf.Token(r)
				w.WriteHeader(http.StatusOK)
			}))
	})

	It("should issue an HttpOnly, Secure token cookie on safe requests", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(token).NotTo(BeEmpty())

		cookies := rec.Result().Cookies()
		Expect(cookies).To(HaveLen(1))
		Expect(cookies[0].Name).To(Equal(middleware.CSRFCookieName))
		Expect(cookies[0].HttpOnly).To(BeTrue())
		Expect(cookies[0].Secure).To(BeTrue())
	})

	It("should reject unsafe requests without a token", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/logout/", nil))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should accept unsafe requests carrying the token header", func() {
		get := httptest.NewRecorder()
		h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/", nil))
		issued := token

		req := httptest.NewRequest(http.MethodPost, "/accounts/logout/", nil)
		for _, c := range get.Result().Cookies() {
			req.AddCookie(c)
		}
		req.Header.Set(middleware.CSRFHeaderName, issued)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
