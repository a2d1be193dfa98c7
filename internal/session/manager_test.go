package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/internal/session"
	"github.com/angeloszaimis/experiments-viewer/pkg/logger"
)

var _ = Describe("Manager", func() {
	var (
		backend *memoryBackend
		manager *session.Manager
	)

	BeforeEach(func() {
		backend = newMemoryBackend()
		manager = session.NewManager(backend, session.Options{Secure: true, MaxAge: time.Hour}, logger.Discard())
	})

	serve := func(h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		manager.Middleware(h).ServeHTTP(rec, req)
		return rec
	}

	sessionCookie := func(rec *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rec.Result().Cookies() {
			if c.Name == session.CookieName {
				return c
			}
		}
		return nil
	}

	// store saves values in a fresh session and returns its cookie.
	store := func(values map[string]string) *http.Cookie {
		GinkgoHelper()
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			for k, v := range values {
				s.Set(k, v)
			}
		})
		cookie := sessionCookie(rec)
		Expect(cookie).NotTo(BeNil())
		return cookie
	}

	read := func(cookie *http.Cookie, names ...string) map[string]string {
		GinkgoHelper()
		got := map[string]string{}
		serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			for _, name := range names {
				if v, ok := s.Get(name); ok {
					got[name] = v
				}
			}
		}, cookie)
		return got
	}

	It("should not set a cookie when nothing was stored", func() {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			_, ok := session.FromContext(r.Context())
			Expect(ok).To(BeTrue())
			w.WriteHeader(http.StatusNoContent)
		})

		Expect(sessionCookie(rec)).To(BeNil())
		Expect(backend.keys()).To(BeEmpty())
	})

	It("should save the session before the response is written", func() {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			s.Set("user_id", "7")
			_, _ = w.Write([]byte("ok"))
		})

		Expect(rec.Body.String()).To(Equal("ok"))
		cookie := sessionCookie(rec)
		Expect(cookie).NotTo(BeNil())
		Expect(cookie.HttpOnly).To(BeTrue())
		Expect(cookie.Secure).To(BeTrue())
		Expect(cookie.Path).To(Equal("/"))
		Expect(cookie.SameSite).To(Equal(http.SameSiteLaxMode))
		Expect(cookie.MaxAge).To(BeNumerically("~", 3600, 2))
		Expect(backend.keys()).To(ConsistOf(cookie.Value))
	})

	It("should load an existing session from the cookie", func() {
		cookie := store(map[string]string{"user_id": "3"})

		serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			Expect(s.Key()).To(Equal(cookie.Value))
		}, cookie)
		Expect(read(cookie, "user_id")).To(Equal(map[string]string{"user_id": "3"}))
	})

	It("should start empty for unknown keys", func() {
		serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			Expect(s.Key()).To(BeEmpty())
			_, ok := s.Get("user_id")
			Expect(ok).To(BeFalse())
		}, &http.Cookie{Name: session.CookieName, Value: "forged"})
	})

	It("should delete the stored session and expire the cookie on Flush", func() {
		cookie := store(map[string]string{"user_id": "3"})

		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			Expect(s.Flush()).To(Succeed())
			http.Redirect(w, r, "/", http.StatusFound)
		}, cookie)

		Expect(backend.keys()).NotTo(ContainElement(cookie.Value))
		Expect(backend.deletedKeys()).To(ContainElement(cookie.Value))
		expired := sessionCookie(rec)
		Expect(expired).NotTo(BeNil())
		Expect(expired.MaxAge).To(BeNumerically("<", 0))
		Expect(read(cookie, "user_id")).To(BeEmpty())
	})

	It("should move values to a new key on CycleKey", func() {
		cookie := store(map[string]string{"state": "s"})

		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			Expect(s.CycleKey()).To(Succeed())
			s.Set("user_id", "9")
		}, cookie)

		cycled := sessionCookie(rec)
		Expect(cycled).NotTo(BeNil())
		Expect(cycled.Value).NotTo(Equal(cookie.Value))
		Expect(backend.keys()).To(ConsistOf(cycled.Value))
		Expect(read(cycled, "state", "user_id")).To(Equal(map[string]string{"state": "s", "user_id": "9"}))
		Expect(read(cookie, "state")).To(BeEmpty())
	})

	It("should pop values", func() {
		serve(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			s.Set("next", "/v2/experiments/")
			v, ok := s.Pop("next")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("/v2/experiments/"))
			_, ok = s.Pop("next")
			Expect(ok).To(BeFalse())
		})
	})

	It("should answer 500 when the backend fails", func() {
		cookie := store(map[string]string{"user_id": "3"})
		backend.fail(errors.New("database is locked"))

		called := false
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}, cookie)

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(called).To(BeFalse())
	})
})
