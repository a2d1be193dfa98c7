package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/internal/handler"
	"github.com/angeloszaimis/experiments-viewer/internal/metrics"
	"github.com/angeloszaimis/experiments-viewer/internal/router"
	"github.com/angeloszaimis/experiments-viewer/pkg/logger"
)

func echo(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, text)
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		table     *router.Table
		collector *metrics.Collector
		d         *handler.Dispatcher
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, logger.Discard())
		collector.Start(ctx)

		var err error
		table, err = router.NewTable(
			router.Get("/v2/experiments/{exp_slug:int}/", "v2-experiment-by-slug",
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = io.WriteString(w, "experiment "+r.PathValue("exp_slug"))
				})),
			router.Post("/toggle/", "toggle", echo("toggled")),
			router.Get("*", "index", echo("index")),
		)
		Expect(err).NotTo(HaveOccurred())

		d = handler.NewDispatcher(logger.Discard(), table, collector)
	})

	AfterEach(func() {
		cancel()
	})

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		d.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	It("should expose captured params as path values", func() {
		rec := serve(http.MethodGet, "/v2/experiments/42/")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("experiment 42"))
	})

	It("should fall through to the catch-all", func() {
		rec := serve(http.MethodGet, "/v2/experiments/abc/")
		Expect(rec.Body.String()).To(Equal("index"))
	})

	It("should answer 405 with Allow when the method is not accepted", func() {
		rec := serve(http.MethodGet, "/toggle/")
		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(rec.Header().Get("Allow")).To(Equal("POST, OPTIONS"))
	})

	It("should answer OPTIONS with the allowed methods", func() {
		rec := serve(http.MethodOptions, "/toggle/")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Allow")).To(Equal("POST, OPTIONS"))
	})

	It("should answer 404 when the table has no catch-all", func() {
		bare, err := router.NewTable(router.Get("/only/", "only", echo("only")))
		Expect(err).NotTo(HaveOccurred())

		rec := httptest.NewRecorder()
		handler.NewDispatcher(logger.Discard(), bare, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other/", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should report requests per route", func() {
		serve(http.MethodGet, "/v2/experiments/1/")
		serve(http.MethodGet, "/v2/experiments/2/")
		serve(http.MethodPut, "/toggle/")

		Eventually(func() int64 {
			return collector.Snapshot().Routes["v2-experiment-by-slug"].StatusCodes[http.StatusOK]
		}).Should(Equal(int64(2)))
		Eventually(func() int64 {
			return collector.Snapshot().Routes["toggle"].StatusCodes[http.StatusMethodNotAllowed]
		}).Should(Equal(int64(1)))
		Expect(collector.Snapshot().Routes["v2-experiment-by-slug"].Requests).To(Equal(int64(2)))
	})
})
