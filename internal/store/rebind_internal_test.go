package store

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/config"
)

var _ = Describe("rebind", func() {
	It("should number placeholders for postgres", func() {
		s := &Store{engine: config.EnginePostgres}
		Expect(s.rebind("SELECT * FROM t WHERE a = ? AND b = ?")).
			To(Equal("SELECT * FROM t WHERE a = $1 AND b = $2"))
	})

	It("should leave sqlite queries alone", func() {
		s := &Store{engine: config.EngineSQLite}
		Expect(s.rebind("SELECT ?")).To(Equal("SELECT ?"))
	})

	It("should extract the up section of a migration", func() {
		Expect(extractUp("-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;")).
			To(Equal("\nCREATE TABLE a (x INT);\n"))
		Expect(extractUp("CREATE TABLE b (x INT);")).To(Equal("CREATE TABLE b (x INT);"))
	})
})
