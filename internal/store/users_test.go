package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

var _ = Describe("Users", func() {
	var (
		ctx context.Context
		s   *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = openTestStore()
	})

	It("should create a user keyed by lower-cased email", func() {
		u, err := s.UpsertUser(ctx, store.User{Email: " Ada@Example.com ", AccessToken: "tok-1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(u.ID).To(BeNumerically(">", 0))
		Expect(u.Email).To(Equal("ada@example.com"))
		Expect(u.Username).To(Equal("ada@example.com"))
		Expect(u.AccessToken).To(Equal("tok-1"))
		Expect(u.DateJoined).NotTo(BeZero())

		loaded, err := s.GetUser(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(u))

		byEmail, err := s.GetUserByEmail(ctx, "ADA@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(u.ID))
	})

	It("should update the token and keep the id on later logins", func() {
		first, err := s.UpsertUser(ctx, store.User{Email: "ada@example.com", AccessToken: "tok-1"})
		Expect(err).NotTo(HaveOccurred())

		later := time.Now().Add(time.Hour)
		second, err := s.UpsertUser(ctx, store.User{Email: "ada@example.com", AccessToken: "tok-2", LastLogin: later})
		Expect(err).NotTo(HaveOccurred())

		Expect(second.ID).To(Equal(first.ID))
		Expect(second.AccessToken).To(Equal("tok-2"))
		Expect(second.LastLogin.UnixMilli()).To(Equal(later.UnixMilli()))
	})

	It("should never revoke staff on login", func() {
		_, err := s.UpsertUser(ctx, store.User{Email: "boss@example.com", IsStaff: true})
		Expect(err).NotTo(HaveOccurred())

		u, err := s.UpsertUser(ctx, store.User{Email: "boss@example.com"})
		Expect(err).NotTo(HaveOccurred())
		Expect(u.IsStaff).To(BeTrue())
	})

	It("should require an email", func() {
		_, err := s.UpsertUser(ctx, store.User{})
		Expect(err).To(MatchError(ContainSubstring("email is required")))
	})

	It("should return ErrNotFound for unknown users", func() {
		_, err := s.GetUser(ctx, 42)
		Expect(err).To(MatchError(store.ErrNotFound))
	})
})
