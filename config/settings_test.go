package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/experiments-viewer/config"
)

func requiredEnv() map[string]string {
	return map[string]string{
		"OIDC_RP_CLIENT_ID":     "client-id",
		"OIDC_RP_CLIENT_SECRET": "client-secret",
		"OIDC_OP_DOMAIN":        "https://auth.example.com",
	}
}

var _ = Describe("Resolve", func() {
	Context("with only the required variables", func() {
		var settings config.Settings

		BeforeEach(func() {
			var err error
			settings, err = config.Resolve(requiredEnv())
			Expect(err).NotTo(HaveOccurred())
		})

		It("applies every documented default", func() {
			Expect(settings.SecretKey).To(Equal(config.DefaultSecretKey))
			Expect(settings.Debug).To(BeFalse())
			Expect(settings.SSLRedirect).To(BeFalse())
			Expect(settings.SessionCookieSecure).To(BeFalse())
			Expect(settings.AdminEmails).To(BeEmpty())
			Expect(settings.OTLPEndpoint).To(BeEmpty())
		})

		It("parses the default database url", func() {
			Expect(settings.Database.Engine).To(Equal(config.EnginePostgres))
			Expect(settings.Database.Name).To(Equal("experimentsviewer"))
			Expect(settings.Database.User).To(Equal("experimentsviewer"))
			Expect(settings.Database.Host).To(Equal("localhost"))
			Expect(settings.Database.Port).To(Equal(5432))
		})

		It("derives the provider endpoints from the domain", func() {
			Expect(settings.OIDC.AuthorizationEndpoint).To(Equal("https://auth.example.com/authorize"))
			Expect(settings.OIDC.TokenEndpoint).To(Equal("https://auth.example.com/oauth/token"))
			Expect(settings.OIDC.UserInfoEndpoint).To(Equal("https://auth.example.com/userinfo"))
			Expect(settings.OIDC.StoreAccessToken).To(BeTrue())
		})
	})

	Context("with every optional variable set", func() {
		It("uses the provided values instead of the defaults", func() {
			env := requiredEnv()
			env["SECRET_KEY"] = "s3cret"
			env["DEBUG"] = "true"
			env["DATABASE_URL"] = "sqlite:///viewer.db"
			env["SSL_REDIRECT"] = "True"
			env["SESSION_COOKIE_SECURE"] = "1"
			env["ADMIN_EMAILS"] = "Admin@Example.com, ,ops@example.com"

			settings, err := config.Resolve(env)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.SecretKey).To(Equal("s3cret"))
			Expect(settings.Debug).To(BeTrue())
			Expect(settings.SSLRedirect).To(BeTrue())
			Expect(settings.SessionCookieSecure).To(BeTrue())
			Expect(settings.Database.Engine).To(Equal(config.EngineSQLite))
			Expect(settings.Database.Name).To(Equal("viewer.db"))
			Expect(settings.AdminEmails).To(Equal([]string{"admin@example.com", "ops@example.com"}))
			Expect(settings.IsAdminEmail("ADMIN@example.com")).To(BeTrue())
			Expect(settings.IsAdminEmail("someone@example.com")).To(BeFalse())
		})
	})

	DescribeTable("defaults apply exactly when the variable is absent",
		func(key, value string, read func(config.Settings) bool, whenSet bool) {
			absent, err := config.Resolve(requiredEnv())
			Expect(err).NotTo(HaveOccurred())
			Expect(read(absent)).To(BeFalse())

			env := requiredEnv()
			env[key] = value
			present, err := config.Resolve(env)
			Expect(err).NotTo(HaveOccurred())
			Expect(read(present)).To(Equal(whenSet))
		},
		Entry("DEBUG", "DEBUG", "true", func(s config.Settings) bool { return s.Debug }, true),
		Entry("DEBUG explicitly false", "DEBUG", "false", func(s config.Settings) bool { return s.Debug }, false),
		Entry("SSL_REDIRECT", "SSL_REDIRECT", "true", func(s config.Settings) bool { return s.SSLRedirect }, true),
		Entry("SESSION_COOKIE_SECURE", "SESSION_COOKIE_SECURE", "true", func(s config.Settings) bool { return s.SessionCookieSecure }, true),
	)

	DescribeTable("fails when a required identity provider variable is absent",
		func(missing string) {
			env := requiredEnv()
			delete(env, missing)

			_, err := config.Resolve(env)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(missing))
		},
		Entry("client id", "OIDC_RP_CLIENT_ID"),
		Entry("client secret", "OIDC_RP_CLIENT_SECRET"),
		Entry("domain", "OIDC_OP_DOMAIN"),
	)

	It("strips a trailing slash from the domain before composing endpoints", func() {
		env := requiredEnv()
		env["OIDC_OP_DOMAIN"] = "https://auth.example.com/"

		settings, err := config.Resolve(env)
		Expect(err).NotTo(HaveOccurred())
		Expect(settings.OIDC.AuthorizationEndpoint).To(Equal("https://auth.example.com/authorize"))
	})

	It("rejects a domain that is not an http(s) url", func() {
		env := requiredEnv()
		env["OIDC_OP_DOMAIN"] = "ftp://auth.example.com"

		_, err := config.Resolve(env)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an empty client id", func() {
		env := requiredEnv()
		env["OIDC_RP_CLIENT_ID"] = ""

		_, err := config.Resolve(env)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a malformed boolean", func() {
		env := requiredEnv()
		env["DEBUG"] = "maybe"

		_, err := config.Resolve(env)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unsupported database url", func() {
		env := requiredEnv()
		env["DATABASE_URL"] = "mysql://user@localhost/db"

		_, err := config.Resolve(env)
		Expect(err).To(MatchError(ContainSubstring("DATABASE_URL")))
	})
})
