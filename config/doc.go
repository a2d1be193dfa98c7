// Package config resolves the service configuration once at startup.
//
// Two sources feed a single read-only Config value:
//   - an optional config.yaml (server, logging, paths, health check and identity
//     provider tuning) read with viper, where every key may be overridden by the
//     environment (server.address -> SERVER_ADDRESS);
//   - the deployment environment (SECRET_KEY, DATABASE_URL, OIDC_* and the security
//     flags), read from the process environment overlaid on an optional .env file.
//
// Resolve is a pure function of an environment map and is what tests exercise.
// Load wires both sources together and validates the result. A missing identity
// provider variable is a fatal startup error.
package config
