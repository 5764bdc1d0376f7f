// Package config handles loading and validating AssessLab configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading a .env file when present (the deployment convention inherited
//     from the original platform)
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (JWT signing secrets) should be set via environment
//     variables, never committed in the config file
//   - The config file should have restricted permissions (0600)
//
// Note that the JWT signing secrets are deliberately NOT validated here:
// their absence is a per-request internal failure surfaced by the token
// issuer, not a startup crash. This keeps a partially configured instance
// bootable for operations that do not mint tokens.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
