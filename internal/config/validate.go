package config

import (
	"fmt"
	"regexp"
)

// numberPrefixRe restricts the certificate number prefix to what the public
// number format can carry: 2-8 uppercase letters, no separators.
var numberPrefixRe = regexp.MustCompile(`^[A-Z]{2,8}$`)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Certificate.validate(); err != nil {
		return fmt.Errorf("certificate: %w", err)
	}

	return nil
}

func (c *CertificateConfig) validate() error {
	if !numberPrefixRe.MatchString(c.NumberPrefix) {
		return fmt.Errorf("number_prefix must be 2-8 uppercase letters (got %q)", c.NumberPrefix)
	}
	if c.VerificationCodeLength < 8 || c.VerificationCodeLength > 32 {
		return fmt.Errorf("verification_code_length must be between 8 and 32 (got %d)", c.VerificationCodeLength)
	}
	if c.MaxCodeAttempts <= 0 {
		return fmt.Errorf("max_code_attempts must be > 0 (got %d)", c.MaxCodeAttempts)
	}
	return nil
}
