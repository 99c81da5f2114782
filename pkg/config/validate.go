package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags.
//
// All failing fields are reported in one error, e.g.
//
//	invalid configuration: Server.Port: max=65535 (got 70000)
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	tag := fe.Tag()
	if fe.Param() != "" {
		tag += "=" + fe.Param()
	}
	return fmt.Sprintf("%s: %s (got %v)", field, tag, fe.Value())
}

// IsValid reports whether the configuration passes Validate.
func (c *Config) IsValid() bool {
	return Validate(c) == nil
}

// Background reports whether the server should detach from the terminal.
func (c *Config) Background() bool { return c.Detach }

// UseTLS reports whether the listener serves HTTPS.
func (c *Config) UseTLS() bool { return c.Server.TLS.Enabled }

func (c *Config) BindIP() string   { return c.Server.BindIP }
func (c *Config) Port() int        { return c.Server.Port }
func (c *Config) CertFile() string { return c.Server.TLS.CertFile }
func (c *Config) KeyFile() string  { return c.Server.TLS.KeyFile }
func (c *Config) LogFile() string  { return c.Logging.File }
func (c *Config) Colors() bool     { return c.Logging.Colors }
func (c *Config) Syslog() bool     { return c.Logging.Syslog }
