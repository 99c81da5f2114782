package config

import (
	"fmt"

	"github.com/marmos91/ccserver/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the CCServer configuration file.

Applies the same checks 'ccserver start' does before opening anything.

Examples:
  ccserver config validate
  ccserver config validate --config /etc/ccserver/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration is valid: %s\n", path)

	var warnings []string
	if cfg.UseTLS() {
		warnings = append(warnings, "TLS credentials are generated on first start if the files are missing")
	}
	if cfg.Background() && cfg.LogFile() == "" && !cfg.Syslog() {
		warnings = append(warnings, "background mode without logging.file or logging.syslog uses the default log file")
	}
	for _, w := range warnings {
		fmt.Fprintf(out, "  note: %s\n", w)
	}
	return nil
}
