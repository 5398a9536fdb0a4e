package agent

import (
	"os"

	"github.com/spf13/pflag"
)

// parseConfigFlag parses --config FILE out of os.Args without disturbing
// any flags the hosting binary's own cobra command has already defined.
func parseConfigFlag() string {
	fs := pflag.NewFlagSet("agent", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}

	configPath := fs.String("config", "", "path to an agent config file, wins over every other config layer")
	_ = fs.Parse(os.Args[1:])

	return *configPath
}
