package config

import (
	"fmt"
	"os"
)

func Template() string {
	return bitsctlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(Template()), 0o600)
}

const bitsctlTemplate = `# transmission file, "-" reads stdin
input = "-"
workers = 4
max_depth = 256
log_level = "info"

[server]
name = "bitsctl"
addr = ":9300"
cors_origins = ["http://localhost:3000"]
`
