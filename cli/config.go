package cli

import (
	"fmt"
	"os"
	"os/user"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "relq"
	envDSN     = "RELQ_DSN"
)

// ResolveDSN picks the connection string for a CLI invocation. Precedence:
// the --dsn flag, then RELQ_DSN (a .env file is loaded first if present),
// then databases.default.dsn from relq.json, then a local-socket guess for
// the current OS user, with a warning.
func ResolveDSN(opts *RootOptions) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}

	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	if dsn := os.Getenv(envDSN); dsn != "" {
		return dsn, nil
	}

	if dsn, err := dsnFromConfig(opts.Config); err != nil {
		return "", err
	} else if dsn != "" {
		return dsn, nil
	}

	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("no DSN configured and current user unknown: %w", err)
	}
	dsn := fmt.Sprintf("postgres://%s@127.0.0.1:5432/%s", u.Username, u.Username)
	color.Yellow("no DSN configured, falling back to %s", dsn)
	return dsn, nil
}

func dsnFromConfig(path string) (string, error) {
	v := viper.New()
	v.SetConfigType("json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && path == "" {
			return "", nil
		}
		if os.IsNotExist(err) && path == "" {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.GetString("databases.default.dsn"), nil
}
