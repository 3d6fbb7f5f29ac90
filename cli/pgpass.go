package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// connInfo is the subset of a parsed DSN that psql and pg_dump need on the
// command line and in a pgpass file.
type connInfo struct {
	Host     string
	Port     uint16
	User     string
	Password string
	Database string
}

func parseDSN(dsn string) (connInfo, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return connInfo{}, fmt.Errorf("parse dsn: %w", err)
	}
	return connInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
	}, nil
}

// writePgpass materializes the password as a one-line pgpass file under a
// random name so concurrent invocations never collide. The caller removes it
// when the child process exits. Returns "" when there is no password to pass.
func writePgpass(info connInfo) (string, func(), error) {
	if info.Password == "" {
		return "", func() {}, nil
	}

	path := filepath.Join(os.TempDir(), "relq-pgpass-"+uuid.NewString())
	line := fmt.Sprintf("%s:%d:%s:%s:%s\n",
		info.Host, info.Port, info.Database, info.User, info.Password)
	if err := os.WriteFile(path, []byte(line), 0o600); err != nil {
		return "", nil, fmt.Errorf("write pgpass: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}

// clientEnv builds the child environment: the parent's, plus PGPASSFILE when
// a pgpass file was written.
func clientEnv(pgpassPath string) []string {
	env := os.Environ()
	if pgpassPath != "" {
		env = append(env, "PGPASSFILE="+pgpassPath)
	}
	return env
}

// clientArgs renders the -h/-p/-U/-d argument block shared by psql and
// pg_dump.
func clientArgs(info connInfo) []string {
	return []string{
		"-h", info.Host,
		"-p", strconv.Itoa(int(info.Port)),
		"-U", info.User,
		"-d", info.Database,
	}
}
