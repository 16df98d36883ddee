package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type Storage struct {
	Connection *sql.DB
}

// New opens the database found at the given path, creating it when absent, and applies the embedded schema.
// Foreign keys constraints must be enabled explicitly, hence the altered connection string.
func New(logger *logrus.Logger, path string) (*Storage, error) {

	logger.Println("initialising SQLite DB")

	connection, err := sql.Open("sqlite3", getConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// the schema only contains IF NOT EXISTS statements, so reapplying it to an existing database is harmless
	if _, err = connection.Exec(schema); err != nil {
		return nil, fmt.Errorf("building database schema: %w", err)
	}

	// opening the DB will fail silently when the package is compiled without CGO_ENABLED
	if err = connection.Ping(); err != nil {
		return nil, err
	}

	return &Storage{Connection: connection}, nil
}

// getConnectionString provides a configuration string that enables foreign keys constraints
func getConnectionString(path string) string {
	return path + "?_fk=on"
}

func (s *Storage) Close() error {
	return s.Connection.Close()
}
