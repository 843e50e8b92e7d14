package store

import "fmt"

// DBError wraps every failure coming from the database engine.
type DBError struct {
	Op  string
	Err error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}
