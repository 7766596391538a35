package bench

import "fmt"

// ConfigError reports missing or invalid input: empty driver name, empty
// connection string, empty query, unknown parameter type.
type ConfigError struct {
	Op    string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Op, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// DriverLoadError reports a driver that could not be resolved or instantiated.
type DriverLoadError struct {
	Driver string
	Cause  error
}

func (e *DriverLoadError) Error() string {
	return fmt.Sprintf("driver load error: %s: %v", e.Driver, e.Cause)
}

func (e *DriverLoadError) Unwrap() error {
	return e.Cause
}

// ConnectionError represents a failure to open or verify the connection.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// StatementError represents a failure while preparing or configuring the statement.
type StatementError struct {
	Cause error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement error: %v", e.Cause)
}

func (e *StatementError) Unwrap() error {
	return e.Cause
}

// ExecutionError represents a failed query execution.
type ExecutionError struct {
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// FetchError represents a failure while reading the result cursor.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error: %v", e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// BindError reports a parameter value that does not parse as its declared type.
type BindError struct {
	Position int // 1-based
	Type     TypeTag
	Value    string
	Cause    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind error: parameter %d: %q is not a valid %s: %v", e.Position, e.Value, e.Type, e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}
