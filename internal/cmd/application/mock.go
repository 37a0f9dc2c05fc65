package application

import (
	"github.com/rs/zerolog"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/config"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example usage:
//
//	mock := &application.Mock{
//	    ClientFunc: func() (policytool.Policytool, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := tagsync.NewCommand(mock)
//	// ... test command
type Mock struct {
	ClientFunc            func() (policytool.Policytool, error)
	ClientWithOptionsFunc func(opts ...policytool.Option) (policytool.Policytool, error)
	EnvironmentConfigFunc func(name string) (*config.Environment, error)
	LoggerFunc            func() *zerolog.Logger
	OutputFormatFunc      func() string
	SourceDirFunc         func() string
	EnvironmentNameFunc   func() string
	VersionFunc           func() string
	CommitFunc            func() string
	DateFunc              func() string
	BuiltByFunc           func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client() (policytool.Policytool, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// ClientWithOptions returns a client using the mock function. When no
// function is set it falls back to ClientFunc so simple tests only stub one.
func (m *Mock) ClientWithOptions(opts ...policytool.Option) (policytool.Policytool, error) {
	if m.ClientWithOptionsFunc != nil {
		return m.ClientWithOptionsFunc(opts...)
	}
	return m.Client()
}

// EnvironmentConfig returns environment settings using the mock function or
// an empty section with default retries.
func (m *Mock) EnvironmentConfig(name string) (*config.Environment, error) {
	if m.EnvironmentConfigFunc != nil {
		return m.EnvironmentConfigFunc(name)
	}
	return &config.Environment{Retries: 1}, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or empty string.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return ""
}

// SourceDir returns the source directory using the mock function or empty
// string.
func (m *Mock) SourceDir() string {
	if m.SourceDirFunc != nil {
		return m.SourceDirFunc()
	}
	return ""
}

// EnvironmentName returns the environment name using the mock function or
// "dev".
func (m *Mock) EnvironmentName() string {
	if m.EnvironmentNameFunc != nil {
		return m.EnvironmentNameFunc()
	}
	return "dev"
}

// Version returns the version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns the commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns the build date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns the builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
