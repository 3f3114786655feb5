package processfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"

	"github.com/google/renameio/v2"
)

const (
	PIDFileExtension = ".pid"
	DirMode          = 0755
	FileMode         = 0644
)

// ProcessFileConfig describes where pidfiles live
type ProcessFileConfig struct {
	StateDirectory string `yaml:"state_directory"`
}

// ProcessFileManager owns the pidfiles of all units in one state directory.
// No locking: concurrent writers against the same unit must be serialized by the caller.
type ProcessFileManager struct {
	config ProcessFileConfig
	logger logging.Logger
}

func NewProcessFileManager(config ProcessFileConfig, logger logging.Logger) *ProcessFileManager {
	if config.StateDirectory == "" {
		config.StateDirectory = filepath.Join(os.TempDir(), "service", "run")
	}
	return &ProcessFileManager{
		config: config,
		logger: logger,
	}
}

func (m *ProcessFileManager) StateDirectory() string {
	return m.config.StateDirectory
}

// GeneratePIDFilePath returns <stateDir>/<id>.pid
func (m *ProcessFileManager) GeneratePIDFilePath(processID string) string {
	return filepath.Join(m.config.StateDirectory, processID+PIDFileExtension)
}

// WritePIDFile atomically replaces the pidfile with the decimal pid and a newline
func (m *ProcessFileManager) WritePIDFile(processID string, pid int) error {
	if pid <= 0 {
		return errors.NewValidationError(fmt.Sprintf("invalid PID %d", pid), nil).WithContext("id", processID)
	}

	if err := m.ensureDirectory(); err != nil {
		return err
	}

	path := m.GeneratePIDFilePath(processID)
	if err := renameio.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), FileMode); err != nil {
		return errors.NewIOError("failed to write PID file", err).WithContext("path", path)
	}

	m.logger.Debugf("PID file written, id: %s, path: %s, PID: %d", processID, path, pid)
	return nil
}

// ReadPIDFile returns the pid recorded for processID.
// A missing pidfile yields a not-found error.
func (m *ProcessFileManager) ReadPIDFile(processID string) (int, error) {
	path := m.GeneratePIDFilePath(processID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFoundError("PID file not found", err).WithContext("path", path)
		}
		return 0, errors.NewIOError("failed to read PID file", err).WithContext("path", path)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.NewValidationError("invalid PID file content", err).WithContext("path", path)
	}
	return pid, nil
}

func (m *ProcessFileManager) PIDFileExists(processID string) bool {
	_, err := os.Stat(m.GeneratePIDFilePath(processID))
	return err == nil
}

// RemovePIDFile deletes the pidfile; removing an absent pidfile is not an error
func (m *ProcessFileManager) RemovePIDFile(processID string) error {
	path := m.GeneratePIDFilePath(processID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("failed to remove PID file", err).WithContext("path", path)
	}
	m.logger.Debugf("PID file removed, id: %s, path: %s", processID, path)
	return nil
}

func (m *ProcessFileManager) ensureDirectory() error {
	dir := m.StateDirectory()
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return errors.NewIOError("failed to create state directory", err).WithContext("directory", dir)
	}
	return nil
}
