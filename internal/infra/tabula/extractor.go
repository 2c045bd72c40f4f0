package tabula

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"substitution_bot/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Extractor runs the tabula CLI on a downloaded plan.
type Extractor struct {
	command []string
	tempDir string
	logger  *logrus.Entry
}

// NewExtractor splits command on whitespace (e.g. "java -jar tabula.jar")
// and makes sure tempDir exists.
func NewExtractor(command string, tempDir string, logger *logrus.Entry) (*Extractor, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("tabula command is empty")
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	return &Extractor{command: parts, tempDir: tempDir, logger: logger}, nil
}

// Extract writes the document to a uniquely named temp file, runs tabula on
// it and parses the JSON it prints. The temp file is always removed.
func (e *Extractor) Extract(ctx context.Context, document []byte) ([]schedule.Table, error) {
	path := filepath.Join(e.tempDir, uuid.NewString()+".pdf")
	if err := os.WriteFile(path, document, 0o600); err != nil {
		return nil, &ExtractionError{Reason: "write temp document", Err: err}
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			e.logger.WithError(err).WithField("path", path).Warn("Failed to remove temp document")
		}
	}()

	args := append(append([]string{}, e.command[1:]...), "-f", "JSON", "-p", "all", path)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExtractionError{
			Reason: fmt.Sprintf("run %s: %s", e.command[0], strings.TrimSpace(stderr.String())),
			Err:    err,
		}
	}

	tables, err := ParseTables(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"bytes":  len(document),
		"tables": len(tables),
	}).Debug("Tables extracted")
	return tables, nil
}
