package report

import (
	"fmt"
	"os"
	"path/filepath"

	"tamreport/internal/domain"
)

// FileName derives the on-disk report name for a customer and date.
func FileName(r *domain.Report) string {
	return fmt.Sprintf("%s-%s.md", r.Customer.Key, r.GeneratedAt.Format("20060102"))
}

// WriteFile persists the rendered report atomically: the body lands in a
// temp file in the target directory and is renamed into place, so a crashed
// run never leaves a half-written report.
func WriteFile(r *domain.Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("creating temp report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(r.MarkdownBody); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}
	path := filepath.Join(dir, FileName(r))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming report: %w", err)
	}
	return path, nil
}
