package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/spoonorder/internal/model"
)

// BackupVersion is written into every backup metadata file.
const BackupVersion = "1.0.0"

// BackupData describes the original gcode kept next to a file that was
// rewritten in place.
type BackupData struct {
	Version   string            `json:"version"`
	CreatedAt string            `json:"created_at"`
	BackupID  string            `json:"backup_id"`
	JobID     string            `json:"job_id"`
	Source    string            `json:"source"`
	Profile   string            `json:"profile"`
	Settings  model.RunSettings `json:"settings"`
}

// BackupPath returns where the original of path is kept.
func BackupPath(path string) string {
	return path + ".orig"
}

// BackupMetaPath returns where the metadata for the backup of path is kept.
func BackupMetaPath(path string) string {
	return BackupPath(path) + ".json"
}

// BackupOriginal copies path to its backup location and records the run
// that is about to replace it. An existing backup is left alone so the
// first original survives repeated in-place runs; its metadata is returned.
func BackupOriginal(path string, report model.Report, settings model.RunSettings) (BackupData, error) {
	if _, err := os.Stat(BackupPath(path)); err == nil {
		return ReadBackup(path)
	}

	if err := copyFile(path, BackupPath(path)); err != nil {
		return BackupData{}, fmt.Errorf("failed to back up %s: %w", path, err)
	}

	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		BackupID:  uuid.New().String(),
		JobID:     report.JobID,
		Source:    path,
		Profile:   report.Profile,
		Settings:  settings,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to marshal backup data: %w", err)
	}
	if err := os.WriteFile(BackupMetaPath(path), data, 0644); err != nil {
		return BackupData{}, fmt.Errorf("failed to write backup metadata: %w", err)
	}
	return backup, nil
}

// ReadBackup reads the backup metadata recorded for path.
func ReadBackup(path string) (BackupData, error) {
	data, err := os.ReadFile(BackupMetaPath(path))
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup metadata: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup metadata: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup metadata: missing version field")
	}
	return backup, nil
}

// RestoreBackup puts the original of path back and removes the backup.
func RestoreBackup(path string) error {
	orig := BackupPath(path)
	if _, err := os.Stat(orig); err != nil {
		return fmt.Errorf("no backup for %s: %w", path, err)
	}
	if err := copyFile(orig, path); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	if err := os.Remove(orig); err != nil {
		return err
	}
	if err := os.Remove(BackupMetaPath(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
