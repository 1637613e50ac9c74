package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDBFile is the store file name used when none is configured.
const DefaultDBFile = "expense-tracker.db"

const writeProbeFile = ".write-test"

// Location is the resolved place of the store file. It is computed once at
// startup and handed to whoever needs it; nothing reads it from globals.
type Location struct {
	Dir  string
	Path string
	// Fallback is true when no candidate was writable and Dir is the
	// last-resort directory.
	Fallback bool
}

// DefaultCandidates returns the directory fallback chain: the temp
// directory hints from the environment, /tmp, then <cwd>/data. An
// explicit override, when set, goes first. Empty entries are kept; the
// resolver skips them.
func DefaultCandidates(override string, getenv func(string) string) []string {
	cwdData := ""
	if wd, err := os.Getwd(); err == nil {
		cwdData = filepath.Join(wd, "data")
	}
	return []string{
		override,
		getenv("TMPDIR"),
		getenv("TMP"),
		getenv("TEMP"),
		"/tmp",
		cwdData,
	}
}

// InstallDir is the last-resort directory: where the executable lives.
func InstallDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Resolve picks the first writable candidate directory and joins it with
// file. When every candidate fails the result points into fallback and
// has Fallback set; Resolve itself never fails.
func Resolve(candidates []string, fallback, file string) Location {
	if file == "" {
		file = DefaultDBFile
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if err := probeWritable(dir); err != nil {
			continue
		}
		return Location{Dir: dir, Path: filepath.Join(dir, file)}
	}
	return Location{Dir: fallback, Path: filepath.Join(fallback, file), Fallback: true}
}

// probeWritable creates dir if needed and writes then removes a small file
// in it.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	p := filepath.Join(dir, writeProbeFile)
	if err := os.WriteFile(p, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("remove probe: %w", err)
	}
	return nil
}

// envHints are the variables reported by Probe: the temp-dir chain and the
// hosted-deployment marker.
var envHints = []string{"TMPDIR", "TMP", "TEMP", "FASTMCP_CLOUD"}

// DBInfo is a diagnostic snapshot of the store location.
type DBInfo struct {
	Path         string            `json:"db_path"`
	Dir          string            `json:"db_dir"`
	Fallback     bool              `json:"fallback"`
	Exists       bool              `json:"exists"`
	DirWritable  bool              `json:"dir_writable"`
	FileWritable *bool             `json:"file_writable"`
	CanWriteDir  bool              `json:"can_write_dir"`
	WriteError   string            `json:"write_error,omitempty"`
	Env          map[string]string `json:"env"`
}

// Probe inspects loc on disk. FileWritable is nil when the file does not
// exist yet.
func Probe(loc Location, getenv func(string) string) DBInfo {
	info := DBInfo{
		Path:     loc.Path,
		Dir:      loc.Dir,
		Fallback: loc.Fallback,
		Env:      make(map[string]string, len(envHints)),
	}
	for _, key := range envHints {
		info.Env[key] = getenv(key)
	}

	if st, err := os.Stat(loc.Dir); err == nil && st.IsDir() {
		info.DirWritable = writable(loc.Dir)
	}

	if _, err := os.Stat(loc.Path); err == nil {
		info.Exists = true
		w := writable(loc.Path)
		info.FileWritable = &w
	} else if !errors.Is(err, os.ErrNotExist) {
		info.WriteError = err.Error()
	}

	if err := probeWritable(loc.Dir); err != nil {
		info.WriteError = err.Error()
	} else {
		info.CanWriteDir = true
	}

	return info
}
