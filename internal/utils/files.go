package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDatasetName is looked up first when the input is a directory.
const DefaultDatasetName = "USvideos.csv"

// DataExtensions lists the file extensions a directory scan accepts.
var DataExtensions = []string{".csv", ".tsv", ".xlsx", ".parquet"}

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := EnsureDir(dir); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// ResolveDataset returns the dataset file to analyze. A file path is returned
// as is. For a directory, USvideos.csv wins, otherwise the directory must hold
// exactly one supported data file.
func ResolveDataset(path string) (string, error) {
	if path == "" {
		return "", errors.New("no input file: pass a path or set input_path")
	}
	info, err := os.Stat(path)
	if err != nil {
		// let the loader report the missing path
		return path, nil
	}
	if !info.IsDir() {
		return path, nil
	}
	candidate := filepath.Join(path, DefaultDatasetName)
	if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
		return candidate, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range DataExtensions {
			if ext == want {
				found = append(found, filepath.Join(path, e.Name()))
				break
			}
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no data file (%s) in %s", strings.Join(DataExtensions, ", "), path)
	case 1:
		return found[0], nil
	}
	sort.Strings(found)
	return "", fmt.Errorf("%d data files in %s, pass one explicitly: %s", len(found), path, strings.Join(found, ", "))
}
