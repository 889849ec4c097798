package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a sorted list of files/ directories in given path
func ListDir(path string) ([]string, error) {
	names := make([]string, 0)
	if entries, err := os.ReadDir(path); err != nil {
		return nil, fmt.Errorf("ListDir: Error, got '%w'", err)
	} else {
		for _, e := range entries {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

//ListFilesWithExt returns sorted names of regular files in given path which end with given extension (case insensitive, e.g. ".mp4")
func ListFilesWithExt(path, ext string) ([]string, error) {
	names, err := ListDir(path)
	if err != nil {
		return nil, err
	}

	res := make([]string, 0, len(names))
	for _, name := range names {
		if info, err := os.Stat(filepath.Join(path, name)); err != nil || info.IsDir() {
			continue
		}

		if strings.EqualFold(filepath.Ext(name), ext) {
			res = append(res, name)
		}
	}

	return res, nil
}

//TrimExt returns file name without its extension
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

//EnsureDir creates given directory (and parents) in case it does not exist
func EnsureDir(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0766); err != nil {
				return fmt.Errorf("EnsureDir: Error creating '%s' directory, got '%w'", path, err)
			}
			return nil
		}
		return err
	}

	return nil
}
