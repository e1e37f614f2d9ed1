package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// sqliteMagic is the 16-byte header of every SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// ExportDatabase copies the application database at srcPath to dstPath,
// creating parent directories as needed.
func ExportDatabase(srcPath, dstPath string) error {
	if err := checkSQLiteFile(srcPath); err != nil {
		return err
	}
	return copyFile(srcPath, dstPath)
}

// ImportDatabase replaces the application database at dstPath with the file
// at srcPath. An existing destination is refused unless overwrite is set;
// with overwrite the old file is kept next to the new one as dstPath.bak.
func ImportDatabase(srcPath, dstPath string, overwrite bool) error {
	if err := checkSQLiteFile(srcPath); err != nil {
		return err
	}
	if _, err := os.Stat(dstPath); err == nil {
		if !overwrite {
			return errors.New("destination database exists; pass overwrite to replace it")
		}
		if err := os.Rename(dstPath, dstPath+".bak"); err != nil {
			return fmt.Errorf("back up existing database: %w", err)
		}
	}
	return copyFile(srcPath, dstPath)
}

// checkSQLiteFile rejects files that are not SQLite databases before they
// can clobber a real one.
func checkSQLiteFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open database file: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%s is not a SQLite database", path)
	}
	if !bytes.Equal(header, sqliteMagic) {
		return fmt.Errorf("%s is not a SQLite database", path)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dst dir: %w", err)
		}
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create dst: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy db: %w", err)
	}
	return out.Close()
}
