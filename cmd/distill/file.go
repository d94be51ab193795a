package main

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/fwojciec/distill"
)

// Run executes the file command.
func (c *FileCmd) Run(deps *Dependencies) error {
	f, err := readFile(c.Path)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	res, err := deps.Files.Extract(deps.Ctx, f)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}
	return printResult(deps.Stdout, res, c.JSON)
}

// readFile loads path as an upload. Oversized files are refused before
// they are read.
func readFile(path string) (*distill.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > distill.MaxFileSize {
		return nil, distill.Errorf(distill.ETOOLARGE, "file exceeds the %d MiB limit", distill.MaxFileSize>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &distill.File{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}
