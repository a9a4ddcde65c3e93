package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// readTransmission resolves a single transmission from, in order, the
// positional argument, the --input flag, and the config input.
func readTransmission(args []string, path string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}
	data, err := readSource(path, stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readLines returns the non-blank lines of the input source.
func readLines(path string, stdin io.Reader) ([]string, error) {
	r, closeFn, err := openSource(path, stdin)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	r, closeFn, err := openSource(path, stdin)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func openSource(path string, stdin io.Reader) (io.Reader, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
