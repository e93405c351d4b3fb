package system

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// LookPathDir searches the path list (a PATH value, passed as a
// string) for an executable named file, the way a POSIX shell
// resolves the command name of a simple command before exec'ing it.
// cwd anchors relative PATH entries such as "." and "".
func LookPathDir(ctx context.Context, sys System, cwd, path, file string) (string, error) {
	if strings.Contains(file, "/") {
		return checkStat(ctx, sys, cwd, file, true)
	}
	pathList := filepath.SplitList(path)
	if len(pathList) == 0 {
		pathList = []string{""}
	}
	for _, elem := range pathList {
		var candidate string
		switch elem {
		case "", ".":
			candidate = "." + string(filepath.Separator) + file
		default:
			candidate = filepath.Join(elem, file)
		}
		if f, err := checkStat(ctx, sys, cwd, candidate, true); err == nil {
			return f, nil
		}
	}
	return "", fmt.Errorf("%s: not found", file)
}

// checkStat resolves file relative to dir and checks it is a regular,
// and (if checkExec) executable, file.
func checkStat(ctx context.Context, sys System, dir, file string, checkExec bool) (string, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	info, err := sys.Stat(ctx, file, true)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: is a directory", file)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: not a regular file", file)
	}
	if checkExec && info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("%s: permission denied", file)
	}
	return file, nil
}
