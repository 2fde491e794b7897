package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/coleski/win-voice/internal/asr"
	"github.com/coleski/win-voice/internal/log"
)

// CleanupTempFiles removes temporary audio left in dir by an earlier run.
func CleanupTempFiles(dir string, lg *log.Logger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		lg.Warn("cleanup: read dir failed", "dir", dir, "err", err)
		return 0
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, asr.TempPrefix) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			lg.Warn("cleanup: remove failed", "path", path, "err", err)
			continue
		}
		lg.Debug("cleanup: removed", "path", path)
		removed++
	}
	return removed
}

// outputPath is the transcript path for a file-mode input: explicit when
// given, else the input's base name with .txt in the working directory.
func outputPath(input, output string) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(".", base+".txt")
}
