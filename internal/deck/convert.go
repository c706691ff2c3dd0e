package deck

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ConvertToPDF converts an office deck (pptx, ppt, odp, ...) to PDF with
// headless LibreOffice. The input keeps its sniffed extension so LibreOffice
// picks the right import filter. Returns the converted PDF path; the caller
// owns its removal.
func ConvertToPDF(ctx context.Context, inputPath, extension string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	outDir, err := os.MkdirTemp("", "deckconv-*")
	if err != nil {
		return "", err
	}

	// soffice derives the output name from the input name, so give the
	// input a well-known name inside outDir first.
	named := filepath.Join(outDir, "deck"+normalizeExt(extension))
	if err := copyFile(inputPath, named); err != nil {
		os.RemoveAll(outDir)
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cctx, "libreoffice",
		"--headless",
		"--nologo",
		"--nolockcheck",
		"--convert-to", "pdf",
		"--outdir", outDir,
		named,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.RemoveAll(outDir)
		if cctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("libreoffice conversion timed out after %s", timeout)
		}
		return "", fmt.Errorf("libreoffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	converted := filepath.Join(outDir, "deck.pdf")
	if _, err := os.Stat(converted); err != nil {
		os.RemoveAll(outDir)
		return "", fmt.Errorf("libreoffice produced no output: %w", err)
	}

	// move the pdf out so the temp dir can go away
	final, err := os.CreateTemp("", "deckpdf-*.pdf")
	if err != nil {
		os.RemoveAll(outDir)
		return "", err
	}
	final.Close()
	if err := copyFile(converted, final.Name()); err != nil {
		os.Remove(final.Name())
		os.RemoveAll(outDir)
		return "", err
	}
	os.RemoveAll(outDir)

	log.Info().
		Str("input", inputPath).
		Str("pdf", final.Name()).
		Dur("duration", time.Since(start)).
		Msg("converted deck to pdf")
	return final.Name(), nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
