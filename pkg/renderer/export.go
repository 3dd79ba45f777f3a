package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikogura/sop-writer/pkg/essay"
	"github.com/pkg/errors"
)

// Filename builds the download name {name}_{institution}_{program}_SOP.txt.
// Each part is sanitized so the result is safe on any filesystem.
func Filename(name, institution, program string) (filename string) {
	filename = BaseName(name, institution, program) + ".txt"
	return filename
}

// BaseName is Filename without the extension.
func BaseName(name, institution, program string) (base string) {
	parts := []string{
		sanitizePart(name),
		sanitizePart(institution),
		sanitizePart(program),
		"SOP",
	}
	base = strings.Join(parts, "_")
	return base
}

// sanitizePart lowercases s and collapses anything outside [a-z0-9] into
// single hyphens.
func sanitizePart(s string) (sanitized string) {
	sanitized = strings.ToLower(strings.TrimSpace(s))

	sanitized = strings.Map(func(r rune) (result rune) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result = r
			return result
		}
		result = '-'
		return result
	}, sanitized)

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	sanitized = strings.Trim(sanitized, "-")

	// Long program names would make unwieldy filenames.
	if len(sanitized) > 60 {
		sanitized = strings.TrimRight(sanitized[:60], "-")
	}

	if sanitized == "" {
		sanitized = "unknown"
	}

	return sanitized
}

// WriteEssay writes the essay text to outputPath, creating parent directories.
func WriteEssay(text, outputPath string) (err error) {
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	content := text
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	err = os.WriteFile(outputPath, []byte(content), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write essay file: %s", outputPath)
		return err
	}

	return err
}

// Summary is the word-count disclosure shown next to an essay.
func Summary(e essay.Essay) (summary string) {
	summary = fmt.Sprintf("Word count: %d", e.WordCount)
	if !e.BudgetMet {
		summary += fmt.Sprintf(" (target %d-%d words not met after %d attempts)", e.Budget.Min, e.Budget.Max, len(e.Attempts))
	}
	return summary
}
