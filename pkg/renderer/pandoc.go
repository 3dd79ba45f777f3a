package renderer

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// RenderPDF converts the essay text file to PDF using pandoc. templatePath is
// optional; when empty pandoc's default LaTeX template is used.
func RenderPDF(textPath, outputPath, templatePath string) (err error) {
	err = checkPandocExists()
	if err != nil {
		return err
	}

	paths := []string{textPath}
	if templatePath != "" {
		paths = append(paths, templatePath)
	}
	err = validateFiles(paths...)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	args := []string{
		"-f", "markdown",
		"-t", "pdf",
		"-o", outputPath,
	}
	if templatePath != "" {
		args = append(args, "--template", templatePath)

		// Let LaTeX find class files next to the template.
		templateDir := filepath.Dir(templatePath)
		args = append(args, "--resource-path", templateDir)
	}
	args = append(args, textPath)

	//nolint:noctx // Context not available for exec.Command - pandoc is a long-running subprocess
	cmd := exec.Command("pandoc", args...)
	if templatePath != "" {
		texinputs := filepath.Dir(templatePath) + ":" + os.Getenv("TEXINPUTS")
		cmd.Env = append(os.Environ(), "TEXINPUTS="+texinputs)
	}

	var output []byte
	output, err = cmd.CombinedOutput()
	if err != nil {
		err = errors.Wrapf(err, "pandoc failed: %s", string(output))
		return err
	}

	return err
}

// checkPandocExists verifies pandoc is installed.
func checkPandocExists() (err error) {
	//nolint:noctx // Context not available for version check
	cmd := exec.Command("pandoc", "--version")
	err = cmd.Run()
	if err != nil {
		err = errors.New("pandoc not found in PATH (install pandoc to generate PDFs)")
		return err
	}
	return err
}

// validateFiles checks that required files exist.
func validateFiles(paths ...string) (err error) {
	for _, path := range paths {
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			err = errors.Errorf("file not found: %s", path)
			return err
		}
	}
	err = nil
	return err
}
