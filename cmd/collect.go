package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nikogura/sop-writer/pkg/profile"
	"github.com/pkg/errors"
)

// collectProfile asks for every catalog field on out and reads the answers from
// in. Single-line fields take one line. Multiline fields keep reading until an
// empty line. Required fields are asked again until answered.
func collectProfile(in io.Reader, out io.Writer) (p profile.ApplicantProfile, err error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(out, "Fill in your details to generate a personalized SOP for your Masters application.")
	fmt.Fprintln(out, "Fields marked * are required. Press Enter to skip optional fields.")
	fmt.Fprintln(out, "Longer answers may span several lines. Finish them with an empty line.")

	for _, f := range profile.Fields {
		var answer string
		answer, err = promptForInput(scanner, out, f)
		if err != nil {
			return p, err
		}
		p.Set(f.Key, answer)
	}

	return p, err
}

func promptForInput(scanner *bufio.Scanner, out io.Writer, f profile.Field) (input string, err error) {
	label := f.Label
	if f.Help != "" {
		label = fmt.Sprintf("%s (%s)", label, f.Help)
	}
	if f.Required {
		label += " *"
	}

	for {
		fmt.Fprintf(out, "%s: ", label)

		if !scanner.Scan() {
			err = scanner.Err()
			if err != nil {
				err = errors.Wrapf(err, "failed to read %s", f.Key)
				return input, err
			}
			if f.Required {
				err = errors.Errorf("input ended before required field %q was answered", f.Label)
				return input, err
			}
			return input, err
		}

		input = strings.TrimSpace(scanner.Text())
		if input != "" && f.Multiline {
			input, err = readParagraph(scanner, input)
			if err != nil {
				err = errors.Wrapf(err, "failed to read %s", f.Key)
				return input, err
			}
		}
		if input != "" || !f.Required {
			return input, err
		}

		fmt.Fprintln(out, "This field is required.")
	}
}

// readParagraph appends lines to first until an empty line or end of input.
func readParagraph(scanner *bufio.Scanner, first string) (text string, err error) {
	lines := []string{first}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}

	err = scanner.Err()
	text = strings.Join(lines, "\n")
	return text, err
}
