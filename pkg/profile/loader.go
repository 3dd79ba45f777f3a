package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadWithContext reads a profile from a JSON or YAML file, or from an
// http(s) URL. It does not validate the result.
func LoadWithContext(ctx context.Context, source string) (p ApplicantProfile, err error) {
	if strings.TrimSpace(source) == "" {
		err = errors.New("no profile source given")
		return p, err
	}

	var data []byte
	parsedURL, urlErr := url.Parse(source)
	if urlErr == nil && (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") {
		data, err = fetchFromURL(ctx, source)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch profile from URL: %s", source)
			return p, err
		}
	} else {
		data, err = fetchFromFile(source)
		if err != nil {
			err = errors.Wrapf(err, "failed to read profile file: %s", source)
			return p, err
		}
	}

	p, err = Parse(data, formatOf(source, data))
	if err != nil {
		err = errors.Wrapf(err, "failed to parse profile: %s", source)
		return p, err
	}

	return p, err
}

// Parse decodes a profile document. format is "json" or "yaml".
func Parse(data []byte, format string) (p ApplicantProfile, err error) {
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&p)
	default:
		err = errors.Errorf("unsupported profile format: %s", format)
	}
	if err != nil {
		return p, err
	}

	p.Normalize()
	return p, err
}

// formatOf picks the decoder by file extension, then by the first
// non-space byte.
func formatOf(source string, data []byte) (format string) {
	path := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		path = u.Path
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = "json"
		return format
	case ".yaml", ".yml":
		format = "yaml"
		return format
	}

	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		format = "json"
		return format
	}
	format = "yaml"
	return format
}

func fetchFromFile(path string) (data []byte, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return data, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		err = errors.New("file is empty")
		return data, err
	}

	return data, err
}

func fetchFromURL(ctx context.Context, urlStr string) (data []byte, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return data, err
	}

	req.Header.Set("User-Agent", "sop-writer/1.0")
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, text/plain")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return data, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return data, err
	}

	// Profiles are a handful of paragraphs; 1 MiB is generous.
	data, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return data, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		err = errors.New("fetched profile is empty")
		return data, err
	}

	return data, err
}
