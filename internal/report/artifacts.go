package report

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	defaultReportName    = "report.json"
	defaultChecksumsName = "checksums.sha256"
	defaultRunLogName    = "cockpit.run.log"
)

func DefaultChecksumsPath(outJSONPath string) string {
	return siblingPath(outJSONPath, defaultChecksumsName)
}

func DefaultRunLogPath(outJSONPath string) string {
	return siblingPath(outJSONPath, defaultRunLogName)
}

func siblingPath(outJSONPath, name string) string {
	if strings.TrimSpace(outJSONPath) == "" {
		outJSONPath = defaultReportName
	}
	return filepath.Join(filepath.Dir(outJSONPath), name)
}

// Checksum is one line of a sha256sum-compatible manifest.
type Checksum struct {
	SHA256 string
	Name   string
}

func ComputeChecksums(artifactPaths []string) ([]Checksum, error) {
	clean := make([]string, 0, len(artifactPaths))
	for _, p := range artifactPaths {
		if strings.TrimSpace(p) != "" {
			clean = append(clean, p)
		}
	}
	sort.Strings(clean)
	out := make([]Checksum, 0, len(clean))
	for _, p := range clean {
		sum, err := FileSHA256(p)
		if err != nil {
			return nil, fmt.Errorf("checksum read failed for %s: %w", p, err)
		}
		out = append(out, Checksum{SHA256: sum, Name: filepath.Base(p)})
	}
	return out, nil
}

func WriteChecksums(checksumsPath string, artifactPaths []string) error {
	sums, err := ComputeChecksums(artifactPaths)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	for _, c := range sums {
		fmt.Fprintf(&b, "%s  %s\n", c.SHA256, c.Name)
	}
	return WriteFile(checksumsPath, b.Bytes())
}

// VerifyChecksums re-hashes every artifact listed in the manifest, resolving
// names relative to the manifest's directory. It returns the names that no
// longer match.
func VerifyChecksums(checksumsPath string) ([]string, error) {
	raw, err := os.ReadFile(checksumsPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(checksumsPath)
	var mismatched []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		sum, name, ok := strings.Cut(text, "  ")
		if !ok || len(sum) != sha256.Size*2 {
			return nil, fmt.Errorf("%s line %d: malformed checksum entry", checksumsPath, line)
		}
		got, err := FileSHA256(filepath.Join(dir, name))
		if err != nil || got != sum {
			mismatched = append(mismatched, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return mismatched, nil
}

func FileSHA256(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}

func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
