package reports

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/checkers"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// ParsedReport is an analyzer result decoded from an input document, before
// it is matched against stored reports.
type ParsedReport struct {
	BugHash      string
	AnalyzerName string
	CheckerName  string
	Severity     models.Severity
	FilePath     string
	Line         int
	Column       int
	Message      string
	ReviewStatus string
}

// document mirrors the JSON emitted by `CodeChecker parse --export json`.
type document struct {
	Version int         `json:"version"`
	Reports []rawReport `json:"reports"`
}

type rawReport struct {
	AnalyzerName string `json:"analyzer_name"`
	CheckerName  string `json:"checker_name"`
	Severity     string `json:"severity"`
	File         struct {
		Path         string `json:"path"`
		OriginalPath string `json:"original_path"`
	} `json:"file"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Message      string `json:"message"`
	ReportHash   string `json:"report_hash"`
	ReviewStatus string `json:"review_status"`
}

// Parse decodes a report document. Severity words are resolved with
// ResolveSeverity against cm.
func Parse(r io.Reader, cm *checkers.Map) ([]ParsedReport, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding report document: %w", err)
	}

	out := make([]ParsedReport, 0, len(doc.Reports))
	for i, rr := range doc.Reports {
		path := firstNonEmpty(rr.File.OriginalPath, rr.File.Path)
		if strings.TrimSpace(rr.CheckerName) == "" || path == "" {
			return nil, fmt.Errorf("report %d: checker_name and file.path are required", i)
		}
		p := ParsedReport{
			BugHash:      strings.TrimSpace(rr.ReportHash),
			AnalyzerName: strings.TrimSpace(rr.AnalyzerName),
			CheckerName:  strings.TrimSpace(rr.CheckerName),
			Severity:     ResolveSeverity(rr.Severity, rr.CheckerName, cm),
			FilePath:     normalizePath(path),
			Line:         rr.Line,
			Column:       rr.Column,
			Message:      strings.TrimSpace(rr.Message),
			ReviewStatus: strings.ToLower(strings.TrimSpace(rr.ReviewStatus)),
		}
		if p.BugHash == "" {
			p.BugHash = fingerprint(p)
		}
		out = append(out, p)
	}
	return dedup(out), nil
}

// ResolveSeverity turns a raw severity word into a Severity. Canonical labels
// win, then analyzer-specific words, then the checker map.
func ResolveSeverity(raw, checker string, cm *checkers.Map) models.Severity {
	if s := models.SeverityFromString(raw); s != models.SeverityInvalid && s != models.SeverityUnspecified {
		return s
	}
	if s := models.MapSeverity(raw); s != models.SeverityUnspecified {
		return s
	}
	if s, ok := cm.Lookup(checker); ok {
		return s
	}
	return models.SeverityUnspecified
}

func fingerprint(p ParsedReport) string {
	h := sha256.New()
	for _, part := range []string{p.AnalyzerName, p.CheckerName, p.FilePath, strconv.Itoa(p.Line), p.Message} {
		_, _ = io.WriteString(h, part)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func dedup(in []ParsedReport) []ParsedReport {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p.BugHash]; ok {
			continue
		}
		seen[p.BugHash] = struct{}{}
		out = append(out, p)
	}
	return out
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(p, "./")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
