package contentrepo

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ScanTarget describes one table whose columns may embed media references.
type ScanTarget struct {
	// Kind names the source in logs and reports.
	Kind  string `yaml:"kind" json:"kind" validate:"required,sqlident"`
	Table string `yaml:"table" json:"table" validate:"required,sqlident"`
	// TextColumns hold free text scanned for markdown images and <img> tags.
	TextColumns []string `yaml:"text_columns" json:"text_columns,omitempty" validate:"dive,sqlident"`
	// ReferenceColumns hold a single bare reference, such as an avatar URL.
	ReferenceColumns []string `yaml:"reference_columns" json:"reference_columns,omitempty" validate:"dive,sqlident"`
	// ListColumns hold a JSON array of bare references.
	ListColumns []string `yaml:"list_columns" json:"list_columns,omitempty" validate:"dive,sqlident"`
}

// ScanTargetFile is the YAML document loaded from SCAN_TARGETS_FILE.
type ScanTargetFile struct {
	Targets []ScanTarget `yaml:"targets" json:"targets" validate:"required,min=1,dive"`
}

// DefaultScanTargets covers posts, comments and user profiles.
func DefaultScanTargets() []ScanTarget {
	return []ScanTarget{
		{Kind: "posts", Table: "posts", TextColumns: []string{"content"}, ReferenceColumns: []string{"cover_image"}},
		{Kind: "comments", Table: "comments", TextColumns: []string{"content"}, ListColumns: []string{"images"}},
		{Kind: "users", Table: "users", TextColumns: []string{"bio"}, ReferenceColumns: []string{"avatar"}},
	}
}

func (t ScanTarget) columns() []string {
	cols := make([]string, 0, len(t.TextColumns)+len(t.ReferenceColumns)+len(t.ListColumns))
	cols = append(cols, t.TextColumns...)
	cols = append(cols, t.ReferenceColumns...)
	return append(cols, t.ListColumns...)
}

// LoadScanTargets reads targets from a YAML file, or returns the defaults
// when path is empty.
func LoadScanTargets(path string) ([]ScanTarget, error) {
	if path == "" {
		return DefaultScanTargets(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scan targets: %w", err)
	}
	var file ScanTargetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scan targets: %w", err)
	}
	if err := ValidateScanTargets(file.Targets); err != nil {
		return nil, err
	}
	return file.Targets, nil
}

// ValidateScanTargets checks identifiers and that every target scans at least one column.
func ValidateScanTargets(targets []ScanTarget) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}

	if err := validate.Struct(ScanTargetFile{Targets: targets}); err != nil {
		return fmt.Errorf("invalid scan targets: %w", err)
	}
	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		if len(target.columns()) == 0 {
			return fmt.Errorf("invalid scan targets: %s has no columns", target.Kind)
		}
		if seen[target.Kind] {
			return fmt.Errorf("invalid scan targets: duplicate kind %s", target.Kind)
		}
		seen[target.Kind] = true
	}
	return nil
}
