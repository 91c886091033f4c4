package contentrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/janhq/media-janitor/internal/domain/gc"
	"github.com/janhq/media-janitor/internal/domain/media"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// TableSource reads references out of the columns named by a ScanTarget.
type TableSource struct {
	db     *gorm.DB
	target ScanTarget
}

var _ gc.ReferenceSource = (*TableSource)(nil)

func NewTableSource(db *gorm.DB, target ScanTarget) *TableSource {
	return &TableSource{db: db, target: target}
}

// NewSources builds one TableSource per target.
func NewSources(db *gorm.DB, targets []ScanTarget) []gc.ReferenceSource {
	sources := make([]gc.ReferenceSource, 0, len(targets))
	for _, target := range targets {
		sources = append(sources, NewTableSource(db, target))
	}
	return sources
}

func (s *TableSource) Name() string {
	return s.target.Kind
}

// CollectReferences streams every row of the table.
func (s *TableSource) CollectReferences(ctx context.Context, scanner *media.Scanner, into media.ReferenceSet) error {
	rows, err := s.db.WithContext(ctx).Table(s.target.Table).Select(s.target.columns()).Rows()
	if err != nil {
		return fmt.Errorf("query %s: %w", s.target.Table, err)
	}
	return s.scanRows(rows, scanner, into)
}

// ContainsReference re-reads only the rows whose columns mention key and
// parses them the same way CollectReferences does. A plain link or a longer
// key sharing the same prefix does not count as a reference.
func (s *TableSource) ContainsReference(ctx context.Context, scanner *media.Scanner, key string) (bool, error) {
	cols := s.target.columns()
	conds := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	pattern := "%" + likeEscaper.Replace(key) + "%"
	for _, col := range cols {
		conds = append(conds, fmt.Sprintf(`CAST(%s AS TEXT) LIKE ? ESCAPE '\'`, col))
		args = append(args, pattern)
	}

	rows, err := s.db.WithContext(ctx).
		Table(s.target.Table).
		Select(cols).
		Where(strings.Join(conds, " OR "), args...).
		Rows()
	if err != nil {
		return false, fmt.Errorf("search %s: %w", s.target.Table, err)
	}
	refs := media.NewReferenceSet()
	if err := s.scanRows(rows, scanner, refs); err != nil {
		return false, err
	}
	return refs.Has(key), nil
}

// scanRows dispatches each column by its kind and closes rows.
func (s *TableSource) scanRows(rows *sql.Rows, scanner *media.Scanner, into media.ReferenceSet) error {
	defer rows.Close()

	cols := s.target.columns()
	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	textEnd := len(s.target.TextColumns)
	refEnd := textEnd + len(s.target.ReferenceColumns)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s: %w", s.target.Table, err)
		}
		for i, v := range values {
			if !v.Valid || v.String == "" {
				continue
			}
			switch {
			case i < textEnd:
				scanner.ExtractInto(v.String, into)
			case i < refEnd:
				scanner.AddReference(v.String, into)
			default:
				addList(scanner, v.String, into)
			}
		}
	}
	return rows.Err()
}

// addList treats a value that is not a JSON array as free text.
func addList(scanner *media.Scanner, raw string, into media.ReferenceSet) {
	var refs []string
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		scanner.ExtractInto(raw, into)
		return
	}
	for _, ref := range refs {
		scanner.AddReference(ref, into)
	}
}
