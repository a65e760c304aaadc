package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	// ExportLimit caps the rows written by a single export.
	ExportLimit = 10000
)

var errAdminOnly = shared.NewFieldError(shared.ErrPermissionDenied, "", shared.CodePermissionDenied, "audit timeline is restricted to system admins")

// Service serves the audit timeline. Entries span brands, so only system
// admins may read them.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of entries, newest first.
func (s *Service) Timeline(ctx context.Context, actor brandscope.Actor, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	if !actor.IsSystemAdmin() {
		return Result{}, errAdminOnly
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Window(ctx, normalise(filters), pageSize+1, (page-1)*pageSize)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching entry up to ExportLimit.
func (s *Service) Export(ctx context.Context, actor brandscope.Actor, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	if !actor.IsSystemAdmin() {
		return nil, errAdminOnly
	}
	return s.repo.All(ctx, normalise(filters), ExportLimit)
}

func normalise(filters TimelineFilters) TimelineFilters {
	filters.Entity = strings.TrimSpace(filters.Entity)
	filters.EntityID = strings.TrimSpace(filters.EntityID)
	filters.Action = strings.TrimSpace(filters.Action)
	return filters
}

// WriteCSV serialises timeline rows.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"At", "Actor", "Action", "Entity", "Entity ID", "Meta"}); err != nil {
		return err
	}
	for _, row := range rows {
		actor := row.ActorEmail
		if actor == "" && row.ActorID.Valid {
			actor = row.ActorID.UUID.String()
		}
		meta := ""
		if len(row.Meta) > 0 {
			raw, err := json.Marshal(row.Meta)
			if err != nil {
				return err
			}
			meta = string(raw)
		}
		if err := writer.Write([]string{row.At.UTC().Format(time.RFC3339), actor, row.Action, row.Entity, row.EntityID, meta}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
