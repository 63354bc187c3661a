package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-extension-dashboard/internal/center"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ErrImportFormat = errors.New("invalid import file")

// Row outcomes reported by ImportCenters.
const (
	ImportCreated   = "created"
	ImportDuplicate = "duplicate"
	ImportInvalid   = "invalid"
)

type ImportRowResult struct {
	Row    int    `json:"row"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ImportReport struct {
	Created    int               `json:"created"`
	Duplicates int               `json:"duplicates"`
	Invalid    int               `json:"invalid"`
	Rows       []ImportRowResult `json:"rows"`
}

type CenterImportService interface {
	ImportCenters(ctx context.Context, file io.Reader) (*ImportReport, error)
}

type centerImportService struct {
	centers CenterService
	logger  *zap.Logger
}

func NewCenterImportService(centers CenterService, logger *zap.Logger) CenterImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &centerImportService{centers: centers, logger: logger.Named("center_import")}
}

// ImportCenters creates one center per row of the first sheet. The header
// row names the columns: name and slug are required, description and
// is_default optional. A bad row does not stop the import.
func (s *centerImportService) ImportCenters(ctx context.Context, file io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrImportFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrImportFormat)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read Excel rows: %v", ErrImportFormat, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: Excel file is empty", ErrImportFormat)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "slug"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrImportFormat, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	report := &ImportReport{Rows: make([]ImportRowResult, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		rowNum := i + 2
		name, slug := cell(row, "name"), cell(row, "slug")
		if name == "" && slug == "" {
			continue
		}

		isDefault, _ := strconv.ParseBool(cell(row, "is_default"))
		req := &CreateCenterRequest{
			Name:        name,
			Slug:        strings.ToLower(slug),
			Description: cell(row, "description"),
			IsDefault:   isDefault,
		}

		result := ImportRowResult{Row: rowNum, Slug: req.Slug}
		switch _, err := s.centers.Create(ctx, req); {
		case err == nil:
			result.Status = ImportCreated
			report.Created++
		case errors.Is(err, center.ErrDuplicateSlug):
			result.Status = ImportDuplicate
			result.Error = err.Error()
			report.Duplicates++
		default:
			result.Status = ImportInvalid
			result.Error = err.Error()
			report.Invalid++
		}
		report.Rows = append(report.Rows, result)
	}

	s.logger.Info("center import finished",
		zap.Int("created", report.Created), zap.Int("duplicates", report.Duplicates), zap.Int("invalid", report.Invalid))
	return report, nil
}
