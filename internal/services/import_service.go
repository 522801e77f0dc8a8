package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"linenloft/internal/domain"
	"linenloft/internal/metrics"
	"linenloft/internal/repos"
	"linenloft/internal/validate"
)

// ImportService maps uploaded CSV rows to products. Rows referencing an
// unknown category are skipped, but every skip is reported back to the
// admin instead of being silently discarded.
type ImportService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewImportService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *ImportService {
	return &ImportService{Cats: cats, Prods: prods}
}

type SkippedRow struct {
	Line   int
	Reason string
}

type ImportReport struct {
	Created int
	Skipped []SkippedRow
}

// ImportCSV reads a header-first CSV stream. Recognized columns:
// name, description, shortDescription, price, discountedPrice, category,
// material, threadCount, dimensions, sizes, colors, images, tags, stock,
// isFeatured. Defaults: shortDescription is truncated from description,
// discountedPrice falls back to price, list fields are comma-split.
func (s *ImportService) ImportCSV(r io.Reader) (ImportReport, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return ImportReport{}, fmt.Errorf("csv import: read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var report ImportReport
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "malformed row"})
			metrics.ImportRows.WithLabelValues("skipped").Inc()
			continue
		}

		if reason := s.importRow(rec, field); reason != "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: reason})
			metrics.ImportRows.WithLabelValues("skipped").Inc()
			continue
		}
		report.Created++
		metrics.ImportRows.WithLabelValues("created").Inc()
	}
	return report, nil
}

func (s *ImportService) importRow(rec []string, field func([]string, string) string) (skipReason string) {
	name := field(rec, "name")
	desc := field(rec, "description")
	if name == "" || desc == "" {
		return "missing name or description"
	}

	cat, err := s.Cats.ByName(field(rec, "category"))
	if err != nil {
		return fmt.Sprintf("unknown category %q", field(rec, "category"))
	}

	price, ok := validate.Price(field(rec, "price"))
	if !ok {
		return "invalid price"
	}
	discounted := price
	if v := field(rec, "discountedPrice"); v != "" {
		if discounted, ok = validate.Price(v); !ok {
			return "invalid discountedPrice"
		}
	}
	if discounted > price {
		return "discountedPrice exceeds price"
	}

	short := field(rec, "shortDescription")
	if short == "" {
		short = validate.Truncate(desc, 100)
	}
	threadCount := 0
	if v := field(rec, "threadCount"); v != "" {
		threadCount, _ = strconv.Atoi(v)
	}
	stockQty := 0
	if v := field(rec, "stock"); v != "" {
		stockQty, _ = strconv.Atoi(v)
	}

	p := domain.Product{
		ID:              uuid.NewString(),
		CategoryID:      cat.ID,
		Name:            name,
		Slug:            validate.Slugify(name),
		Description:     desc,
		ShortDesc:       short,
		Price:           price,
		DiscountedPrice: discounted,
		Material:        field(rec, "material"),
		ThreadCount:     threadCount,
		Dimensions:      field(rec, "dimensions"),
		SizesJSON:       domain.EncodeList(validate.CSVList(field(rec, "sizes"))),
		ColorsJSON:      domain.EncodeList(validate.CSVList(field(rec, "colors"))),
		ImagesJSON:      domain.EncodeList(validate.CSVList(field(rec, "images"))),
		TagsJSON:        domain.EncodeList(validate.CSVList(field(rec, "tags"))),
		InStock:         stockQty > 0,
		StockQty:        stockQty,
		Featured:        field(rec, "isFeatured") == "true",
	}
	if err := s.Prods.Insert(p); err != nil {
		return fmt.Sprintf("insert failed: duplicate slug %q?", p.Slug)
	}
	return ""
}
