package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/service/admin"
)

type ProductWriter interface {
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type BrandWriter interface {
	Upsert(ctx context.Context, brand domain.Brand) (*domain.Brand, error)
}

// CSVImporter reads catalog CSV files and creates products, upserting their brands first.
//
// Expected headers: name, brand, price, gender, type, image_url. Optional: brand_display_name,
// original_price, discount.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	brands   BrandWriter
	logger   zerolog.Logger
}

var requiredHeaders = []string{"name", "brand", "price", "gender", "type", "image_url"}

func NewCSVImporter(r io.Reader, products ProductWriter, brands BrandWriter, logger zerolog.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:   csvr,
		products: products,
		brands:   brands,
		logger:   logger,
	}
}

// Run imports every row. The first invalid row stops the import; rows before it stay imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			return 0, fmt.Errorf("%w: missing column %q", domain.ErrInvalidRequest, h)
		}
	}

	seenBrands := map[string]bool{}
	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		if blank(record) {
			continue
		}
		p, displayName, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if err := admin.ValidateProduct(p); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}

		if !seenBrands[p.Brand] {
			if _, err := i.brands.Upsert(ctx, domain.Brand{Name: p.Brand, DisplayName: displayName}); err != nil {
				return imported, fmt.Errorf("upsert brand %q: %w", p.Brand, err)
			}
			seenBrands[p.Brand] = true
		}
		if _, err := i.products.Create(ctx, p); err != nil {
			return imported, fmt.Errorf("create product %q: %w", p.Name, err)
		}
		imported++
	}

	i.logger.Info().Int("products", imported).Int("brands", len(seenBrands)).Msg("catalog import finished")
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Product, string, error) {
	p := domain.Product{
		Name:     pick(record, index, "name"),
		Brand:    strings.ToLower(pick(record, index, "brand")),
		Gender:   strings.ToLower(pick(record, index, "gender")),
		Type:     strings.ToLower(pick(record, index, "type")),
		ImageURL: pick(record, index, "image_url"),
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return p, "", fmt.Errorf("%w: invalid price", domain.ErrInvalidRequest)
	}
	p.Price = price

	if raw := pick(record, index, "original_price"); raw != "" {
		op, err := decimal.NewFromString(raw)
		if err != nil {
			return p, "", fmt.Errorf("%w: invalid original_price", domain.ErrInvalidRequest)
		}
		p.OriginalPrice = &op
	}
	if raw := pick(record, index, "discount"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return p, "", fmt.Errorf("%w: invalid discount", domain.ErrInvalidRequest)
		}
		p.Discount = d
	}

	displayName := pick(record, index, "brand_display_name")
	if displayName == "" {
		displayName = titleCase(p.Brand)
	}
	return p, displayName, nil
}

// titleCase turns a brand slug like "new-balance" into "New Balance".
func titleCase(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
