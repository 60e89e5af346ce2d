package parser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

type wbResponse struct {
	Data struct {
		Products []struct {
			Name         string `json:"name"`
			SalePriceU   int64  `json:"salePriceU"`
			SubjName     string `json:"subj_name"`
			SubjRootName string `json:"subj_root_name"`
		} `json:"products"`
	} `json:"data"`
}

func wildberriesID(path string) (int64, error) {
	seg, ok := pathSegmentAfter(path, "catalog")
	if !ok {
		return 0, fmt.Errorf("%w: expected /catalog/<id>/", ErrInvalidURL)
	}
	id, err := strconv.ParseInt(seg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad product id %q", ErrInvalidURL, seg)
	}
	return id, nil
}

func (p *Parser) fetchWildberries(ctx context.Context, id int64) (*Product, error) {
	endpoint := fmt.Sprintf("%s/cards/v2/detail?appType=1&curr=rub&dest=-1257786&spp=30&nm=%d", p.wildberriesAPI, id)

	var resp wbResponse
	if err := p.getJSON(ctx, endpoint, "https://www.wildberries.ru/", &resp); err != nil {
		return nil, fmt.Errorf("wildberries: %w", err)
	}
	if len(resp.Data.Products) == 0 {
		return nil, ErrNotFound
	}

	item := resp.Data.Products[0]
	product := &Product{
		Name:     item.Name,
		Price:    decimal.NewFromInt(item.SalePriceU).Shift(-2),
		Category: item.SubjName,
		ImageURL: wildberriesImage(id),
		Source:   SourceWildberries,
	}
	if product.Name == "" {
		product.Name = unknown
	}
	if product.Category == "" {
		product.Category = item.SubjRootName
	}
	if product.Category == "" {
		product.Category = unknown
	}
	return product, nil
}

// wildberriesImage derives the CDN location of the first product photo.
func wildberriesImage(id int64) string {
	vol := id / 100000
	part := id / 1000
	basket := vol%100 + 1
	return fmt.Sprintf("https://basket-%02d.wb.ru/vol%d/part%d/%d/images/c516x688/1.jpg", basket, vol, part, id)
}
