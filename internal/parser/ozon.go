package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

type ozonPage struct {
	WidgetStates map[string]json.RawMessage `json:"widgetStates"`
}

type ozonHeading struct {
	Title string `json:"title"`
}

type ozonSale struct {
	Price string `json:"price"`
}

type ozonBreadcrumbs struct {
	Breadcrumbs []struct {
		Name string `json:"name"`
	} `json:"breadcrumbs"`
}

type ozonGallery struct {
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

func ozonID(path string) (int64, error) {
	slug, ok := pathSegmentAfter(path, "product")
	if !ok {
		return 0, fmt.Errorf("%w: expected /product/<name>-<id>/", ErrInvalidURL)
	}
	if i := strings.LastIndex(slug, "-"); i >= 0 {
		slug = slug[i+1:]
	}
	id, err := strconv.ParseInt(slug, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: link has no numeric product id", ErrInvalidURL)
	}
	return id, nil
}

func (p *Parser) fetchOzon(ctx context.Context, id int64) (*Product, error) {
	endpoint := p.ozonAPI + "/api/composer-api.bx/page/json/v2?url=" + url.QueryEscape(fmt.Sprintf("/product/%d", id))

	var page ozonPage
	if err := p.getJSON(ctx, endpoint, "https://www.ozon.ru/", &page); err != nil {
		return nil, fmt.Errorf("ozon: %w", err)
	}

	var heading ozonHeading
	if !page.widget("webProductHeading", &heading) {
		return nil, ErrNotFound
	}

	product := &Product{Name: heading.Title, Category: unknown, Source: SourceOzon}
	if product.Name == "" {
		product.Name = unknown
	}

	var sale ozonSale
	if page.widget("webSale", &sale) {
		product.Price = ozonPrice(sale.Price)
	}

	var crumbs ozonBreadcrumbs
	if page.widget("seoBreadcrumbs", &crumbs) && len(crumbs.Breadcrumbs) > 1 {
		names := make([]string, 0, len(crumbs.Breadcrumbs)-1)
		for _, b := range crumbs.Breadcrumbs[1:] {
			names = append(names, b.Name)
		}
		product.Category = strings.Join(names, " / ")
	}

	var gallery ozonGallery
	if page.widget("webGallery", &gallery) && len(gallery.Images) > 0 {
		src := gallery.Images[0].Src
		if src != "" && !strings.HasPrefix(src, "http") {
			src = "https:" + src
		}
		product.ImageURL = src
	}
	return product, nil
}

// widget decodes the first widget whose key contains name. Ozon sends widget
// states either as objects or as JSON encoded strings.
func (p ozonPage) widget(name string, dest any) bool {
	keys := make([]string, 0, len(p.WidgetStates))
	for k := range p.WidgetStates {
		if strings.Contains(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return false
	}
	sort.Strings(keys)

	raw := p.WidgetStates[keys[0]]
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	return json.Unmarshal(raw, dest) == nil
}

// ozonPrice parses display prices like "12 990 ₽". Anything that is not a
// whole number after removing spaces and the currency sign yields zero.
func ozonPrice(s string) decimal.Decimal {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '₽' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return decimal.Zero
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
