package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Category is one entry of the closed P&C taxonomy.
type Category string

const (
	CategoryRegulatory  Category = "Regulatory"
	CategoryCatastrophe Category = "Catastrophe"
	CategoryAuto        Category = "Auto"
	CategoryHomeowners  Category = "Homeowners"
	CategoryCommercial  Category = "Commercial"
	CategoryReinsurance Category = "Reinsurance"
	CategoryClaims      Category = "Claims"
	CategoryInsurTech   Category = "InsurTech"
	CategoryMA          Category = "M&A"
	CategoryCyber       Category = "Cyber"
	CategoryPricing     Category = "Pricing"
)

// Taxonomy lists every allowed category in display order.
var Taxonomy = []Category{
	CategoryRegulatory,
	CategoryCatastrophe,
	CategoryAuto,
	CategoryHomeowners,
	CategoryCommercial,
	CategoryReinsurance,
	CategoryClaims,
	CategoryInsurTech,
	CategoryMA,
	CategoryCyber,
	CategoryPricing,
}

// Valid reports whether c belongs to the taxonomy.
func (c Category) Valid() bool {
	for _, known := range Taxonomy {
		if c == known {
			return true
		}
	}
	return false
}

const (
	minTitleLen   = 5
	minBulletLen  = 5
	minBullets    = 3
	maxBullets    = 5
	minCategories = 1
	maxCategories = 4
)

// Summary is the validated structured output of the reasoning service.
type Summary struct {
	Title      string
	Bullets    []string
	Categories []Category
	Relevance  float64
}

// ErrSchemaInvalid marks a reasoning-service payload that failed validation.
var ErrSchemaInvalid = errors.New("summary schema invalid")

// SchemaError carries the first rule a payload violated.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaInvalid, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaInvalid
}

type rawSummary struct {
	Title      *string  `json:"title"`
	Bullets    []string `json:"bullets"`
	Categories []string `json:"categories"`
	Relevance  *float64 `json:"relevance"`
}

// ParseSummary decodes and validates a JSON summary. It returns either a fully
// valid Summary or a *SchemaError; partial results are never returned.
func ParseSummary(raw []byte) (Summary, error) {
	var in rawSummary
	if err := json.Unmarshal(raw, &in); err != nil {
		return Summary{}, &SchemaError{Reason: fmt.Sprintf("decode: %v", err)}
	}

	if in.Title == nil || utf8.RuneCountInString(strings.TrimSpace(*in.Title)) < minTitleLen {
		return Summary{}, &SchemaError{Reason: "title too short"}
	}

	if len(in.Bullets) < minBullets || len(in.Bullets) > maxBullets {
		return Summary{}, &SchemaError{Reason: fmt.Sprintf("expected %d-%d bullets, got %d", minBullets, maxBullets, len(in.Bullets))}
	}
	bullets := make([]string, 0, len(in.Bullets))
	for i, b := range in.Bullets {
		b = strings.TrimSpace(b)
		if utf8.RuneCountInString(b) < minBulletLen {
			return Summary{}, &SchemaError{Reason: fmt.Sprintf("bullet %d too short", i)}
		}
		bullets = append(bullets, b)
	}

	if len(in.Categories) < minCategories || len(in.Categories) > maxCategories {
		return Summary{}, &SchemaError{Reason: fmt.Sprintf("expected %d-%d categories, got %d", minCategories, maxCategories, len(in.Categories))}
	}
	categories := make([]Category, 0, len(in.Categories))
	for _, c := range in.Categories {
		cat := Category(c)
		if !cat.Valid() {
			return Summary{}, &SchemaError{Reason: fmt.Sprintf("unknown category %q", c)}
		}
		categories = append(categories, cat)
	}

	if in.Relevance == nil {
		return Summary{}, &SchemaError{Reason: "relevance missing"}
	}
	if *in.Relevance < 0 || *in.Relevance > 1 {
		return Summary{}, &SchemaError{Reason: fmt.Sprintf("relevance %v out of [0,1]", *in.Relevance)}
	}

	return Summary{
		Title:      strings.TrimSpace(*in.Title),
		Bullets:    bullets,
		Categories: categories,
		Relevance:  *in.Relevance,
	}, nil
}
