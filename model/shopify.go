package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedTaxonomy = errors.New("malformed shopify taxonomy")

type ShopifyValue struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

type ShopifyAttribute struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Handle string         `json:"handle"`
	Values []ShopifyValue `json:"values"`
}

type ShopifyCategory struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	FullName   string             `json:"full_name"`
	Attributes []ShopifyAttribute `json:"attributes"`
}

// Code is the short category id, "aa-1" for gid://shopify/TaxonomyCategory/aa-1.
func (c *ShopifyCategory) Code() string {
	return c.ID[strings.LastIndex(c.ID, "/")+1:]
}

func (c *ShopifyCategory) Validate() error {
	if c.ID == "" || c.Name == "" {
		return fmt.Errorf("%w: category without id or name", ErrMalformedTaxonomy)
	}
	for _, a := range c.Attributes {
		if a.Handle == "" || a.Name == "" {
			return fmt.Errorf("%w: attribute without handle or name in %s", ErrMalformedTaxonomy, c.ID)
		}
		for _, v := range a.Values {
			if v.Handle == "" || v.Name == "" {
				return fmt.Errorf("%w: value without handle or name in %s/%s", ErrMalformedTaxonomy, c.ID, a.Handle)
			}
		}
	}
	return nil
}

type ShopifyVertical struct {
	Name       string            `json:"name"`
	Prefix     string            `json:"prefix"`
	Categories []ShopifyCategory `json:"categories"`
}

// ShopifyTaxonomy is the published taxonomy document.
type ShopifyTaxonomy struct {
	Version   string            `json:"version"`
	Verticals []ShopifyVertical `json:"verticals"`
}

func (t *ShopifyTaxonomy) Validate() error {
	if len(t.Verticals) == 0 {
		return fmt.Errorf("%w: no verticals", ErrMalformedTaxonomy)
	}
	for vi := range t.Verticals {
		for ci := range t.Verticals[vi].Categories {
			if err := t.Verticals[vi].Categories[ci].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
