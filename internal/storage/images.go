// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"fmt"

	"alcoholdb/internal/imaging"
)

// objectStore is the subset of *Client used by Images.
type objectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Images stores the variants of an alcohol image as "<key>_<variant>.jpg".
type Images struct {
	objects  objectStore
	variants []imaging.Variant
}

// NewImages returns an image store writing through c.
func NewImages(c *Client) *Images {
	return &Images{objects: c, variants: imaging.DefaultVariants}
}

// VariantKey returns the object key of one variant.
func VariantKey(key, variant string) string {
	return key + "_" + variant + ".jpg"
}

// Put generates every variant of original and uploads it under key.
func (s *Images) Put(ctx context.Context, key string, original []byte) error {
	processed, err := imaging.GenerateVariants(original, s.variants)
	if err != nil {
		return err
	}
	for _, p := range processed {
		if err := s.objects.Upload(ctx, VariantKey(key, p.Name), imaging.ContentType, p.Data); err != nil {
			return fmt.Errorf("upload %s variant: %w", p.Name, err)
		}
	}
	return nil
}

// URLs maps variant names to their public URLs.
func (s *Images) URLs(key string) map[string]string {
	out := make(map[string]string, len(s.variants))
	for _, v := range s.variants {
		out[v.Name] = s.objects.FileURL(VariantKey(key, v.Name))
	}
	return out
}

// RenameImages moves every variant from oldKey to newKey. S3 has no
// rename, so each variant is copied and the original deleted.
func (s *Images) RenameImages(ctx context.Context, oldKey, newKey string) error {
	if oldKey == newKey {
		return nil
	}
	for _, v := range s.variants {
		src, dst := VariantKey(oldKey, v.Name), VariantKey(newKey, v.Name)
		if err := s.objects.Copy(ctx, src, dst); err != nil {
			return err
		}
		if err := s.objects.Delete(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// DeleteImages removes every variant stored under key.
func (s *Images) DeleteImages(ctx context.Context, key string) error {
	for _, v := range s.variants {
		if err := s.objects.Delete(ctx, VariantKey(key, v.Name)); err != nil {
			return err
		}
	}
	return nil
}
