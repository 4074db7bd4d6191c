package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meur/equicenter/internal/models"
)

// ListSiteImages returns every configured site image ordered by key. It makes
// the store usable as an image directory.
func (s *Store) ListSiteImages(ctx context.Context) ([]models.SiteImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, image_key, url, alt, updated_at
		FROM site_images ORDER BY image_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.SiteImage{}
	for rows.Next() {
		var img models.SiteImage
		if err := rows.Scan(&img.ID, &img.Key, &img.URL, &img.Alt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetSiteImage returns the image stored under key
func (s *Store) GetSiteImage(ctx context.Context, key string) (*models.SiteImage, error) {
	var img models.SiteImage
	err := s.db.QueryRowContext(ctx, `
		SELECT id, image_key, url, alt, updated_at
		FROM site_images WHERE image_key = ?
	`, key).Scan(&img.ID, &img.Key, &img.URL, &img.Alt, &img.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// UpsertSiteImage sets the URL for key, creating the row if needed
func (s *Store) UpsertSiteImage(ctx context.Context, key string, in *models.SiteImageUpsert) (*models.SiteImage, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_images (id, image_key, url, alt, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(image_key) DO UPDATE SET url = excluded.url, alt = excluded.alt, updated_at = excluded.updated_at
	`, newID(), key, in.URL, in.Alt, now)
	if err != nil {
		return nil, fmt.Errorf("upsert site image %q: %w", key, err)
	}
	return s.GetSiteImage(ctx, key)
}

// BulkUpsertSiteImages writes several images in a transaction
func (s *Store) BulkUpsertSiteImages(ctx context.Context, images []models.SiteImage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO site_images (id, image_key, url, alt, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(image_key) DO UPDATE SET url = excluded.url, alt = excluded.alt, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, img := range images {
		id := img.ID
		if id == "" {
			id = newID()
		}
		if _, err := stmt.ExecContext(ctx, id, img.Key, img.URL, img.Alt, now); err != nil {
			return fmt.Errorf("upsert site image %q: %w", img.Key, err)
		}
	}

	return tx.Commit()
}

// DeleteSiteImage removes the image stored under key
func (s *Store) DeleteSiteImage(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM site_images WHERE image_key = ?`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
