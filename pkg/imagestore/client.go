// Package imagestore отдаёт ссылки на изображения товаров из S3.
//
// Хранилище не обрабатывает картинки: витрина хранит ключи объектов
// и выдаёт покупателю временные presigned ссылки на чтение.
package imagestore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/vitrina-ai/pkg/config"
)

// URLSigner выдаёт временную ссылку на изображение по ключу объекта.
// Используется для мокания в тестах и внедрения зависимостей.
type URLSigner interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Client — S3 клиент хранилища изображений.
type Client struct {
	api    *minio.Client
	bucket string
	expiry time.Duration
}

var _ URLSigner = (*Client)(nil)

// New создаёт клиент из конфигурации витрины.
func New(cfg config.ImagesConfig) (*Client, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
		expiry: cfg.URLExpiry,
	}, nil
}

// PresignedURL возвращает временную ссылку на чтение объекта.
func (c *Client) PresignedURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}

	u, err := c.api.PresignedGetObject(ctx, c.bucket, key, c.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign '%s': %w", key, err)
	}
	return u.String(), nil
}

// ListKeys возвращает ключи всех объектов по префиксу.
//
// Используется сидером каталога для проверки, что у товаров
// есть изображения в бакете.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var keys []string
	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
