// Package snapshot persists the inventory as two JSON objects in an
// S3-compatible bucket (AWS S3 or MinIO).
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vbonduro/pantry/internal/domain"
)

const (
	areasObject = "storage-areas.json"
	itemsObject = "items.json"
)

type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // optional; e.g. a MinIO URL
	PathStyle bool
}

type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds a store on the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewWithClient(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// LoadAll reads both collections. A missing object loads as empty.
func (s *S3Store) LoadAll(ctx context.Context) ([]domain.StorageArea, []domain.PantryItem, error) {
	var areas []domain.StorageArea
	if err := s.get(ctx, areasObject, &areas); err != nil {
		return nil, nil, err
	}
	var items []domain.PantryItem
	if err := s.get(ctx, itemsObject, &items); err != nil {
		return nil, nil, err
	}
	return areas, items, nil
}

func (s *S3Store) SaveAreas(ctx context.Context, areas []domain.StorageArea) error {
	return s.put(ctx, areasObject, areas)
}

func (s *S3Store) SaveItems(ctx context.Context, items []domain.PantryItem) error {
	return s.put(ctx, itemsObject, items)
}

func (s *S3Store) key(name string) string {
	return s.prefix + name
}

func (s *S3Store) get(ctx context.Context, name string, v any) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to get %s: %w", s.key(name), err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.key(name), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.key(name), err)
	}
	return nil
}

func (s *S3Store) put(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key(name), err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", s.key(name), err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
