// Package s3 stores snapshots as JSON objects in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/scene"
)

// Config holds S3 backend settings.
type Config struct {
	Endpoint  string `json:"endpoint"` // optional, for MinIO and friends
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

// Store keeps one JSON object per logical root under a key prefix.
type Store struct {
	client *awss3.Client
	bucket string
	prefix string
}

// New creates an S3 snapshot store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Store{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (s *Store) keyFor(root string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", ";", "_")
	return s.prefix + r.Replace(root) + ".json"
}

// Load fetches and decodes the snapshot for a root. A missing object
// maps to fs.ErrNotExist.
func (s *Store) Load(ctx context.Context, root string) (*scene.Node, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(root)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("load snapshot %s: %w", root, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("load snapshot %s: %w", root, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", root, err)
	}
	var tree scene.Node
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", root, err)
	}
	return &tree, nil
}

// Save encodes and uploads the snapshot for a root.
func (s *Store) Save(ctx context.Context, root string, tree *scene.Node) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", root, err)
	}

	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.keyFor(root)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", root, err)
	}
	return nil
}

// List returns the stored root names under the prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var roots []string
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.prefix)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			roots = append(roots, strings.TrimSuffix(name, ".json"))
		}
	}
	return roots, nil
}

// Delete removes the snapshot for a root.
func (s *Store) Delete(ctx context.Context, root string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(root)),
	})
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", root, err)
	}
	return nil
}

// Type returns "s3".
func (s *Store) Type() string { return "s3" }

// Close is a no-op; the SDK client holds no connections to release.
func (s *Store) Close() error { return nil }
