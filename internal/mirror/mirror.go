// Package mirror implements the optional Collection Mirror: it syncs an
// S3-compatible bucket's objects into the local images directory before
// the first scan, skipping objects whose content is already present
// according to a small disk-resident manifest cache.
package mirror

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/net/http2"
	"lukechampine.com/blake3"

	"github.com/sashko-guz/imhumane/internal/cache"
	"github.com/sashko-guz/imhumane/internal/logger"
	"github.com/sashko-guz/imhumane/internal/metrics"
)

var log = logger.Component("CollectionMirror")

// Config carries everything the mirror needs to reach a bucket and decide
// where objects land on disk.
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	BaseURL   string // non-empty selects an S3-compatible endpoint (MinIO etc.) with static credentials; both modes use path-style addressing
	Prefix    string // object-key prefix corresponding to the images root

	ManifestDir string
	ManifestTTL time.Duration
}

// Mirror pulls a bucket's objects into a local images directory, grouping
// them by their first path segment below Prefix the same way the
// Collection Registry groups files by directory.
type Mirror struct {
	client   *s3.Client
	bucket   string
	prefix   string
	manifest *cache.Manifest
}

func New(cfg Config) (*Mirror, error) {
	manifest, err := cache.NewManifest(cfg.ManifestDir, cfg.ManifestTTL)
	if err != nil {
		return nil, fmt.Errorf("collection mirror: %w", err)
	}

	client, err := newS3Client(cfg)
	if err != nil {
		return nil, fmt.Errorf("collection mirror: %w", err)
	}

	return &Mirror{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, manifest: manifest}, nil
}

func newS3Client(cfg Config) (*s3.Client, error) {
	httpClient := newHTTPClient()

	if cfg.BaseURL != "" {
		log.Infof("using S3-compatible endpoint %s for bucket %s", cfg.BaseURL, cfg.Bucket)
		return s3.New(s3.Options{
			Region:       cfg.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			BaseEndpoint: aws.String(cfg.BaseURL),
			UsePathStyle: true,
			HTTPClient:   httpClient,
		}), nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(httpClient),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.UsePathStyle = true }), nil
}

// newHTTPClient builds a pooled, HTTP/2-enabled client tuned for the
// many-small-object access pattern a collection sync produces.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		log.Warnf("failed to configure HTTP/2 for the mirror client: %v", err)
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}

// Sync lists every object under Prefix, fetches each object's body, and
// writes into root any whose content hash is not already recorded in the
// manifest cache, preserving the object key's directory structure below
// Prefix. Every body is fetched on every run; the manifest only decides
// whether it is written. It runs once at startup, before the registry's
// first scan.
func (m *Mirror) Sync(ctx context.Context, root string) error {
	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(m.prefix),
	})

	var downloaded, skipped int
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("collection mirror: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			relKey := strings.TrimPrefix(strings.TrimPrefix(key, m.prefix), "/")
			if relKey == "" || strings.HasSuffix(relKey, "/") {
				continue
			}

			ok, err := m.syncOne(ctx, root, key, relKey)
			if err != nil {
				log.Warnf("skipping %s: %v", key, err)
				continue
			}
			if ok {
				downloaded++
			} else {
				skipped++
			}
		}
	}

	log.Infof("sync complete: %d downloaded, %d unchanged", downloaded, skipped)
	return nil
}

// syncOne fetches a single object and writes it under root unless its
// content hash is already recorded for relKey, returning true if it was
// written. Whether the local file still exists is not checked.
func (m *Mirror) syncOne(ctx context.Context, root, key, relKey string) (bool, error) {
	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, err
	}
	defer result.Body.Close()

	data := new(bytes.Buffer)
	if _, err := data.ReadFrom(result.Body); err != nil {
		return false, fmt.Errorf("read body: %w", err)
	}

	hash := blake3.Sum256(data.Bytes())
	if m.manifest.Seen(relKey, hash) {
		return false, nil
	}

	dstPath := filepath.Join(root, filepath.FromSlash(relKey))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return false, fmt.Errorf("create destination dir: %w", err)
	}
	if err := os.WriteFile(dstPath, data.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", dstPath, err)
	}

	if err := m.manifest.Record(relKey, hash); err != nil {
		log.Warnf("manifest record failed for %s: %v", relKey, err)
	}

	metrics.MirrorObjectsDownloaded.Inc()
	return true, nil
}
