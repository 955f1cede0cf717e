// internals/helpers/oss/oss_client.go
package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"schoolku_backend/internals/configs"
)

// Publisher: tujuan upload file hasil export (PDF/XLSX). Mengembalikan URL publik.
type Publisher interface {
	Publish(ctx context.Context, key, contentType string, body []byte) (string, error)
}

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // optional: "exports"
	PublicBase string // optional: CDN base
}

func NewOSSService(cfg configs.AppConfig) (*OSSService, error) {
	if !cfg.OSSConfigured() {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts := configs.GetEnv("ALI_OSS_SECURITY_TOKEN"); sts != "" {
		client, err = oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// Verifikasi ringan lokasi bucket
	if loc, err := client.GetBucketLocation(cfg.OSSBucket); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			log.Printf("[OSS] warn: skip location check due to AccessDenied (bucket=%s). Continuing.", cfg.OSSBucket)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", cfg.OSSBucket, loc)
	}

	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   cfg.OSSEndpoint,
		BucketName: cfg.OSSBucket,
		Prefix:     strings.Trim(cfg.OSSPrefix, "/"),
		PublicBase: configs.GetEnv("ALI_OSS_PUBLIC_BASE"),
	}, nil
}

func (s *OSSService) UploadStream(ctx context.Context, key string, r io.Reader, contentType string, inline bool) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
	}
	if inline {
		opts = append(opts, oss.ContentDisposition("inline"))
	}
	return s.Bucket.PutObject(key, r, opts...)
}

func (s *OSSService) Publish(ctx context.Context, key, contentType string, body []byte) (string, error) {
	full := joinParts(s.Prefix, key)
	if err := s.UploadStream(ctx, full, bytes.NewReader(body), contentType, true); err != nil {
		return "", err
	}
	return s.PublicURL(full), nil
}

func (s *OSSService) DeleteObject(ctx context.Context, key string) error {
	return s.Bucket.DeleteObject(key, oss.WithContext(ctx))
}

/* =======================================================================
   Public URL & Key utils
======================================================================= */

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if base := strings.TrimSpace(s.PublicBase); base != "" {
		return strings.TrimRight(base, "/") + "/" + key
	}
	if s.Endpoint == "" || s.BucketName == "" {
		return ""
	}
	end := s.Endpoint
	end = strings.TrimPrefix(end, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func joinParts(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

/* =======================================================================
   Memory publisher (dev / STORE=memory / test)
======================================================================= */

type MemoryPublisher struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{Objects: map[string][]byte{}}
}

func (p *MemoryPublisher) Publish(_ context.Context, key, _ string, body []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Objects[key] = append([]byte(nil), body...)
	return "memory://" + key, nil
}

// NewPublisher: OSS bila ENV lengkap, selain itu publisher in-memory.
func NewPublisher(cfg configs.AppConfig) Publisher {
	if cfg.OSSConfigured() {
		svc, err := NewOSSService(cfg)
		if err == nil {
			return svc
		}
		log.Printf("[OSS] init gagal, fallback memory publisher: %v", err)
	}
	return NewMemoryPublisher()
}
