package service

import (
	"context"
	"errors"
	"fmt"
	"go-catalog-api/config"
	"go-catalog-api/logger"
	"go-catalog-api/model"
	"go-catalog-api/repository"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

const maxConcurrentResolutions = 16

// ObjectPresigner issues presigned GET requests. *s3.PresignClient
// satisfies it.
type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// these are swapped in tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// NewS3Presigner builds a presign client from the s3 config section. Static
// credentials are used when configured, the default AWS chain otherwise.
func NewS3Presigner(ctx context.Context, cfg config.S3Config) (*s3.PresignClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return s3.NewPresignClient(client), nil
}

// AssetURLResolver turns stored asset URIs into URLs a client can fetch.
type AssetURLResolver struct {
	presigner ObjectPresigner
	ttl       time.Duration
}

func NewAssetURLResolver(presigner ObjectPresigner, ttl time.Duration) *AssetURLResolver {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AssetURLResolver{presigner: presigner, ttl: ttl}
}

// ResolveURL returns http(s) URLs unchanged, presigns scheme://bucket/key
// URIs and passes anything else through.
func (r *AssetURLResolver) ResolveURL(ctx context.Context, uri string) (string, error) {
	if isHTTPURL(uri) {
		return uri, nil
	}

	idx := strings.Index(uri, "://")
	if idx <= 0 {
		return uri, nil
	}

	bucket, key, _ := strings.Cut(uri[idx+len("://"):], "/")
	if bucket == "" || key == "" {
		return "", ErrInvalidObjectURI
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// isHTTPURL classifies by scheme alone; a malformed path is still the
// client's to fetch and must never reach the presigner.
func isHTTPURL(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

type AssetService struct {
	repo     repository.IAssetRepository
	resolver *AssetURLResolver
}

func NewAssetService(repo repository.IAssetRepository, resolver *AssetURLResolver) *AssetService {
	return &AssetService{repo: repo, resolver: resolver}
}

type indexedView struct {
	index int
	view  *model.AssetView
}

// ResolveAssets loads and resolves every id concurrently. Ids that cannot be
// loaded or signed are left out of the result; the rest keep request order.
func (s *AssetService) ResolveAssets(ctx context.Context, storeID int64, ids []int64) []*model.AssetView {
	p := pool.NewWithResults[indexedView]().WithMaxGoroutines(maxConcurrentResolutions)

	for i, id := range ids {
		p.Go(func() indexedView {
			return indexedView{index: i, view: s.resolveOne(ctx, storeID, id)}
		})
	}

	results := p.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

	views := make([]*model.AssetView, 0, len(results))
	for _, r := range results {
		if r.view != nil {
			views = append(views, r.view)
		}
	}
	return views
}

func (s *AssetService) resolveOne(ctx context.Context, storeID, id int64) *model.AssetView {
	log := logger.Log.WithFields(logrus.Fields{"store_id": storeID, "asset_id": id})

	asset, err := s.repo.GetByID(ctx, storeID, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.WithError(err).Error("Failed to load asset")
		}
		return nil
	}

	assetURL, err := s.resolver.ResolveURL(ctx, asset.URI)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve asset url")
		return nil
	}

	return &model.AssetView{
		ID:       asset.ID,
		Metadata: asset.Metadata,
		Position: asset.Position,
		URI:      asset.URI,
		AssetURL: assetURL,
	}
}
