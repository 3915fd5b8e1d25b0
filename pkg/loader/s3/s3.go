package s3

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/loader"
)

// S3BookFileLoader is a BookFileLoader implementation that loads book texts
// from an S3 bucket. It uses the AWS SDK v2 for Go.
//
// This loader is useful when the source corpus is archived in object storage
// instead of the local filesystem.
type S3BookFileLoader struct {
	bucket string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3BookFileLoaderWithClient creates a new S3BookFileLoader using an
// existing s3.Client. This is useful for reusing a preconfigured AWS client.
func NewS3BookFileLoaderWithClient(bucket string, client *s3.Client) *S3BookFileLoader {
	return &S3BookFileLoader{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3BookFileLoaderParams defines the configuration parameters for
// creating a new S3BookFileLoader.
//
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
type NewS3BookFileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3BookFileLoader creates a new S3BookFileLoader using the provided
// parameters. It initializes an AWS S3 client with static credentials and
// the given endpoint/region.
func NewS3BookFileLoader(ctx context.Context, params NewS3BookFileLoaderParams) (*S3BookFileLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)

	return &S3BookFileLoader{
		bucket: params.Bucket,
		client: client,
		cache:  make(map[string][]byte),
	}, nil
}

// GetFileText retrieves the contents of the given BookFile from the
// configured S3 bucket. It implements the BookFileLoader interface.
func (l *S3BookFileLoader) GetFileText(ctx context.Context, file loader.BookFile) ([]byte, error) {
	cacheKey := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[cacheKey]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(cacheKey, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[cacheKey]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.FilePath),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}

		byts := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[cacheKey] = byts
		l.cacheMu.Unlock()

		return byts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ListTextKeys returns the keys of all plain-text objects under a prefix.
func (l *S3BookFileLoader) ListTextKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listOutput, err := l.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, err
		}

		for _, obj := range listOutput.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key
			if hasTextSuffix(key) {
				keys = append(keys, key)
			}
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}

	return keys, nil
}

func hasTextSuffix(key string) bool {
	for _, suffix := range []string{".txt", ".md"} {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
