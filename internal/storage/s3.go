package storage

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/aws/aws-sdk-go-v2/aws"
    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/credentials"
    "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/metrics"
)

// MaxPresignTTL is the S3 hard limit for presigned URL validity.
const MaxPresignTTL = 7 * 24 * time.Hour

// S3Client wraps the AWS S3 client for artifact storage. It speaks to AWS
// proper or to any S3-compatible endpoint (MinIO) when Endpoint is set.
type S3Client struct {
    client    *s3.Client
    uploader  *manager.Uploader
    presigner *s3.PresignClient
    bucket    string
    publicURL string
}

// Options configures the S3 client. AccessKey/SecretKey override the default
// credential chain; Endpoint switches to path-style addressing for
// S3-compatible stores.
type Options struct {
    Bucket    string
    Region    string
    Endpoint  string
    AccessKey string
    SecretKey string
    PublicURL string
}

// NewS3Client creates a new S3 client.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
    var loadOpts []func(*awscfg.LoadOptions) error
    if opts.Region != "" {
        loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
    }
    if opts.AccessKey != "" && opts.SecretKey != "" {
        loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
            credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
    }

    cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
    if err != nil {
        return nil, fmt.Errorf("failed to load AWS config: %w", err)
    }

    cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
        if opts.Endpoint != "" {
            o.BaseEndpoint = aws.String(opts.Endpoint)
            o.UsePathStyle = true
        }
    })

    return &S3Client{
        client:    cli,
        uploader:  manager.NewUploader(cli),
        presigner: s3.NewPresignClient(cli),
        bucket:    opts.Bucket,
        publicURL: strings.TrimRight(opts.PublicURL, "/"),
    }, nil
}

// Put uploads data under key and returns the object's stored URL.
func (s *S3Client) Put(ctx context.Context, key string, data []byte, mime string) (string, error) {
    _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
        Bucket:      aws.String(s.bucket),
        Key:         aws.String(key),
        Body:        bytes.NewReader(data),
        ContentType: aws.String(mime),
    })
    if err != nil {
        log.Error().Err(err).Str("key", key).Msg("S3 put failed")
        metrics.IncStorageOp("put", "error")
        return "", &StoreError{Op: "put", Key: key, Err: err}
    }

    metrics.IncStorageOp("put", "success")
    log.Info().Str("key", key).Str("mime", mime).Int("size", len(data)).Msg("uploaded object to S3")
    return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}

// Exists reports whether an object is stored under key.
func (s *S3Client) Exists(ctx context.Context, key string) (bool, error) {
    _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
        Bucket: aws.String(s.bucket),
        Key:    aws.String(key),
    })
    if err != nil {
        var nf *s3types.NotFound
        if errors.As(err, &nf) {
            return false, nil
        }
        return false, &StoreError{Op: "head", Key: key, Err: err}
    }
    return true, nil
}

// Presign returns a time-limited retrieval URL for key. TTLs above the S3
// limit are capped, not rejected.
func (s *S3Client) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
    if ttl <= 0 || ttl > MaxPresignTTL {
        ttl = MaxPresignTTL
    }
    req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
        Bucket: aws.String(s.bucket),
        Key:    aws.String(key),
    }, s3.WithPresignExpires(ttl))
    if err != nil {
        metrics.IncStorageOp("presign", "error")
        return "", &StoreError{Op: "presign", Key: key, Err: err}
    }

    metrics.IncStorageOp("presign", "success")
    log.Debug().Str("key", key).Dur("ttl", ttl).Msg("presigned retrieval URL")
    return req.URL, nil
}
