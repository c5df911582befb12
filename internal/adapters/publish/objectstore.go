package publish

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"io"
	"net/url"
	"path"
	"strings"

	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/platform/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectOptions configures the S3 compatible publisher
type ObjectOptions struct {
	// Endpoint is a URL like https://s3.cloud.ru or a bare host:port
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	// Prefix is prepended to every object key. Keys are flat: the prefix
	// plus the base name of the published path
	Prefix string
}

// objectAPI is the part of *minio.Client we use, narrowed for tests
type objectAPI interface {
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

var _ objectAPI = (*minio.Client)(nil)

// Objects publishes to a bucket
type Objects struct {
	api    objectAPI
	opts   ObjectOptions
	log    logger.Logger
	active bool
}

// NewObjects builds the publisher. Missing credentials or bucket leave it
// inactive, every Publish then reports Skipped
func NewObjects(o ObjectOptions) (*Objects, error) {
	p := &Objects{opts: o, log: *logger.Named("publish.s3")}
	if o.Endpoint == "" || o.AccessKey == "" || o.SecretKey == "" || o.Bucket == "" {
		return p, nil
	}

	host, secure, err := splitEndpoint(o.Endpoint)
	if err != nil {
		return nil, err
	}
	c, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: secure,
		Region: o.Region,
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "s3 client for %s", host)
	}
	p.api = c
	p.active = true
	return p, nil
}

// splitEndpoint accepts "https://host[:port][/ignored]" or "host:port"
func splitEndpoint(ep string) (string, bool, error) {
	if !strings.Contains(ep, "://") {
		return ep, true, nil
	}
	u, err := url.Parse(ep)
	if err != nil || u.Host == "" {
		return "", false, perr.Newf(perr.ErrorCodeInvalidArgument, "bad s3 endpoint %q", ep)
	}
	return u.Host, !strings.EqualFold(u.Scheme, "http"), nil
}

// Name implements Publisher
func (p *Objects) Name() string { return "s3" }

// Publish uploads content as text/plain unless the stored object has the
// same MD5 ETag
func (p *Objects) Publish(ctx context.Context, name string, content []byte) (Outcome, error) {
	if !p.active {
		return Skipped, nil
	}
	key := p.opts.Prefix + path.Base(name)

	sum := md5.Sum(content) //nolint:gosec
	etag := hex.EncodeToString(sum[:])
	existed := false
	if info, err := p.api.StatObject(ctx, p.opts.Bucket, key, minio.StatObjectOptions{}); err == nil {
		existed = true
		if strings.Trim(info.ETag, `"`) == etag {
			return Unchanged, nil
		}
	} else if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		p.log.Debug().Err(err).Str("key", key).Msg("stat failed, uploading anyway")
	}

	_, err := p.api.PutObject(ctx, p.opts.Bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return Skipped, perr.Wrapf(err, perr.ErrorCodeUpstream, "s3 put %s/%s", p.opts.Bucket, key)
	}
	p.log.Info().Str("bucket", p.opts.Bucket).Str("key", key).Msg("object uploaded")
	if existed {
		return Updated, nil
	}
	return Created, nil
}
