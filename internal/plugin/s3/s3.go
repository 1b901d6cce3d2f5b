// Package s3 implements a notification service kind that archives
// delivered message bodies as objects in an S3 bucket, one object per
// job, keyed by topic and timestamp.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin uploads each job's body as a new object. The key prefix and
// bucket are per-target options; the session is built once and shared.
type Plugin struct {
	client *s3.S3
}

// New constructs an s3 service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	region := sc.StringOption("region", "")
	if region == "" {
		return fmt.Errorf("s3 plugin: target %s requires a region option", sc.ServiceName)
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return fmt.Errorf("s3 plugin: %w", err)
	}
	p.client = s3.New(sess)
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	bucket := sc.StringOption("bucket", "")
	if bucket == "" {
		return false, fmt.Errorf("s3 plugin: target %s has no bucket option", job.Target)
	}
	prefix := sc.StringOption("key_prefix", "")
	key := fmt.Sprintf("%s%s/%d.txt", prefix, job.Topic, time.Now().UnixNano())

	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader([]byte(job.Body)),
	})
	if err != nil {
		sc.Log.Warn("put object failed", "target", job.Target, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) Close() error { return nil }
