// Package archive keeps a copy of the collection a reset replaced.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/remindsync/internal/server/models"
)

// Archiver stores the reminders removed by a reset and returns the key
// they were stored under. An empty key means nothing was stored.
type Archiver interface {
	Archive(ctx context.Context, userID string, replaced []models.Reminder) (string, error)
}

// NopArchiver is used when no bucket is configured.
type NopArchiver struct{}

func (NopArchiver) Archive(context.Context, string, []models.Reminder) (string, error) {
	return "", nil
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type S3Archiver struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewS3Archiver builds a client with static credentials and path-style
// addressing so MinIO endpoints work.
func NewS3Archiver(ctx context.Context, c S3Config) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Archiver{client: client, bucket: c.Bucket, now: time.Now}, nil
}

type archivedReminder struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Enabled   bool      `json:"enabled"`
}

type archiveDoc struct {
	UserID     string             `json:"userId"`
	ArchivedAt time.Time          `json:"archivedAt"`
	Reminders  []archivedReminder `json:"reminders"`
}

func Key(userID string, at time.Time) string {
	return fmt.Sprintf("users/%s/resets/%d.json", userID, at.UnixNano())
}

func (a *S3Archiver) Archive(ctx context.Context, userID string, replaced []models.Reminder) (string, error) {
	at := a.now().UTC()
	doc := archiveDoc{UserID: userID, ArchivedAt: at, Reminders: make([]archivedReminder, 0, len(replaced))}
	for _, r := range replaced {
		doc.Reminders = append(doc.Reminders, archivedReminder{ID: r.ID, Timestamp: r.Timestamp.UTC(), Enabled: r.Enabled})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	key := Key(userID, at)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}
