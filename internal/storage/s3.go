package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const snapshotTimeLayout = "20060102T150405.000Z"

type s3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Service writes list snapshots to Amazon S3 (or compatible APIs) under
// {prefix}/{userID}/{timestamp}.json.
type S3Service struct {
	client    s3API
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	prefix    string
}

func NewS3Service(client *s3.Client, bucket, prefix string) *S3Service {
	svc := newS3Service(client, bucket, prefix)
	svc.presigner = s3.NewPresignClient(client)
	return svc
}

func newS3Service(client s3API, bucket, prefix string) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *S3Service) PutSnapshot(ctx context.Context, snap *Snapshot) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if snap == nil || snap.UserID == "" {
		return "", fmt.Errorf("snapshot user is required")
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := s.userPrefix(snap.UserID) + snap.ExportedAt.UTC().Format(snapshotTimeLayout) + ".json"
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3Service) ListSnapshots(ctx context.Context, userID string) ([]ObjectInfo, error) {
	if s.bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("snapshot user is required")
	}

	objects := make([]ObjectInfo, 0)
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.userPrefix(userID)),
	}

	for {
		output, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range output.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
			})
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	return objects, nil
}

func (s *S3Service) DeleteSnapshots(ctx context.Context, userID string) error {
	if s.bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("snapshot user is required")
	}

	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.userPrefix(userID)),
	}

	for {
		output, err := s.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return fmt.Errorf("list objects for delete: %w", err)
		}

		if len(output.Contents) > 0 {
			identifiers := make([]types.ObjectIdentifier, 0, len(output.Contents))
			for _, obj := range output.Contents {
				identifiers = append(identifiers, types.ObjectIdentifier{Key: obj.Key})
			}
			_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{
					Objects: identifiers,
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				return fmt.Errorf("delete objects: %w", err)
			}
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		listInput.ContinuationToken = output.NextContinuationToken
	}

	return nil
}

func (s *S3Service) GetSnapshotURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.presigner == nil {
		return "", fmt.Errorf("presigning is not configured")
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Service) userPrefix(userID string) string {
	if s.prefix == "" {
		return userID + "/"
	}
	return s.prefix + "/" + userID + "/"
}

var _ Service = (*S3Service)(nil)
