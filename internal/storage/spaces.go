package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// SpacesStorage keeps settings as a JSON object in an S3 compatible bucket, so a fleet
// of screens can share one configuration.
type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	key    string
}

func NewSpacesStorage(endpoint, region, bucket, key, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{client: s3.New(sess), bucket: bucket, key: key}, nil
}

func (ss *SpacesStorage) Load(ctx context.Context) (model.Settings, error) {
	out, err := ss.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(ss.key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return model.Settings{}, ErrNotFound
		}
		return model.Settings{}, fmt.Errorf("failed to fetch settings from Spaces: %w", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to read settings object: %w", err)
	}
	var s model.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Settings{}, fmt.Errorf("failed to parse settings object: %w", err)
	}
	return s, nil
}

func (ss *SpacesStorage) Save(ctx context.Context, s model.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(ss.key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
		ACL:         aws.String("private"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload settings to Spaces")
		return fmt.Errorf("failed to upload to Spaces: %w", err)
	}
	return nil
}
