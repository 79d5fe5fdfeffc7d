package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Archiver 已完成报验的报告归档
type Archiver interface {
	Archive(ctx context.Context, callNo, filename string, data []byte) (string, error)
}

// MinIOArchiver 归档到对象存储
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchiver endpoint 为空时返回 nil，表示不归档
func NewMinIOArchiver(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOArchiver, error) {
	if endpoint == "" {
		return nil, nil
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinIOArchiver{client: client, bucket: bucket}, nil
}

// Archive 上传报告，返回对象路径
func (a *MinIOArchiver) Archive(ctx context.Context, callNo, filename string, data []byte) (string, error) {
	objectName := fmt.Sprintf("rm-reports/%s/%s/%s", time.Now().Format("2006/01"), callNo, filename)
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: xlsxContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return a.bucket + "/" + objectName, nil
}
