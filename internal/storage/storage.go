package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// Uploader 对象存储上传器（产品主图、CAD文件）
// minio 不可用时回落到本地 uploads 目录
type Uploader struct {
	client   *minio.Client
	bucket   string
	localDir string
}

// NewUploader 创建上传器，client 为 nil 时只走本地存储
func NewUploader(client *minio.Client, bucket, localDir string) *Uploader {
	if localDir == "" {
		localDir = "./uploads"
	}
	return &Uploader{client: client, bucket: bucket, localDir: localDir}
}

// Upload 保存文件并返回可访问路径
// subDir 用于按用途分目录（products/cad 等）
func (u *Uploader) Upload(ctx context.Context, reader io.Reader, size int64, filename, contentType, subDir string) (string, error) {
	fileID := uuid.New().String()[:32]
	ext := filepath.Ext(filename)
	objectName := fmt.Sprintf("%s/%d/%s%s", subDir, time.Now().Year(), fileID, ext)

	if u.client != nil {
		_, err := u.client.PutObject(ctx, u.bucket, objectName, reader, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("upload to object storage: %w", err)
		}
		return fmt.Sprintf("/%s/%s", u.bucket, objectName), nil
	}

	// 本地回落
	localPath := filepath.Join(u.localDir, objectName)
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, reader); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return "/uploads/" + objectName, nil
}

// Download 读取对象（CAD文件下载）
func (u *Uploader) Download(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if u.client != nil {
		obj, err := u.client.GetObject(ctx, u.bucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("get object: %w", err)
		}
		return obj, nil
	}
	f, err := os.Open(filepath.Join(u.localDir, objectPath))
	if err != nil {
		return nil, fmt.Errorf("open local object: %w", err)
	}
	return f, nil
}
