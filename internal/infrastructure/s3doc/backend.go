// Package s3doc implementa el DocumentBackend sobre un objeto de S3 (o MinIO):
// el ETag del objeto es el token de versión y la escritura usa If-Match / If-None-Match.
package s3doc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/domain/repository"
)

var _ repository.DocumentBackend = (*Backend)(nil)

const maxObjectBytes = 10 << 20

// Config parámetros de construcción. Sin credenciales explícitas se usa la cadena por defecto de AWS.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // opcional (MinIO)
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	HTTPClient      *http.Client // opcional (tests)
}

// Backend documento como objeto S3. handle.Resource es la clave del objeto;
// handle.Token no se usa (la credencial sale de Config o del entorno AWS).
type Backend struct {
	client *s3.Client
	bucket string
}

// New crea el backend.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3doc: bucket requerido")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3doc: cargar configuración AWS: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		// MinIO y otros compatibles no siempre aceptan checksums con trailer.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &Backend{client: client, bucket: cfg.Bucket}, nil
}

// FetchVersion lee el objeto y devuelve su ETag sin comillas.
func (b *Backend) FetchVersion(ctx context.Context, h entity.DocumentHandle) ([]byte, string, error) {
	key := h.Resource
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &b.bucket, Key: &key})
	if err != nil {
		return nil, "", fmt.Errorf("%w: s3://%s/%s: %w", domain.ErrRead, b.bucket, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: s3://%s/%s: leer cuerpo: %w", domain.ErrRead, b.bucket, key, err)
	}
	return content, trimETag(out.ETag), nil
}

// WriteVersion sube el objeto condicionado al ETag esperado; version vacía exige que no exista.
func (b *Backend) WriteVersion(ctx context.Context, h entity.DocumentHandle, content []byte, version, note string) (string, error) {
	key := h.Resource
	input := &s3.PutObjectInput{
		Bucket:      &b.bucket,
		Key:         &key,
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"note": url.QueryEscape(note)},
	}
	if version == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(`"` + version + `"`)
	}
	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailure(err) {
			return "", &domain.ConflictError{Resource: "s3://" + b.bucket + "/" + key, ExpectedVersion: version}
		}
		return "", fmt.Errorf("%w: s3://%s/%s: %w", domain.ErrWrite, b.bucket, key, err)
	}
	return trimETag(out.ETag), nil
}

// isPreconditionFailure reconoce los rechazos de escritura condicional.
// Un If-Match sobre un objeto inexistente responde NoSuchKey.
func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict", "NoSuchKey":
		return true
	}
	return false
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}
