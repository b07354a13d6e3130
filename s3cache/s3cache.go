/* Copyright (c) 2013 The s3cache AUTHORS. All rights reserved.
 * Copyright (c) 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file in the current directory for license terms
 *
 * Package s3cache provides an implementation of httpcache.Cache that stores
 * fetched season data in Amazon S3 so that repeated draws for the same
 * competition and season do not hit the origin again. It is based on the
 * original github.com/sourcegraph/s3cache but uses aws-sdk-go-v2.
 */
package s3cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const defaultPrefix = "s3cache"

// ObjectAPI is the subset of *s3.Client the cache needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput,
		opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput,
		opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput,
		opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Cache objects store and retrieve data using Amazon S3.
type Cache struct {
	// Config is the Amazon S3 configuration, populated by Init.
	Config aws.Config

	// Client is used for object access. Init sets it from Config unless the
	// caller already supplied one.
	Client ObjectAPI

	bucketName string
	prefix     string

	// gzip compresses entries in Set and decompresses them in Get. Object
	// keys get a ".gz" suffix.
	gzip      bool
	logErrors bool

	ctx context.Context
}

type Option func(c *Cache)

func WithGzip() Option {
	return func(c *Cache) { c.gzip = true }
}

// WithKeyPrefix places objects under prefix instead of the default
// "s3cache" directory.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

func WithErrorLogging() Option {
	return func(c *Cache) { c.logErrors = true }
}

// WithClient supplies the object client, skipping AWS config loading in
// Init.
func WithClient(client ObjectAPI) Option {
	return func(c *Cache) { c.Client = client }
}

// New returns a new Cache backed by the given bucket. Callers should invoke
// Init() on the returned Cache before use.
func New(ctx context.Context, bucketName string, opts ...Option) *Cache {
	c := &Cache{
		ctx:        ctx,
		bucketName: bucketName,
		prefix:     defaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) Get(key string) ([]byte, bool) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(c.ObjectKey(key)),
	}

	resp, err := c.Client.GetObject(c.ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		// no such key just indicates a cache miss
		if !(errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey") {
			c.logf("s3cache.get: failed to get object %v/%v: %v", c.bucketName,
				*input.Key, err)
		}
		return nil, false
	}
	defer resp.Body.Close()

	rdr := resp.Body
	if c.gzip {
		rdr, err = gzip.NewReader(rdr)
		if err != nil {
			c.logf("s3cache.get: failed to open compressed object %v/%v: %v",
				c.bucketName, *input.Key, err)
			return nil, false
		}
		defer rdr.Close()
	}
	data, err := io.ReadAll(rdr)
	if err != nil {
		c.logf("s3cache.get: failed to read object %v/%v: %v", c.bucketName,
			*input.Key, err)
		return nil, false
	}

	return data, true
}

// Set stores the provided data in the cache under the given key.
func (c *Cache) Set(key string, data []byte) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(c.ObjectKey(key)),
		Body:   bytes.NewReader(data),
	}

	if c.gzip {
		body, err := compress(data)
		if err != nil {
			c.logf("s3cache.set: failed to gzip data for %v/%v: %v",
				c.bucketName, *input.Key, err)
			return
		}
		input.Body = bytes.NewReader(body)
		input.ContentEncoding = aws.String("gzip")
	}

	if _, err := c.Client.PutObject(c.ctx, input); err != nil {
		c.logf("s3cache.set: put failed for %v/%v: %v", c.bucketName,
			*input.Key, err)
	}
}

func (c *Cache) Delete(key string) {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(c.ObjectKey(key)),
	}

	if _, err := c.Client.DeleteObject(c.ctx, input); err != nil {
		c.logf("s3cache.delete: delete failed for %v/%v: %v", c.bucketName,
			*input.Key, err)
	}
}

// ObjectKey maps a cache key (a request URL) to its S3 object key.
func (c *Cache) ObjectKey(key string) string {
	h := md5.New()
	io.WriteString(h, key)
	objKey := "/" + path.Join(c.prefix, hex.EncodeToString(h.Sum(nil)))
	if c.gzip {
		objKey += ".gz"
	}

	return objKey
}

// Init loads the default AWS configuration and verifies the bucket is
// reachable. The default configuration sources are:
// * Environment Variables (e.g. AWS_ACCESS_KEY_ID and AWS_SECRET_KEY)
// * Shared Configuration and Shared Credentials files.
func (c *Cache) Init() error {
	if c.Client != nil {
		return nil
	}

	var err error
	c.Config, err = config.LoadDefaultConfig(c.ctx)
	if err != nil {
		return fmt.Errorf("s3cache.init: failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(c.Config)

	if _, err = client.HeadBucket(c.ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	}); err != nil {
		return fmt.Errorf("s3cache.init: head bucket failed for %s: %w",
			c.bucketName, err)
	}
	if _, err = client.ListObjectsV2(c.ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucketName),
		Prefix:  aws.String(c.prefix),
		MaxKeys: aws.Int32(1),
	}); err != nil {
		return fmt.Errorf("s3cache.init: list objects failed for %s: %w",
			c.bucketName, err)
	}
	c.Client = client

	return nil
}

func (c *Cache) logf(format string, args ...any) {
	if c.logErrors {
		log.Printf(format, args...)
	}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
