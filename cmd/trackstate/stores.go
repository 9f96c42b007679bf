package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/delaneyj/trackstate/internal/config"
	"github.com/delaneyj/trackstate/pkg/metrics"
	"github.com/delaneyj/trackstate/pkg/store"
	"github.com/delaneyj/trackstate/pkg/store/file"
	"github.com/delaneyj/trackstate/pkg/store/memory"
	"github.com/delaneyj/trackstate/pkg/store/middleware"
	"github.com/delaneyj/trackstate/pkg/store/redis"
	"github.com/delaneyj/trackstate/pkg/store/s3"
)

// openStore builds the configured backend wrapped in tracing, logging and,
// when a collector is given, metrics. The returned func releases it.
func openStore(cfg config.Store, logger *slog.Logger, collector *metrics.Collector) (store.Store, func() error, error) {
	closer := func() error { return nil }

	var backend store.Store
	switch cfg.Backend {
	case "", "memory":
		backend = memory.New()

	case "file":
		opts, err := cfg.File()
		if err != nil {
			return nil, nil, err
		}
		backend = file.New(opts.Dir)

	case "redis":
		opts, err := cfg.Redis()
		if err != nil {
			return nil, nil, err
		}
		rs := redis.New(opts.Addr, opts.Password, opts.DB, redis.WithPrefix(opts.Prefix), redis.WithTTL(opts.TTL))
		backend, closer = rs, rs.Close

	case "s3":
		opts, err := cfg.S3()
		if err != nil {
			return nil, nil, err
		}
		backend = s3.New(newS3Client(opts), opts.Bucket, opts.Prefix)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	mws := []middleware.Middleware{
		middleware.Tracing(nil),
		middleware.Logging(logger),
	}
	if collector != nil {
		mws = append(mws, collector.InstrumentStore())
	}
	logger.Info("store opened", "backend", cfg.Backend)
	return middleware.Chain(backend, mws...), closer, nil
}

func newS3Client(opts config.S3Options) *awss3.Client {
	return awss3.New(awss3.Options{
		Region:       opts.Region,
		UsePathStyle: opts.PathStyle,
		BaseEndpoint: endpoint(opts.Endpoint),
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     opts.AccessKey,
				SecretAccessKey: opts.SecretKey,
				Source:          "trackstate config",
			}, nil
		}),
	})
}

func endpoint(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
