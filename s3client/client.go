package s3client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"text2phenotype.com/kg/logger"
)

var ErrNoSession = errors.New("s3client: no usable session")

type EnvironmentConfig struct {
	Enabled      bool   `envconfig:"KG_S3_ENABLED" default:"false"`
	BucketName   string `envconfig:"KG_S3_BUCKET" default:""`
	Region       string `envconfig:"KG_S3_REGION" default:"us-east-1"`
	Endpoint     string `envconfig:"KG_S3_ENDPOINT" default:""`
	AccessKeyID  string `envconfig:"KG_S3_ACCESS_ID" default:""`
	AccessKey    string `envconfig:"KG_S3_ACCESS_KEY" default:""`
	InputPrefix  string `envconfig:"KG_S3_INPUT_PREFIX" default:""`
	OutputPrefix string `envconfig:"KG_S3_OUTPUT_PREFIX" default:""`
}

func ReadConfig() (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	return config, err
}

// Client wraps one AWS session for a single bucket. A request that fails is
// retried once on a freshly acquired session.
type Client struct {
	mu         sync.Mutex
	sess       *session.Session
	bucketName string
	env        EnvironmentConfig
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New(env EnvironmentConfig) (*Client, error) {
	if env.BucketName == "" {
		return nil, errors.New("s3client: KG_S3_BUCKET is not set")
	}
	client := &Client{
		bucketName: env.BucketName,
		env:        env,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	return client, nil
}

func (client *Client) Bucket() string {
	return client.bucketName
}

func (client *Client) Upload(body io.ReadSeeker, key string) (*s3manager.UploadOutput, error) {
	var output *s3manager.UploadOutput
	err := client.withSession(func(sess *session.Session) error {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return err
		}
		var err error
		output, err = client.upload(sess, &s3manager.UploadInput{
			Bucket: aws.String(client.bucketName),
			Key:    aws.String(key),
			Body:   body,
		})
		return err
	})
	return output, err
}

func (client *Client) Download(key string) ([]byte, error) {
	var data []byte
	err := client.withSession(func(sess *session.Session) error {
		var err error
		data, err = client.download(sess, &s3.GetObjectInput{
			Bucket: aws.String(client.bucketName),
			Key:    aws.String(key),
		})
		return err
	})
	return data, err
}

// List returns the keys under prefix in lexical order.
func (client *Client) List(prefix string) ([]string, error) {
	var keys []string
	err := client.withSession(func(sess *session.Session) error {
		keys = keys[:0]
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(client.bucketName),
			Prefix: aws.String(prefix),
		}
		return s3.New(sess).ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, object := range page.Contents {
				keys = append(keys, aws.StringValue(object.Key))
			}
			return true
		})
	})
	return keys, err
}

// Join builds an object key from a prefix and a file name.
func Join(prefix string, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (client *Client) Close() {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.sess = nil
	clientLogger.Info().Msg("Closing client")
}

func (client *Client) withSession(call func(sess *session.Session) error) error {
	sess, err := client.session()
	if err != nil {
		return err
	}
	err = call(sess)
	if err == nil {
		return nil
	}
	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	if refreshErr := client.acquireNewSession(); refreshErr != nil {
		return fmt.Errorf("%v (refresh failed: %w)", err, refreshErr)
	}
	sess, err = client.session()
	if err != nil {
		return err
	}
	return call(sess)
}

func (client *Client) session() (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess == nil {
		return nil, ErrNoSession
	}
	return client.sess, nil
}

func (client *Client) upload(sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	fdlLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	fdlLogger.Debug().Msg("Uploading the file")
	return uploader.Upload(params)
}

func (client *Client) download(sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	fdlLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	fdlLogger.Debug().Msg("Downloading file")
	size, err := downloader.Download(buf, params)
	if err != nil {
		fdlLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	fdlLogger.Debug().Msgf("Downloaded %v bytes", size)
	return bytes.TrimPrefix(buf.Bytes(), []byte("\xef\xbb\xbf")), nil
}

func (client *Client) baseConfig() *aws.Config {
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithLogLevel(aws.LogDebug)
	if client.env.Endpoint != "" {
		cfg = cfg.WithEndpoint(client.env.Endpoint).WithS3ForcePathStyle(true)
	}
	return cfg
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	return client.baseConfig().WithCredentials(creds), nil
}

// acquireNewSession tries the instance role first, then the static keys from
// the environment. Custom endpoints skip the STS check.
func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(client.baseConfig())
	if err == nil && client.verify(sess) == nil {
		client.setSession(sess)
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return nil
	}

	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")
	cfg, err := client.envConfig()
	if err != nil {
		client.setSession(nil)
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	sess, err = session.NewSession(cfg)
	if err == nil {
		err = client.verify(sess)
	}
	if err != nil {
		client.setSession(nil)
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return fmt.Errorf("could not initialize S3 session: %w", err)
	}
	client.setSession(sess)
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

func (client *Client) verify(sess *session.Session) error {
	if client.env.Endpoint != "" {
		_, err := sess.Config.Credentials.Get()
		return err
	}
	_, err := sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	return err
}

func (client *Client) setSession(sess *session.Session) {
	client.mu.Lock()
	client.sess = sess
	client.mu.Unlock()
}

type s3Logger struct {
	fdlLogger zerolog.Logger
}

func getLogger(fdlLogger zerolog.Logger) *s3Logger {
	return &s3Logger{
		fdlLogger,
	}
}

func (logger *s3Logger) Log(v ...interface{}) {
	//nolint
	logger.fdlLogger.Debug().Msg(fmt.Sprint(v...))
}
