package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"text2phenotype.com/kg/s3client"
)

type s3Transactions interface {
	inputLocation() string
	outputLocation() string
	listCorpusKeys() ([]string, error)
	getDocumentData(key string) ([]byte, error)
	documentName(key string) string
	saveOutputFile(localPath string) (string, error)
	close()
}

type s3ClientWrapper struct {
	s3Client     *s3client.Client
	inputPrefix  string
	outputPrefix string
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) inputLocation() string {
	return fmt.Sprintf("s3://%s/%s", wrapper.s3Client.Bucket(), wrapper.inputPrefix)
}

func (wrapper *s3ClientWrapper) outputLocation() string {
	return fmt.Sprintf("s3://%s/%s", wrapper.s3Client.Bucket(), wrapper.outputPrefix)
}

func (wrapper *s3ClientWrapper) listCorpusKeys() ([]string, error) {
	return wrapper.s3Client.List(wrapper.inputPrefix)
}

func (wrapper *s3ClientWrapper) getDocumentData(key string) ([]byte, error) {
	return wrapper.s3Client.Download(key)
}

// documentName is the key relative to the input prefix.
func (wrapper *s3ClientWrapper) documentName(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, wrapper.inputPrefix), "/")
}

func (wrapper *s3ClientWrapper) saveOutputFile(localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	key := s3client.Join(wrapper.outputPrefix, filepath.Base(localPath))
	if _, err := wrapper.s3Client.Upload(file, key); err != nil {
		return "", err
	}
	return key, nil
}
