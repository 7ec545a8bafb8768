package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"text2phenotype.com/kg/annotator"
	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/tasks"
	"text2phenotype.com/kg/types"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	lockRun              withValue
	onRunStarted         failingMethod
	onRunFailedWithError failingMethod
	onRunComplete        failingMethod
}

type redisMockCalls struct {
	lockRun              bool
	releaseLock          bool
	onRunStarted         bool
	onRunFailedWithError bool
	onRunComplete        bool
}

type s3Mock struct {
	config   s3MockConfig
	calls    s3MockCalls
	uploaded []string
}

type s3MockConfig struct {
	listCorpusKeys  withValue
	getDocumentData withValue
	saveOutputFile  failingMethod
}

type s3MockCalls struct {
	listCorpusKeys  bool
	getDocumentData bool
	saveOutputFile  bool
}

type rmqMock struct {
	config   rmqMockConfig
	calls    rmqMockCalls
	messages []Message
}

type rmqMockConfig struct {
	publishRunFinished failingMethod
}

type rmqMockCalls struct {
	publishRunFinished bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func (mock *redisMock) lockRun(_ context.Context, _ *Run, _ time.Duration) (redis.ReleaseLock, error) {
	mock.calls.lockRun = true
	if mock.config.lockRun.fail {
		if err, ok := mock.config.lockRun.returnedValue.(error); ok {
			return nil, err
		}
		return nil, errors.New("failed to obtain lock")
	}
	return func() error {
		mock.calls.releaseLock = true
		return nil
	}, nil
}

func (mock *redisMock) getRunTask(_ context.Context, redisKey string) (*tasks.RunTask, error) {
	return &tasks.RunTask{RunKey: redisKey}, nil
}

func (mock *redisMock) onRunStarted(context.Context, *Run) error {
	mock.calls.onRunStarted = true
	if mock.config.onRunStarted.fail {
		return errors.New("failed to mark run as started")
	}
	return nil
}

func (mock *redisMock) onRunFailedWithError(context.Context, *Run, error) error {
	mock.calls.onRunFailedWithError = true
	if mock.config.onRunFailedWithError.fail {
		return errors.New("failed to mark run as failed")
	}
	return nil
}

func (mock *redisMock) onRunComplete(context.Context, *Run, *Report) error {
	mock.calls.onRunComplete = true
	if mock.config.onRunComplete.fail {
		return errors.New("failed to mark run as complete")
	}
	return nil
}

func (mock *s3Mock) inputLocation() string {
	return "s3://bucket/in"
}

func (mock *s3Mock) outputLocation() string {
	return "s3://bucket/out"
}

func (mock *s3Mock) listCorpusKeys() ([]string, error) {
	mock.calls.listCorpusKeys = true
	if mock.config.listCorpusKeys.fail {
		return nil, errors.New("failed to list keys")
	}
	keys, _ := mock.config.listCorpusKeys.returnedValue.([]string)
	return keys, nil
}

func (mock *s3Mock) getDocumentData(key string) ([]byte, error) {
	mock.calls.getDocumentData = true
	files, _ := mock.config.getDocumentData.returnedValue.(map[string]string)
	data, ok := files[key]
	if mock.config.getDocumentData.fail || !ok {
		return nil, fmt.Errorf("failed to download %s", key)
	}
	return []byte(data), nil
}

func (mock *s3Mock) documentName(key string) string {
	return strings.TrimPrefix(key, "in/")
}

func (mock *s3Mock) saveOutputFile(localPath string) (string, error) {
	mock.calls.saveOutputFile = true
	if mock.config.saveOutputFile.fail {
		return "", errors.New("failed to upload")
	}
	key := "out/" + filepath.Base(localPath)
	mock.uploaded = append(mock.uploaded, key)
	return key, nil
}

func (mock *rmqMock) publishRunFinished(run *Run, report *Report, runErr error) error {
	mock.calls.publishRunFinished = true
	mock.messages = append(mock.messages, newMessage(run, report, runErr))
	if mock.config.publishRunFinished.fail {
		return errors.New("failed to publish")
	}
	return nil
}

// svoDocument annotates "<subject> <verb>s <object>".
func svoDocument(subject, verb, object string) annotator.Document {
	text := fmt.Sprintf("%s %ss %s", subject, verb, object)
	s := int32(len(subject))
	v := s + 1 + int32(len(verb)) + 1
	o := v + 1 + int32(len(object))
	return annotator.Document{
		Text: text,
		Tokens: []annotator.DocumentToken{
			{ID: 0, Start: 0, End: s, Pos: "NOUN", Dep: "nsubj", Head: 1, Lemma: strings.ToLower(subject)},
			{ID: 1, Start: s + 1, End: v, Pos: types.PosVerb, Dep: "ROOT", Head: 1, Lemma: verb},
			{ID: 2, Start: v + 1, End: o, Pos: "NOUN", Dep: "dobj", Head: 1, Lemma: strings.ToLower(object)},
		},
		NounChunks: []annotator.DocumentSpan{{Start: 0, End: s}, {Start: v + 1, End: o}},
	}
}

type annotatorMock struct {
	docs map[string]annotator.Document
	fail bool
}

func (mock *annotatorMock) factory() (annotator.Annotator, error) {
	return mock, nil
}

func (mock *annotatorMock) Annotate(_ context.Context, sentence string) (*types.AnnotatedSentence, error) {
	if mock.fail {
		return nil, errors.New("annotator is down")
	}
	doc, ok := mock.docs[sentence]
	if !ok {
		return nil, annotator.ErrNotAnnotated
	}
	return doc.Sentence()
}

func (mock *annotatorMock) Close() error {
	return nil
}
