package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/types"
)

const maxErrorBody = 512

type annotateRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// HTTPAnnotator posts sentences to an annotation service that answers with a
// Document.
type HTTPAnnotator struct {
	client    *http.Client
	url       string
	model     string
	fdlLogger zerolog.Logger
}

func NewHTTPAnnotator(url string, model string, timeout time.Duration) *HTTPAnnotator {
	return &HTTPAnnotator{
		client:    &http.Client{Timeout: timeout},
		url:       url,
		model:     model,
		fdlLogger: logger.NewLogger("HTTP annotator"),
	}
}

func (a *HTTPAnnotator) Annotate(ctx context.Context, sentence string) (*types.AnnotatedSentence, error) {
	body, err := json.Marshal(annotateRequest{Text: sentence, Model: a.model})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		a.fdlLogger.Error().
			Int("status", resp.StatusCode).
			Str("url", a.url).
			Msg("Annotation service returned an error")
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrMalformedDocument, err)
	}
	return doc.Sentence()
}

func (a *HTTPAnnotator) Close() error {
	a.client.CloseIdleConnections()
	return nil
}
