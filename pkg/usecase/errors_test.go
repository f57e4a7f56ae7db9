package usecase_test

import (
	"errors"
	"testing"

	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestErrors_SentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrTemplateNotFound", usecase.ErrTemplateNotFound},
		{"ErrNoCluster", usecase.ErrNoCluster},
		{"ErrOutputExists", usecase.ErrOutputExists},
		{"ErrPRRFailed", usecase.ErrPRRFailed},
		{"ErrSlidesFailed", usecase.ErrSlidesFailed},
		{"ErrAnalysisFailed", usecase.ErrAnalysisFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.err).NotNil()
		})
	}
}

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Bool(t, errors.Is(usecase.ErrTemplateNotFound, usecase.ErrOutputExists)).False()
	gt.Bool(t, errors.Is(usecase.ErrPRRFailed, usecase.ErrSlidesFailed)).False()
}
