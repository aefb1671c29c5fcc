package usecase

import (
	"time"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

type noopObserver struct{}

func (noopObserver) UploadRejected(string)                                 {}
func (noopObserver) UploadAccepted()                                       {}
func (noopObserver) AnalysisStarted()                                      {}
func (noopObserver) AnalysisFinished(domain.AnalysisStatus, time.Duration) {}
func (noopObserver) FanOutApplied(int, int)                                {}

func observerOrNoop(observer ports.PipelineObserver) ports.PipelineObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}
