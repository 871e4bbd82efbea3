package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/classify"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/infra/logging"
	"trades-marketplace/internal/infra/metrics"
)

var _ ClassifyUseCase = (*classifyUC)(nil)

// ClassifyOutcome is the result of one free-text parse.
type ClassifyOutcome struct {
	Parsed *classify.Result
	// Raw is the untouched model reply; empty for the local strategy.
	Raw string
	// Inserted is set when the caller asked for the job to be stored.
	Inserted *model.Job
}

type ClassifyUseCase interface {
	// Classify parses text into job fields and, when writeToDB is set, stores
	// the result as a job owned by customerID. On an upstream failure the
	// outcome still carries Raw when the model produced any output.
	Classify(ctx context.Context, customerID, text string, writeToDB bool) (*ClassifyOutcome, error)
}

type classifyUC struct {
	classifier classify.Classifier
	provider   string
	jobs       JobUseCase
	log        *zerolog.Logger
}

// NewClassifyUseCase takes the configured strategy; provider labels metrics.
func NewClassifyUseCase(classifier classify.Classifier, provider string, jobs JobUseCase, logger *zerolog.Logger) *classifyUC {
	return &classifyUC{classifier: classifier, provider: provider, jobs: jobs, log: logger}
}

func (u *classifyUC) Classify(ctx context.Context, customerID, text string, writeToDB bool) (*ClassifyOutcome, error) {
	defer logging.TraceDuration(u.log, "ClassifyUC.Classify")()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidArgument)
	}
	if writeToDB && customerID == "" {
		return nil, fmt.Errorf("%w: a customer is required to store the job", domain.ErrInvalidArgument)
	}

	start := time.Now()
	res, err := u.classifier.Classify(ctx, text)
	log := logging.With(ctx, u.log)
	if err != nil {
		outcome := &ClassifyOutcome{}
		source := classify.SourceRemote
		if res != nil {
			outcome.Raw = res.Raw
			source = res.Source
		}
		result := "upstream_error"
		if errors.Is(err, domain.ErrInvalidArgument) {
			result = "invalid"
		}
		metrics.IncClassify(source, result)
		log.Warn().Err(err).Str("raw", logging.Redact(outcome.Raw, false)).Msg("classification failed")
		return outcome, err
	}

	if res.Cached {
		metrics.IncClassify(res.Source, "cached")
	} else {
		metrics.IncClassify(res.Source, "ok")
	}
	if res.Source == classify.SourceRemote && !res.Cached {
		metrics.ObserveChatUsage(u.provider, res.Model, res.Usage.PromptTokens, res.Usage.CompletionTokens,
			int(time.Since(start).Milliseconds()), true)
	}
	if len(res.Dropped) > 0 {
		metrics.AddDroppedTags("classifier", len(res.Dropped))
		log.Warn().Strs("dropped", res.Dropped).Msg("classifier suggested unknown trades")
	}
	log.Info().
		Str("source", res.Source).
		Strs("trades", model.TradeStrings(res.TradeTags)).
		Float64("confidence", res.Confidence).
		Msg("text classified")

	outcome := &ClassifyOutcome{Parsed: res, Raw: res.Raw}
	if !writeToDB {
		return outcome, nil
	}
	job, err := u.jobs.Create(ctx, customerID, res.JobInput(text))
	if err != nil {
		return outcome, err
	}
	outcome.Inserted = job
	return outcome, nil
}
