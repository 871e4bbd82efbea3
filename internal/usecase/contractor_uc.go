package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/logging"
	"trades-marketplace/internal/infra/metrics"
)

var _ ContractorUseCase = (*contractorUC)(nil)

// ContractorUseCase manages the trade profile used for job matching.
type ContractorUseCase interface {
	Get(ctx context.Context, userID string) (*model.ContractorProfile, error)
	Save(ctx context.Context, userID, primary string, secondary []string, county string) (*model.ContractorProfile, error)
	// Search is the tradesperson directory: profiles in county offering any of
	// trades, best rated first. Unknown trade spellings are ignored.
	Search(ctx context.Context, county string, trades []string, limit int) ([]*model.ContractorListing, error)
}

type contractorUC struct {
	profiles repository.ContractorProfileRepository
	reviews  repository.ReviewRepository
	log      *zerolog.Logger
}

func NewContractorUseCase(profiles repository.ContractorProfileRepository, reviews repository.ReviewRepository, logger *zerolog.Logger) *contractorUC {
	return &contractorUC{profiles: profiles, reviews: reviews, log: logger}
}

func (u *contractorUC) Get(ctx context.Context, userID string) (*model.ContractorProfile, error) {
	defer logging.TraceDuration(u.log, "ContractorUC.Get")()
	return u.profiles.FindByUserID(ctx, repository.NoTX, userID)
}

func (u *contractorUC) Save(ctx context.Context, userID, primary string, secondary []string, county string) (*model.ContractorProfile, error) {
	defer logging.TraceDuration(u.log, "ContractorUC.Save")()
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidArgument
	}

	p, dropped := model.NewContractorProfile(userID, primary, secondary, county)
	if len(dropped) > 0 {
		metrics.AddDroppedTags("profile", len(dropped))
		logging.With(ctx, u.log).Warn().Strs("dropped", dropped).Msg("unknown trades dropped from profile")
	}
	if err := u.profiles.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *contractorUC) Search(ctx context.Context, county string, trades []string, limit int) ([]*model.ContractorListing, error) {
	defer logging.TraceDuration(u.log, "ContractorUC.Search")()

	tags, dropped := model.NormalizeTrades(trades)
	if len(dropped) > 0 {
		metrics.AddDroppedTags("directory", len(dropped))
	}
	if len(trades) > 0 && len(tags) == 0 {
		return []*model.ContractorListing{}, nil
	}

	// Rank the widest page, then cut to the requested size.
	profiles, err := u.profiles.Search(ctx, repository.NoTX, county, tags, model.MaxPageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ContractorListing, 0, len(profiles))
	for _, p := range profiles {
		avg, n, err := u.reviews.AverageRating(ctx, repository.NoTX, p.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, &model.ContractorListing{ContractorProfile: p, AverageRating: avg, ReviewCount: n})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].AverageRating != out[b].AverageRating {
			return out[a].AverageRating > out[b].AverageRating
		}
		return out[a].ReviewCount > out[b].ReviewCount
	})
	if limit = model.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
