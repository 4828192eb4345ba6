package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/entity"
	"github.com/joseph-ayodele/market-views/internal/store"
	"github.com/joseph-ayodele/market-views/internal/views"
)

// Service loads the persisted catalog for display. It never writes.
type Service struct {
	store  store.BlobStore
	logger *slog.Logger
}

func NewService(s store.BlobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger}
}

// Load reads and decodes the full catalog.
func (s *Service) Load(ctx context.Context) ([]entity.InvestmentView, error) {
	start := time.Now()
	blob, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	records, err := views.DecodeCatalog(blob.Content)
	if err != nil {
		return nil, common.NewAppError(common.KindRemoteReadError, "decode catalog "+s.store.Describe(), err)
	}
	s.logger.Info("catalog.load.ok",
		"store", s.store.Describe(),
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

// Filter selects records by region and asset class. Matching is exact after trimming
// and case folding; an empty field matches everything.
type Filter struct {
	Region     string
	AssetClass string
}

func (f Filter) matches(v entity.InvestmentView) bool {
	return matchField(f.Region, v.Region) && matchField(f.AssetClass, v.AssetClass)
}

func matchField(want, have string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, strings.TrimSpace(have))
}

// Apply returns the records that match, in catalog order.
func (f Filter) Apply(records []entity.InvestmentView) []entity.InvestmentView {
	out := make([]entity.InvestmentView, 0, len(records))
	for _, r := range records {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Regions lists the distinct non-empty regions, sorted.
func Regions(records []entity.InvestmentView) []string {
	return distinct(records, entity.ColRegion)
}

// AssetClasses lists the distinct non-empty asset classes, sorted.
func AssetClasses(records []entity.InvestmentView) []string {
	return distinct(records, entity.ColAssetClass)
}

// distinct folds case so "Brazil" and "brazil" count once; the first spelling wins.
func distinct(records []entity.InvestmentView, column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v := strings.TrimSpace(r.Get(column))
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
