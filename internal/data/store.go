package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// ErrNoData is returned when the store holds no bars for a pair
var ErrNoData = errors.New("no data for asset and timeframe")

// ErrInvalidAsset is returned for asset names that cannot name a data file
var ErrInvalidAsset = errors.New("invalid asset name")

var assetPattern = regexp.MustCompile(`^[A-Za-z0-9!._-]{1,32}$`)

// ValidAsset reports whether asset is a symbol such as BTCUSDT or ES1!.
// Path separators and ".." are never valid.
func ValidAsset(asset string) bool {
	return assetPattern.MatchString(asset) && !strings.Contains(asset, "..")
}

func checkAsset(asset string) error {
	if !ValidAsset(asset) {
		return fmt.Errorf("%w: %q", ErrInvalidAsset, asset)
	}
	return nil
}

// Store is a deterministic provider backed by bars held in memory and,
// optionally, JSON files named <asset>_<timeframe>.json in a directory.
type Store struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	dataDir string
	cache   map[string][]types.OHLCV
}

// NewStore creates a new store. An empty dataDir keeps the store in memory only.
func NewStore(logger *zap.Logger, dataDir string) (*Store, error) {
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &Store{
		logger:  logger.Named("store"),
		dataDir: dataDir,
		cache:   make(map[string][]types.OHLCV),
	}, nil
}

func cacheKey(asset string, timeframe types.Timeframe) string {
	return fmt.Sprintf("%s_%s", asset, timeframe)
}

// Put replaces the bars held for a pair. Bars are sorted by timestamp.
func (s *Store) Put(asset string, timeframe types.Timeframe, bars []types.OHLCV) {
	sorted := make([]types.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[cacheKey(asset, timeframe)] = sorted
}

// GetHistory returns the trailing limit bars for the pair
func (s *Store) GetHistory(ctx context.Context, asset string, timeframe types.Timeframe, limit int) ([]types.OHLCV, error) {
	if _, err := timeframe.Interval(); err != nil {
		return nil, err
	}
	if err := checkAsset(asset); err != nil {
		return nil, err
	}

	bars, err := s.load(asset, timeframe)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	out := make([]types.OHLCV, len(bars))
	copy(out, bars)
	return out, nil
}

// load returns cached bars, reading the pair's JSON file on first use
func (s *Store) load(asset string, timeframe types.Timeframe) ([]types.OHLCV, error) {
	key := cacheKey(asset, timeframe)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if s.dataDir == "" {
		return nil, fmt.Errorf("%w: %s %s", ErrNoData, asset, timeframe)
	}

	raw, err := os.ReadFile(s.filename(asset, timeframe))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrNoData, asset, timeframe)
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var bars []types.OHLCV
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, fmt.Errorf("failed to parse data: %w", err)
	}

	s.logger.Info("loaded history file",
		zap.String("asset", asset),
		zap.String("timeframe", string(timeframe)),
		zap.Int("bars", len(bars)),
	)

	s.Put(asset, timeframe, bars)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[key], nil
}

// SaveOHLCV writes the bars to the pair's JSON file and caches them
func (s *Store) SaveOHLCV(asset string, timeframe types.Timeframe, bars []types.OHLCV) error {
	if s.dataDir == "" {
		return fmt.Errorf("store has no data directory")
	}
	if err := checkAsset(asset); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(bars, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(s.filename(asset, timeframe), raw, 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	s.Put(asset, timeframe, bars)
	return nil
}

func (s *Store) filename(asset string, timeframe types.Timeframe) string {
	return filepath.Join(s.dataDir, cacheKey(asset, timeframe)+".json")
}
