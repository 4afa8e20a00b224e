package market

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"configSync/internal/chain"
	"configSync/internal/contracts"
	"configSync/internal/model"
	"configSync/internal/multicall"
)

const maxDirectoryBackoff = 10 * time.Second

// DirectoryConfig controls how on-chain markets are listed.
type DirectoryConfig struct {
	Reader       common.Address
	DataStore    common.Address
	PageSize     uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Directory lists markets registered in the DataStore via the Reader contract.
type Directory struct {
	cfg    DirectoryConfig
	caller multicall.ContractCaller
	logger *zap.Logger
}

// NewDirectory builds a Directory.
func NewDirectory(cfg DirectoryConfig, caller multicall.ContractCaller, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 1000
	}
	return &Directory{cfg: cfg, caller: caller, logger: logger}
}

// Fetch pages through Reader.getMarkets and indexes markets by token triple.
func (d *Directory) Fetch(ctx context.Context) (map[model.MarketKey]model.OnchainMarket, error) {
	if d.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}

	markets := make(map[model.MarketKey]model.OnchainMarket)
	for start := uint64(0); ; start += d.cfg.PageSize {
		page, err := d.fetchPageWithRetry(ctx, start, start+d.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("get markets [%d,%d): %w", start, start+d.cfg.PageSize, err)
		}
		for _, props := range page {
			market := model.OnchainMarket{
				MarketToken: props.MarketToken,
				IndexToken:  props.IndexToken,
				LongToken:   props.LongToken,
				ShortToken:  props.ShortToken,
			}
			key := market.Key()
			if prev, ok := markets[key]; ok {
				d.logger.Warn("duplicate onchain market key",
					zap.String("key", string(key)),
					zap.String("previous", prev.MarketToken.Hex()),
					zap.String("market", market.MarketToken.Hex()),
				)
			}
			markets[key] = market
		}
		if uint64(len(page)) < d.cfg.PageSize {
			break
		}
	}

	d.logger.Info("onchain markets loaded", zap.Int("markets", len(markets)))
	return markets, nil
}

func (d *Directory) fetchPageWithRetry(ctx context.Context, start, end uint64) ([]contracts.MarketProps, error) {
	policy := chain.RetryPolicy{
		MaxRetries: d.cfg.MaxRetries,
		BaseDelay:  d.cfg.RetryBackoff,
		MaxDelay:   maxDirectoryBackoff,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			d.logger.Warn("get markets failed",
				zap.Error(err),
				zap.Uint64("start", start),
				zap.Uint64("end", end),
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
			)
		},
	}

	var page []contracts.MarketProps
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = d.fetchPage(ctx, start, end)
		return err
	})
	return page, err
}

func (d *Directory) fetchPage(ctx context.Context, start, end uint64) ([]contracts.MarketProps, error) {
	data, err := contracts.EncodeGetMarkets(d.cfg.DataStore, start, end)
	if err != nil {
		return nil, err
	}
	resp, err := d.caller.CallContract(ctx, ethereum.CallMsg{To: &d.cfg.Reader, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call getMarkets: %w", err)
	}
	return contracts.DecodeGetMarkets(resp)
}
