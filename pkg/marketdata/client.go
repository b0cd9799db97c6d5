// Package marketdata backfills the market data store from history providers.
package marketdata

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/rxtech-lab/argo-router/pkg/marketdata/provider"
)

// OnProgress reports how far a download has advanced through its time range.
type OnProgress = func(current float64, total float64, message string)

// BarWriter persists downloaded bars. The market data store implements it.
type BarWriter interface {
	AppendBars(ctx context.Context, bars []types.Bar) error
}

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
	// BatchSize is how many bars are buffered before each write.
	BatchSize int `validate:"gte=1"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client downloads bars from a provider and hands them to a BarWriter in batches.
type Client struct {
	provider   provider.HistoryProvider
	config     ClientConfig
	validate   *validator.Validate
	onProgress OnProgress
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress OnProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	historyProvider, err := provider.New(config.ProviderType, config.PolygonApiKey)
	if err != nil {
		return nil, err
	}

	return NewClientWithProvider(historyProvider, config.BatchSize, onProgress), nil
}

// NewClientWithProvider creates a client on an existing provider.
func NewClientWithProvider(historyProvider provider.HistoryProvider, batchSize int, onProgress OnProgress) *Client {
	if batchSize < 1 {
		batchSize = 1000
	}

	return &Client{
		provider: historyProvider,
		config: ClientConfig{
			ProviderType:  historyProvider.Name(),
			PolygonApiKey: "",
			BatchSize:     batchSize,
		},
		validate:   validator.New(),
		onProgress: onProgress,
	}
}

// Download streams params' bars into w and returns how many were written.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams, w BarWriter) (int, error) {
	if err := c.validate.Struct(params); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	total := float64(params.EndDate.Sub(params.StartDate))
	batch := make([]types.Bar, 0, c.config.BatchSize)
	written := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := w.AppendBars(ctx, batch); err != nil {
			return err
		}

		written += len(batch)
		batch = batch[:0]

		return nil
	}

	for bar, err := range c.provider.Bars(ctx, params.Ticker, params.StartDate, params.EndDate, params.Multiplier, params.Timespan) {
		if err != nil {
			if flushErr := flush(); flushErr != nil {
				return written, flushErr
			}

			return written, err
		}

		batch = append(batch, bar)

		if len(batch) >= c.config.BatchSize {
			if err := flush(); err != nil {
				return written, err
			}

			c.progress(float64(bar.Time.Sub(params.StartDate)), total, params.Ticker)
		}
	}

	if err := flush(); err != nil {
		return written, err
	}

	c.progress(total, total, params.Ticker)

	return written, nil
}

func (c *Client) progress(current, total float64, ticker string) {
	if c.onProgress == nil {
		return
	}

	if current > total {
		current = total
	}

	c.onProgress(current, total, "Downloading "+ticker)
}
