// Package payment opens MercadoPago checkout preferences for a cart.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
)

const defaultTimeout = 15 * time.Second

var ErrNoRedirect = errors.New("gateway returned no redirect url")

// PreferenceCreator is the part of the preferences API the gateway uses.
type PreferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

// MercadoPago implements checkout.PaymentGateway over Checkout Pro
// preferences.
type MercadoPago struct {
	cfg         global.MercadoPagoConfig
	currency    string
	preferences PreferenceCreator
	logger      *zap.Logger
}

// NewMercadoPago builds the SDK client for cfg.AccessToken. Extra options
// are passed to the SDK config.
func NewMercadoPago(cfg global.MercadoPagoConfig, currency string, logger *zap.Logger, opts ...config.Option) (*MercadoPago, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts = append([]config.Option{config.WithHTTPClient(&http.Client{Timeout: timeout})}, opts...)

	sdkCfg, err := config.New(cfg.AccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return NewMercadoPagoWith(preference.NewClient(sdkCfg), cfg, currency, logger), nil
}

func NewMercadoPagoWith(preferences PreferenceCreator, cfg global.MercadoPagoConfig, currency string, logger *zap.Logger) *MercadoPago {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MercadoPago{
		cfg:         cfg,
		currency:    currency,
		preferences: preferences,
		logger:      logger,
	}
}

func (m *MercadoPago) InitiatePayment(ctx context.Context, req checkout.PaymentRequest) (string, error) {
	pref, err := m.preferences.Create(ctx, m.preference(req))
	if err != nil {
		m.logger.Warn("mercadopago preference rejected",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return "", fmt.Errorf("%w: %w", checkout.ErrServiceUnavailable, err)
	}
	if pref == nil || pref.InitPoint == "" {
		return "", ErrNoRedirect
	}

	m.logger.Info("mercadopago preference created",
		zap.String("preference", pref.ID),
		zap.String("reference", req.Reference))
	return pref.InitPoint, nil
}

func (m *MercadoPago) preference(req checkout.PaymentRequest) preference.Request {
	items := make([]preference.ItemRequest, 0, len(req.Items))
	for _, e := range req.Items {
		items = append(items, preference.ItemRequest{
			ID:         e.ProductID,
			Title:      e.Name,
			Quantity:   e.Quantity,
			UnitPrice:  e.Price.Round(2).InexactFloat64(),
			CurrencyID: m.currency,
			PictureURL: e.Image,
		})
	}

	pref := preference.Request{
		Items: items,
		BackURLs: &preference.BackURLsRequest{
			Success: m.cfg.SuccessURL,
			Failure: m.cfg.FailureURL,
			Pending: m.cfg.PendingURL,
		},
		AutoReturn:        "approved",
		ExternalReference: req.Reference,
	}
	if req.Payer != nil {
		pref.Payer = &preference.PayerRequest{Name: req.Payer.Name, Email: req.Payer.Email}
	}
	return pref
}
