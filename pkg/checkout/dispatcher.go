package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/cart"
	"metitejidos.com.ar/storefront/pkg/models"
)

// State is the step of a session's checkout flow.
type State string

const (
	StateCart     State = "cart"
	StateCheckout State = "checkout"
)

// Flow is the cart and checkout step owned by one browser session.
type Flow struct {
	Cart  *cart.Cart `json:"cart"`
	State State      `json:"step"`
}

func NewFlow(sessionID string) *Flow {
	return &Flow{Cart: cart.New(sessionID), State: StateCart}
}

// Begin moves the flow from cart to checkout. Anonymous sessions get
// ErrAuthenticationRequired and the flow stays in cart.
func (f *Flow) Begin(s Session) error {
	if _, ok := AsAuthenticated(s); !ok {
		f.State = StateCart
		return ErrAuthenticationRequired
	}
	f.State = StateCheckout
	return nil
}

// Cancel returns to the cart step.
func (f *Flow) Cancel() {
	f.State = StateCart
}

// OrderCreator is the order service.
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID string, sub *models.OrderSubmission) (*models.Order, error)
}

// PaymentRequest is what the gateway needs to open a checkout session.
type PaymentRequest struct {
	Reference string
	Items     []cart.Entry
	Payer     *Authenticated
}

// PaymentGateway opens an external checkout and returns the URL to send
// the buyer to.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (string, error)
}

// Result is the outcome of Dispatch. Exactly one field is set.
type Result struct {
	Order       *models.Order `json:"order,omitempty"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
}

type Dispatcher struct {
	orders  OrderCreator
	gateway PaymentGateway
	logger  *zap.Logger
}

// NewDispatcher wires the order service and payment gateway. A nil gateway
// makes the gateway path return ErrServiceUnavailable.
func NewDispatcher(orders OrderCreator, gateway PaymentGateway, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{orders: orders, gateway: gateway, logger: logger}
}

// Dispatch routes the flow to the path selected by choice.
func (d *Dispatcher) Dispatch(ctx context.Context, f *Flow, s Session, choice PaymentChoice) (*Result, error) {
	switch c := choice.(type) {
	case Cash:
		order, err := d.SubmitManualOrder(ctx, f, s, c.Address)
		if err != nil {
			return nil, err
		}
		return &Result{Order: order}, nil
	case Gateway:
		url, err := d.PayWithGateway(ctx, f, s)
		if err != nil {
			return nil, err
		}
		return &Result{RedirectURL: url}, nil
	default:
		_, err := Assemble(f.Cart, nil)
		return nil, err
	}
}

// SubmitManualOrder assembles a cash order and sends it to the order
// service. On success the cart is cleared and the flow returns to the cart
// step. On any failure the cart is left as it was.
func (d *Dispatcher) SubmitManualOrder(ctx context.Context, f *Flow, s Session, addr models.ShippingAddress) (*models.Order, error) {
	sub, err := Assemble(f.Cart, Cash{Address: addr})
	if err != nil {
		return nil, err
	}
	user, ok := AsAuthenticated(s)
	if !ok {
		return nil, ErrAuthenticationRequired
	}

	order, err := d.orders.CreateOrder(ctx, user.ID, sub)
	if err != nil {
		d.logger.Warn("manual order rejected",
			zap.String("session", f.Cart.SessionID),
			zap.String("user", user.ID),
			zap.Error(err))
		return nil, classify(err)
	}

	f.Cart.Clear()
	f.State = StateCart
	d.logger.Info("manual order created",
		zap.String("order", order.ID),
		zap.String("user", user.ID),
		zap.String("total", order.TotalPrice.StringFixed(2)))
	return order, nil
}

// PayWithGateway hands the cart lines to the payment gateway and returns its
// redirect URL. No order is assembled and the cart is kept; confirmation
// happens outside this flow.
func (d *Dispatcher) PayWithGateway(ctx context.Context, f *Flow, s Session) (string, error) {
	if f.Cart == nil || f.Cart.IsEmpty() {
		return "", emptyCartError()
	}
	if d.gateway == nil {
		return "", fmt.Errorf("payment gateway: %w", ErrServiceUnavailable)
	}

	req := PaymentRequest{
		Reference: f.Cart.SessionID,
		Items:     append([]cart.Entry(nil), f.Cart.Entries...),
	}
	if user, ok := AsAuthenticated(s); ok {
		req.Payer = &user
	}

	url, err := d.gateway.InitiatePayment(ctx, req)
	if err != nil {
		d.logger.Warn("payment gateway handoff failed",
			zap.String("session", f.Cart.SessionID),
			zap.Error(err))
		return "", classify(err)
	}
	return url, nil
}

// classify keeps known checkout errors and marks anything else as the
// collaborator being unavailable.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrStockConflict),
		errors.Is(err, ErrAuthenticationRequired),
		errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}
