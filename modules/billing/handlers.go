package billing

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/staffpulse/billing/handler"
	"github.com/staffpulse/billing/pkg/binder"
	"github.com/staffpulse/billing/pkg/jwt"
	"github.com/staffpulse/billing/svc/billing"
)

var (
	binderJSON  = binder.JSON()
	binderQuery = binder.Query()
)

type urlResponse struct {
	URL string `json:"url"`
}

func (m *Module) checkout(ctx handler.Context, req billing.CheckoutRequest) handler.Response {
	res, err := m.svc.CreateCheckout(ctx, jwt.Subject(ctx), req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(urlResponse{URL: res.URL})
}

type webhookRequest struct {
	Payload   []byte
	Signature string
}

// bindWebhook keeps the body byte-for-byte; the signature covers the raw
// payload so it must not be decoded first.
func bindWebhook(max int64) handler.Bind {
	return func(r *http.Request, v any) error {
		req, ok := v.(*webhookRequest)
		if !ok {
			return fmt.Errorf("bind webhook: unexpected target %T", v)
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, max+1))
		if err != nil {
			return errors.Join(billing.ErrInvalidPayload, err)
		}
		if int64(len(body)) > max {
			return fmt.Errorf("%w: max %d bytes", binder.ErrBodyTooLarge, max)
		}
		req.Payload = body
		req.Signature = r.Header.Get("Stripe-Signature")
		return nil
	}
}

func (m *Module) stripeWebhook(ctx handler.Context, req webhookRequest) handler.Response {
	if err := m.svc.HandleWebhook(ctx, req.Payload, req.Signature); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]bool{"received": true})
}

// invoiceRequest is the body of POST /invoices. A paymentId turns it into an
// administrator's status update; otherwise it is a new invoice request.
type invoiceRequest struct {
	billing.InvoiceRequest
	PaymentID     string                `json:"paymentId"`
	Status        billing.PaymentStatus `json:"status"`
	InvoiceNumber *string               `json:"invoiceNumber"`
	AdminUserID   string                `json:"adminUserId"`
}

type invoiceCreatedResponse struct {
	Success      bool                 `json:"success"`
	Subscription billing.Subscription `json:"subscription"`
	Payment      billing.Payment      `json:"payment"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (m *Module) invoices(ctx handler.Context, req invoiceRequest) handler.Response {
	userID := jwt.Subject(ctx)

	if req.PaymentID != "" {
		_, err := m.svc.UpdateInvoiceStatus(ctx, userID, billing.InvoiceStatusUpdate{
			PaymentID:     req.PaymentID,
			Status:        req.Status,
			InvoiceNumber: req.InvoiceNumber,
			AdminUserID:   req.AdminUserID,
		})
		if err != nil {
			return handler.Error(err)
		}
		return handler.JSON(messageResponse{Success: true, Message: "Invoice status updated"})
	}

	res, err := m.svc.RequestInvoice(ctx, userID, req.InvoiceRequest)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(invoiceCreatedResponse{
		Success:      true,
		Subscription: res.Subscription,
		Payment:      res.Payment,
	})
}

func (m *Module) status(ctx handler.Context, _ struct{}) handler.Response {
	res, err := m.svc.Status(ctx, jwt.Subject(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(res)
}

func (m *Module) xeroConnect(ctx handler.Context, _ struct{}) handler.Response {
	if m.xero == nil {
		return handler.Error(ErrXeroDisabled)
	}
	u, err := m.xero.AuthCodeURL(ctx, jwt.Subject(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(urlResponse{URL: u})
}

type xeroCallbackRequest struct {
	State string `query:"state"`
	Code  string `query:"code"`
	Error string `query:"error"`
}

func (m *Module) xeroCallback(ctx handler.Context, req xeroCallbackRequest) handler.Response {
	if m.xero == nil {
		return handler.Error(ErrXeroDisabled)
	}
	if req.Error != "" {
		return handler.Error(handler.NewHTTPError(http.StatusBadRequest, "Xero authorization was declined"))
	}
	if _, err := m.xero.Exchange(ctx, req.State, req.Code); err != nil {
		return handler.Error(err)
	}
	if m.xeroReturn != "" {
		return handler.Redirect(m.xeroReturn)
	}
	return handler.JSON(map[string]bool{"connected": true})
}
